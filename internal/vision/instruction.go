package vision

import (
	"fmt"
	"strings"
)

// MetadataInstruction builds the instruction asking for the four labeled
// lines. names are the taxonomy's canonical category names.
func MetadataInstruction(names []string) string {
	var b strings.Builder
	b.WriteString("You are preparing metadata for a stock image marketplace. Follow these strict rules:\n")
	b.WriteString("1) TITLE: Provide ONE concise, descriptive title (<= 200 characters). Use sentence case. ")
	b.WriteString("No promo words, no hashtags, no camera model, no 'copy space', no 'stock photo'. ")
	b.WriteString("Prefer subject + key attribute + context.\n")
	b.WriteString("2) KEYWORDS: Provide 25-49 relevant keywords (comma-separated), most important first. ")
	b.WriteString("Use single words or short 2-3 word phrases. No brand names, no duplicates, no stopwords, ")
	b.WriteString("no fluff like 'copy space' or 'high quality'. Include subjects, actions, materials, style, ")
	b.WriteString("central colors and the conceptual terms buyers would search.\n")
	fmt.Fprintf(&b, "3) CATEGORY: Choose exactly one of these %d names: %s.\n", len(names), strings.Join(names, ", "))
	b.WriteString("4) DESCRIPTION: One or two sentences, <= 500 characters.\n\n")
	b.WriteString("Return using this exact schema:\n")
	b.WriteString("TITLE: <your title>\n")
	b.WriteString("KEYWORDS: <k1, k2, k3, ...>\n")
	fmt.Fprintf(&b, "CATEGORY: <one of the %d names>\n", len(names))
	b.WriteString("DESCRIPTION: <your description>\n")
	return b.String()
}

// PromptInstruction asks for a text-to-image prompt reproducing the image.
const PromptInstruction = "Describe this image as a detailed prompt for a text-to-image generator. " +
	"Cover subject, composition, lighting, color palette, style and mood in one paragraph. " +
	"Return a single line in the form:\nPROMPT: <your prompt>\n"
