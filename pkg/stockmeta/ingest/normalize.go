package ingest

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var htmlTag = regexp.MustCompile(`(?i)</?(br|p|div|span|li|ul|ol|b|strong|em|i|h[1-6]|table|tr|td)\b[^>]*>`)

// blockElements end a line when rendered as text.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true, "tr": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// NormalizeResponse prepares raw model output for parsing: NFKC
// normalization (full-width colons and letters become ASCII), LF line
// endings, removal of a markdown fence around the whole answer, and
// conversion of HTML markup to plain lines when tags are present.
// Plain text passes through otherwise unchanged.
func NormalizeResponse(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = stripFence(s)

	if htmlTag.MatchString(s) {
		if text, err := htmlToText(s); err == nil {
			s = text
		}
	}
	return s
}

// stripFence removes ```lang ... ``` wrapping the entire answer.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return s
	}
	body := strings.TrimSuffix(trimmed, "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s
	}
	return strings.TrimSpace(body[nl+1:])
}

func htmlToText(s string) (string, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "br" {
				buf.WriteByte('\n')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteByte('\n')
		}
	}
	walk(doc)

	lines := strings.Split(buf.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}
