package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cognicore/stockmeta/internal/envutil"
	"github.com/cognicore/stockmeta/pkg/stockmeta/analytics"
	"github.com/cognicore/stockmeta/pkg/stockmeta/export"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store/sqlite"
)

func main() {
	var (
		dbPath  = flag.String("db", envutil.String("", envutil.DBVar), "SQLite history database (required)")
		batchID = flag.String("batch", "", "Batch ID to export (default: most recent)")
		extFlag = flag.String("ext", "original", "Target filename extension: original, .jpg, .jpeg, .png, .eps, .ai, .svg")
		prompts = flag.Bool("prompts", false, "Export prompt-mode records (Filename,Prompt)")
		outPath = flag.String("out", "", "Output path (default: stdout)")
		list    = flag.Bool("list", false, "List recent batches and exit")
		limit   = flag.Int("limit", 20, "Batches shown by --list, keywords shown by --stats")
		stats   = flag.Bool("stats", false, "Print keyword statistics for the batch instead of CSV")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}
	ext, err := export.ParseExtension(*extFlag)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer st.Close()

	if *list {
		batches, err := st.ListBatches(ctx, *limit)
		if err != nil {
			log.Fatal("Failed to list batches:", err)
		}
		printBatches(os.Stdout, batches)
		return
	}

	id := *batchID
	if id == "" {
		batches, err := st.ListBatches(ctx, 1)
		if err != nil {
			log.Fatal("Failed to list batches:", err)
		}
		if len(batches) == 0 {
			log.Fatal("No batches in database")
		}
		id = batches[0].BatchID
	}

	records, err := st.ListBatch(ctx, id)
	if err != nil {
		log.Fatal("Failed to load batch:", err)
	}
	if len(records) == 0 {
		log.Fatalf("Batch %s not found", id)
	}

	if *stats {
		a := analytics.NewAnalyzer()
		a.AddRecords(records)
		printStats(os.Stdout, id, a.Snapshot().Summarize(*limit, analytics.DefaultThresholds()))
		return
	}

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal("Failed to create output:", err)
		}
		defer f.Close()
		w = f
	}

	if *prompts {
		err = export.WritePrompts(w, export.PromptRowsFromRecords(records))
	} else {
		err = export.Write(w, export.RowsFromRecords(records), ext)
	}
	if err != nil {
		log.Fatalf("Export batch %s: %v", id, err)
	}
	if *outPath != "" {
		log.Printf("Exported batch %s to %s", id, *outPath)
	}
}

func printBatches(w io.Writer, batches []store.BatchSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH\tCREATED\tTOTAL\tCOMPLETED\tFAILED")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", b.BatchID, b.CreatedAt.Local().Format(time.DateTime), b.Total, b.Completed, b.Failed)
	}
	tw.Flush()
}

func printStats(w io.Writer, batchID string, r analytics.Report) {
	fmt.Fprintf(w, "Batch %s: %d images with metadata\n\n", batchID, r.Images)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tIMAGES")
	for _, c := range r.Categories {
		fmt.Fprintf(tw, "%d %s\t%d\n", c.Code, c.Name, c.Images)
	}
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEYWORD\tIMAGES\tSHARE")
	for _, k := range r.Top {
		fmt.Fprintf(tw, "%s\t%d\t%.0f%%\n", k.Keyword, k.DF, k.DFPercent)
	}
	tw.Flush()

	if len(r.Overused) > 0 {
		fmt.Fprintln(w, "\nOn most images regardless of category (stopword candidates):")
		for _, k := range r.Overused {
			fmt.Fprintf(w, "  %s (%.0f%%)\n", k.Keyword, k.DFPercent)
		}
	}
	if len(r.Pairs) > 0 {
		fmt.Fprintln(w, "\nKeywords that travel together:")
		for _, p := range r.Pairs {
			fmt.Fprintf(w, "  %s + %s (%d images, pmi %.2f)\n", p.A, p.B, p.Support, p.PMI)
		}
	}
}
