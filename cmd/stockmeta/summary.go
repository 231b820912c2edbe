package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cognicore/stockmeta/internal/batch"
	"github.com/cognicore/stockmeta/pkg/stockmeta"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
)

// printSummary renders one row per image, truncated for the terminal.
func printSummary(w io.Writer, report *batch.Report, mode stockmeta.Mode) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if mode == stockmeta.ModePrompt {
		fmt.Fprintln(tw, "FILE\tSTATUS\tPROMPT")
	} else {
		fmt.Fprintln(tw, "FILE\tSTATUS\tTITLE\tKEYWORDS\tCATEGORY")
	}

	for _, o := range report.Outcomes {
		switch {
		case o.Status != store.StatusCompleted:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Filename, o.Status, o.Error)
		case mode == stockmeta.ModePrompt:
			fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Filename, o.Status,
				stockmeta.Truncate(o.Prompt, stockmeta.KeywordsDisplayLimit))
		default:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d %s\n", o.Filename, o.Status,
				stockmeta.Truncate(o.Result.Title, stockmeta.TitleDisplayLimit),
				stockmeta.Truncate(o.Result.KeywordString(), stockmeta.KeywordsDisplayLimit),
				o.Result.CategoryCode, o.Result.CategoryName)
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d completed, %d failed", report.Completed, report.Failed)
	if report.Skipped > 0 {
		fmt.Fprintf(w, ", %d duplicate filenames skipped", report.Skipped)
	}
	fmt.Fprintf(w, " (batch %s)\n", report.BatchID)
}
