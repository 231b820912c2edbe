// Package export writes processed metadata as marketplace upload CSV.
//
// The layout is fixed: a Filename,Title,Keywords,Category header, the first
// three fields always double-quoted with embedded quotes doubled, the
// category code bare, and rows joined by "\n".
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
	"github.com/cognicore/stockmeta/pkg/stockmeta/keywords"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
)

// Original keeps filenames as uploaded.
const Original = "Original (no change)"

// Extensions lists the supported target extensions.
var Extensions = []string{Original, ".jpg", ".jpeg", ".png", ".eps", ".ai", ".svg"}

// ErrNothingToExport is returned when no completed rows exist.
var ErrNothingToExport = errors.New("no completed metadata to export")

// Row is one CSV line.
type Row struct {
	Filename     string
	Title        string
	Keywords     []string
	CategoryCode int
}

// PromptRow is one line of a prompt-mode export.
type PromptRow struct {
	Filename string
	Prompt   string
}

// ParseExtension accepts "", "original", Original, or one of Extensions
// with or without the leading dot, case-insensitively.
func ParseExtension(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "original" || s == strings.ToLower(Original) {
		return Original, nil
	}
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	for _, ext := range Extensions[1:] {
		if s == ext {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported extension %q", internalerr.ErrInvalidInput, s)
}

// ApplyExtension replaces everything after the last "." in name with ext.
// A name without a dot gets ext appended.
func ApplyExtension(name, ext string) string {
	if ext == Original || ext == "" {
		return name
	}
	if p := strings.LastIndex(name, "."); p > -1 {
		name = name[:p]
	}
	return name + ext
}

// FileName returns the download name for an export with ext.
func FileName(ext string) string {
	if ext == Original || ext == "" {
		return "original_format_metadata.csv"
	}
	return strings.TrimPrefix(ext, ".") + "_metadata.csv"
}

// RowsFromRecords keeps completed records in order.
func RowsFromRecords(records []store.Record) []Row {
	var rows []Row
	for _, r := range records {
		if r.Status != store.StatusCompleted {
			continue
		}
		rows = append(rows, Row{
			Filename:     r.Filename,
			Title:        r.Title,
			Keywords:     r.Keywords,
			CategoryCode: r.CategoryCode,
		})
	}
	return rows
}

// PromptRowsFromRecords keeps completed prompt-mode records in order.
func PromptRowsFromRecords(records []store.Record) []PromptRow {
	var rows []PromptRow
	for _, r := range records {
		if r.Status == store.StatusCompleted && r.Prompt != "" {
			rows = append(rows, PromptRow{Filename: r.Filename, Prompt: r.Prompt})
		}
	}
	return rows
}

// Write renders rows with filenames rewritten to ext.
func Write(w io.Writer, rows []Row, ext string) error {
	if len(rows) == 0 {
		return ErrNothingToExport
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, "Filename,Title,Keywords,Category")
	for _, r := range rows {
		lines = append(lines, strings.Join([]string{
			quote(ApplyExtension(r.Filename, ext)),
			quote(r.Title),
			quote(keywords.String(r.Keywords)),
			strconv.Itoa(r.CategoryCode),
		}, ","))
	}
	return writeLines(w, lines)
}

// WritePrompts renders a Filename,Prompt CSV.
func WritePrompts(w io.Writer, rows []PromptRow) error {
	if len(rows) == 0 {
		return ErrNothingToExport
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, "Filename,Prompt")
	for _, r := range rows {
		lines = append(lines, quote(r.Filename)+","+quote(r.Prompt))
	}
	return writeLines(w, lines)
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(lines, "\n")); err != nil {
		return err
	}
	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
