package batch

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/render"
)

// SummaryFormats lists the formats accepted by FormatSummary.
var SummaryFormats = []string{"text", "json", "csv"}

type fileSummary struct {
	File       string                       `json:"file"`
	Output     string                       `json:"output,omitempty"`
	Error      string                       `json:"error,omitempty"`
	DurationMS int64                        `json:"duration_ms"`
	Document   *document.StructuredDocument `json:"document,omitempty"`
}

// FormatSummary formats the batch results as text, json or csv.
func (r *Result) FormatSummary(format string) (string, error) {
	switch format {
	case "json":
		return r.formatJSON()
	case "csv":
		return r.formatCSV()
	case "text", "":
		return r.formatText(), nil
	}
	return "", fmt.Errorf("unsupported summary format %q (expected one of %v)", format, SummaryFormats)
}

// formatJSON embeds the full document for every file that has no output file.
func (r *Result) formatJSON() (string, error) {
	summary := struct {
		Files []fileSummary `json:"files"`
		Stats Stats         `json:"stats"`
	}{Files: make([]fileSummary, 0, len(r.Files)), Stats: r.Stats()}

	for _, f := range r.Files {
		s := fileSummary{File: f.Path, Output: f.OutputPath, DurationMS: f.Duration.Milliseconds()}
		if f.Err != nil {
			s.Error = f.Err.Error()
		} else if f.OutputPath == "" {
			s.Document = f.Document
		}
		summary.Files = append(summary.Files, s)
	}

	var b strings.Builder
	if err := render.WriteJSON(&b, summary); err != nil {
		return "", err
	}
	return b.String(), nil
}

// formatCSV writes one row of counts per file.
func (r *Result) formatCSV() (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	_ = writer.Write([]string{
		"file", "status", "total_lines", "key_values", "bullet_points", "tables", "paragraphs", "output", "error",
	})

	for _, f := range r.Files {
		row := []string{f.Path, "ok", "0", "0", "0", "0", "0", f.OutputPath, ""}
		if f.Err != nil {
			row[1] = "error"
			row[8] = f.Err.Error()
		} else {
			d := f.Document
			row[2] = strconv.Itoa(d.Metadata.TotalLines)
			row[3] = strconv.Itoa(d.KeyValues.Len())
			row[4] = strconv.Itoa(len(d.BulletPoints))
			row[5] = strconv.Itoa(len(d.Tables))
			row[6] = strconv.Itoa(len(d.Paragraphs))
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText writes a header per file followed by its plain-text rendering.
func (r *Result) formatText() string {
	var output strings.Builder
	for i, f := range r.Files {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", f.Path)
		switch {
		case f.Err != nil:
			fmt.Fprintf(&output, "error: %v\n", f.Err)
		case f.OutputPath != "":
			fmt.Fprintf(&output, "written to %s\n", f.OutputPath)
		default:
			output.WriteString(render.PlainText(f.Document))
		}
	}
	return output.String()
}
