package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/notepeel/internal/classify"
	"github.com/MeKo-Tech/notepeel/internal/normalize"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/render"
)

type classifiedArg struct {
	Input string `json:"input" yaml:"input"`
	// Line is the normalized text, empty when normalization removed the input.
	Line   string           `json:"line" yaml:"line"`
	Result *classify.Result `json:"result,omitempty" yaml:"result,omitempty"`
}

func (a *app) newClassifyCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "classify <line...>",
		Short: "Explain how single lines are classified",
		Long: `Classify each argument on its own and explain the decision: the kind,
the bullet pattern that matched, the key-value split and the table-row
statistics. Lines are normalized with the profile's clean-up rules first.

Examples:
  notepeel classify "Name: John Smith" "1. Buy milk" "A1 10 5"
  notepeel classify "TODO: call Bob" --profile meeting-notes
  notepeel classify "Price | 10 | 20" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runClassify,
	}

	c.Flags().StringP("profile", "p", "", "detection profile (default, academic-paper, meeting-notes, lecture-notes)")
	c.Flags().StringP("format", "f", "text", "output format: text, json, yaml")
	a.bind(c, "profile", "analyzer.profile")
	return c
}

func (a *app) runClassify(cmd *cobra.Command, args []string) error {
	p, err := a.cfg.ResolveProfile()
	if err != nil {
		return err
	}

	results := make([]classifiedArg, 0, len(args))
	for _, arg := range args {
		results = append(results, classifyArg(arg, p))
	}

	out := cmd.OutOrStdout()
	switch format, _ := cmd.Flags().GetString("format"); format {
	case "text", "":
		for _, r := range results {
			writeClassification(out, r)
		}
		return nil
	case "json":
		return render.WriteJSON(out, results)
	case "yaml":
		return render.WriteYAML(out, results)
	default:
		return fmt.Errorf("unsupported classify format %q (expected text, json or yaml)", format)
	}
}

// classifyArg normalizes arg as a one-line document. Input spanning several
// lines is joined back with single spaces. Row statistics are reported even
// when an earlier detector claimed the line.
func classifyArg(arg string, p *profile.Profile) classifiedArg {
	lines := normalize.Lines(arg, p)
	if len(lines) == 0 {
		return classifiedArg{Input: arg}
	}
	line := strings.Join(strings.Fields(normalize.Text(lines)), " ")
	if len(lines) == 1 {
		line = lines[0].Text
	}

	r := classify.Classify(line, p)
	if r.Row.Columns == 0 {
		r.Row = classify.AnalyzeRow(strings.Fields(line), p)
	}
	return classifiedArg{Input: arg, Line: line, Result: &r}
}

func writeClassification(w io.Writer, c classifiedArg) {
	_, _ = fmt.Fprintf(w, "%q\n", c.Input)
	if c.Result == nil {
		_, _ = fmt.Fprintln(w, "  removed by normalization")
		return
	}

	r := c.Result
	_, _ = fmt.Fprintf(w, "  kind: %s\n", r.Kind)
	if r.Pattern != "" {
		_, _ = fmt.Fprintf(w, "  pattern: %s\n", r.Pattern)
	}
	if r.Key != "" {
		_, _ = fmt.Fprintf(w, "  key: %q\n  value: %q\n", r.Key, r.Value)
	}
	_, _ = fmt.Fprintf(w, "  row: columns=%d numeric=%d ratio=%.2f delimiter=%t accepted=%t\n",
		r.Row.Columns, r.Row.NumericWords, r.Row.NumericRatio, r.Row.HasDelimiter, r.Row.Accepted)
}
