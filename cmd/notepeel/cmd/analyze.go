package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/notepeel/internal/analyzer"
	"github.com/MeKo-Tech/notepeel/internal/layout"
	"github.com/MeKo-Tech/notepeel/internal/render"
	"github.com/MeKo-Tech/notepeel/internal/source"
)

func (a *app) newAnalyzeCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze one document and print its structure",
		Long: `Analyze a single document and print the structured result.

The input is a file (plain text, OCR JSON or a PDF with a text layer), "-" for
standard input, or inline text given with --text. A separate OCR layout file
may be supplied with --layout to enable geometry-based metadata.

Examples:
  notepeel analyze notes.txt
  notepeel analyze scan.json --format yaml
  cat notes.txt | notepeel analyze - --profile lecture-notes
  notepeel analyze --text "Name: John Smith" --format text
  notepeel analyze notes.txt --layout notes.layout.json --output notes.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runAnalyze,
	}

	c.Flags().StringP("profile", "p", "", "detection profile (default, academic-paper, meeting-notes, lecture-notes)")
	c.Flags().StringP("format", "f", "", "output format: json, yaml, text, markdown, html (default json)")
	c.Flags().StringP("output", "o", "", "output file (default: stdout)")
	c.Flags().String("text", "", "analyze this text instead of reading a file")
	c.Flags().String("layout", "", "OCR layout JSON file describing the input text")

	a.bind(c, "profile", "analyzer.profile")
	a.bind(c, "format", "output.format")
	a.bind(c, "output", "output.file")
	return c
}

func (a *app) runAnalyze(cmd *cobra.Command, args []string) error {
	in, err := readAnalyzeInput(cmd, args)
	if err != nil {
		return err
	}
	p, err := a.cfg.ResolveProfile()
	if err != nil {
		return err
	}
	format, err := a.cfg.OutputFormat()
	if err != nil {
		return err
	}

	start := time.Now()
	doc := analyzer.Analyze(*in, p)
	slog.Debug("Analyzed document",
		"profile", p.Name(),
		"lines", doc.Metadata.TotalLines,
		"duration_ms", time.Since(start).Milliseconds())

	return writeOutput(cmd, a.cfg.Output.File, func(w io.Writer) error {
		return render.Render(w, doc, format)
	})
}

// readAnalyzeInput resolves the analyze input from --text, "-" or a file,
// attaching the --layout document when one is given.
func readAnalyzeInput(cmd *cobra.Command, args []string) (*analyzer.Input, error) {
	var doc *layout.Document
	if path, _ := cmd.Flags().GetString("layout"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read layout: %w", err)
		}
		if doc, err = layout.Decode(data); err != nil {
			return nil, fmt.Errorf("failed to decode layout %s: %w", path, err)
		}
	}

	var (
		in  *analyzer.Input
		err error
	)
	switch {
	case cmd.Flags().Changed("text"):
		if len(args) > 0 {
			return nil, errors.New("--text cannot be combined with an input file")
		}
		text, _ := cmd.Flags().GetString("text")
		return source.FromParts(text, doc)
	case len(args) == 0 && doc != nil:
		return source.FromParts("", doc)
	case len(args) == 0:
		return nil, errors.New("no input: pass a file, - for standard input, or --text")
	case args[0] == "-":
		data, readErr := io.ReadAll(cmd.InOrStdin())
		if readErr != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", readErr)
		}
		in, err = source.Decode(data, "", "")
	default:
		in, err = source.ReadFile(args[0])
	}
	if err != nil {
		return nil, err
	}
	if doc != nil {
		in.Layout = doc
	}
	return in, nil
}

// writeOutput sends what write produces to path, or to standard output when
// path is empty. A file is only created once rendering succeeded.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Info("Wrote output", "file", path, "bytes", buf.Len())
	return nil
}
