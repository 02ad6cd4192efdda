package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/notepeel/internal/batch"
)

// newBatchCommand analyses many documents with a pool of workers.
func (a *app) newBatchCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "batch <paths...>",
		Short: "Analyze many documents in parallel",
		Long: `Analyze files and directories in parallel and print a summary.

Directories are scanned for files matching --include and not matching
--exclude (patterns apply to base names). With --output-dir every document is
rendered to its own file; otherwise the summary embeds the documents.

Examples:
  notepeel batch notes/*.txt
  notepeel batch inbox/ --recursive --workers 8
  notepeel batch inbox/ --output-dir out/ --format markdown --summary csv
  notepeel batch a.txt b.json --continue-on-error --progress --stats`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runBatch,
	}

	c.Flags().StringP("profile", "p", "", "detection profile (default, academic-paper, meeting-notes, lecture-notes)")
	c.Flags().StringP("format", "f", "", "per-document output format: json, yaml, text, markdown, html")
	c.Flags().StringP("output", "o", "", "summary output file (default: stdout)")
	c.Flags().String("summary", "text", fmt.Sprintf("summary format: %v", batch.SummaryFormats))
	c.Flags().IntP("workers", "w", 0, fmt.Sprintf("number of parallel workers (default from config, machine has %d CPUs)", runtime.NumCPU()))
	c.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	c.Flags().StringSlice("include", nil, "file patterns to include (default *.txt, *.json, *.pdf)")
	c.Flags().StringSlice("exclude", nil, "file patterns to exclude")
	c.Flags().String("output-dir", "", "write one rendered document per input file to this directory")
	c.Flags().Bool("continue-on-error", false, "keep going when a file fails")
	c.Flags().Bool("progress", false, "show a progress bar on stderr")
	c.Flags().Bool("stats", false, "print processing statistics on stderr")

	a.bind(c, "profile", "analyzer.profile")
	a.bind(c, "format", "output.format")
	a.bind(c, "output", "output.file")
	a.bind(c, "workers", "batch.workers")
	a.bind(c, "recursive", "batch.recursive")
	a.bind(c, "include", "batch.include")
	a.bind(c, "exclude", "batch.exclude")
	a.bind(c, "output-dir", "batch.output_dir")
	a.bind(c, "continue-on-error", "batch.continue_on_error")
	return c
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	summary, _ := cmd.Flags().GetString("summary")
	if !slices.Contains(batch.SummaryFormats, summary) {
		return fmt.Errorf("unsupported summary format %q (expected one of %v)", summary, batch.SummaryFormats)
	}

	p, err := a.cfg.ResolveProfile()
	if err != nil {
		return err
	}
	format, err := a.cfg.OutputFormat()
	if err != nil {
		return err
	}

	config := batch.FromSettings(a.cfg.Batch, p, format)
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		config.Progress = batch.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Analyzing ")
	} else {
		config.Progress = batch.NewLogProgressCallback(slog.Default(), slog.LevelDebug)
	}

	result, batchErr := batch.ProcessBatch(cmd.Context(), args, config)
	if result == nil {
		return fmt.Errorf("batch processing failed: %w", batchErr)
	}

	err = writeOutput(cmd, a.cfg.Output.File, func(w io.Writer) error {
		text, err := result.FormatSummary(summary)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, text)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		result.PrintStats(cmd.ErrOrStderr())
	}

	if batchErr != nil {
		return fmt.Errorf("batch processing failed: %w", batchErr)
	}
	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed", len(failed), len(result.Files))
	}
	return nil
}
