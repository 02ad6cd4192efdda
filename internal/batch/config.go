package batch

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/MeKo-Tech/notepeel/internal/config"
	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/render"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Analysis settings
	Profile *profile.Profile
	Format  render.Format // per-file output format

	// Parallel processing settings
	Workers         int // 0 = runtime.NumCPU()
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings
	OutputDir string // when set, one rendered document per input file is written here

	Progress ProgressCallback
}

// FromSettings builds a batch Config from the batch section of the
// application configuration.
func FromSettings(settings config.BatchConfig, p *profile.Profile, format render.Format) *Config {
	return &Config{
		Profile:         p,
		Format:          format,
		Workers:         settings.Workers,
		ContinueOnError: settings.ContinueOnError,
		Recursive:       settings.Recursive,
		IncludePatterns: settings.Include,
		ExcludePatterns: settings.Exclude,
		OutputDir:       settings.OutputDir,
	}
}

func (c *Config) workerCount(files int) int {
	n := c.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, files))
}

// FileResult is the outcome of analysing one file. Exactly one of Document
// and Err is set.
type FileResult struct {
	Path       string
	Document   *document.StructuredDocument
	OutputPath string
	Duration   time.Duration
	Err        error
}

// Result holds the result of batch processing. Files keeps discovery order.
type Result struct {
	Files       []FileResult
	Duration    time.Duration
	WorkerCount int
}

// Stats summarises a batch run.
type Stats struct {
	TotalFiles       int           `json:"total_files"`
	ProcessedFiles   int           `json:"processed_files"`
	FailedFiles      int           `json:"failed_files"`
	TotalLines       int           `json:"total_lines"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerFile   time.Duration `json:"average_per_file_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// Stats calculates processing statistics.
func (r *Result) Stats() Stats {
	s := Stats{
		TotalFiles:    len(r.Files),
		WorkerCount:   r.WorkerCount,
		TotalDuration: r.Duration,
	}
	for _, f := range r.Files {
		if f.Err != nil {
			s.FailedFiles++
			continue
		}
		s.ProcessedFiles++
		s.TotalLines += f.Document.Metadata.TotalLines
	}
	if s.ProcessedFiles > 0 && r.Duration > 0 {
		s.AveragePerFile = r.Duration / time.Duration(s.ProcessedFiles)
		s.ThroughputPerSec = float64(s.ProcessedFiles) / r.Duration.Seconds()
	}
	return s
}

// Failed returns the file results that carry an error.
func (r *Result) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// PrintStats writes processing statistics to w.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total files: %d\n", stats.TotalFiles)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.ProcessedFiles)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.FailedFiles)
	_, _ = fmt.Fprintf(w, "  Lines: %d\n", stats.TotalLines)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per file: %v\n", stats.AveragePerFile.Round(time.Microsecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f files/sec\n", stats.ThroughputPerSec)
}
