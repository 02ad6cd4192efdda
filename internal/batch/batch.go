// Package batch analyses many input files with a pool of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/notepeel/internal/render"
)

// ErrNoFiles is returned when discovery finds nothing to analyse.
var ErrNoFiles = errors.New("no input files found")

// ProcessBatch discovers the files named by paths and analyses them in
// parallel. When the batch is aborted, by ctx or by a failure without
// ContinueOnError, the partial result is returned together with the error.
func ProcessBatch(ctx context.Context, paths []string, config *Config) (*Result, error) {
	files, err := discoverFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if config.Format == "" {
		config.Format = render.JSON
	}
	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	workers := config.workerCount(len(files))
	slog.Debug("Starting batch", "files", len(files), "workers", workers, "output_dir", config.OutputDir)

	startTime := time.Now()
	results, err := processFilesParallel(ctx, files, config)
	result := &Result{
		Files:       results,
		Duration:    time.Since(startTime),
		WorkerCount: workers,
	}
	if err != nil {
		return result, fmt.Errorf("batch aborted: %w", err)
	}
	return result, nil
}
