package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/notepeel/internal/analyzer"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/render"
	"github.com/MeKo-Tech/notepeel/internal/source"
)

// fileJob is a single file to analyse.
type fileJob struct {
	index      int
	path       string
	outputPath string
}

type indexedResult struct {
	index int
	FileResult
}

// processFilesParallel analyses files with a pool of workers. The returned
// slice is in the same order as files. Without ContinueOnError the first
// failure cancels the remaining work and is returned as the error.
func processFilesParallel(ctx context.Context, files []string, config *Config) ([]FileResult, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	outputs := outputPaths(files, config.OutputDir, config.Format)
	workers := config.workerCount(len(files))

	progress := config.Progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	progress.OnStart(len(files))
	defer progress.OnComplete()

	jobs := make(chan fileJob, len(files))
	results := make(chan indexedResult, len(files))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go worker(ctx, jobs, results, &wg, config)
	}

	go func() {
		defer close(jobs)
		for i, path := range files {
			select {
			case jobs <- fileJob{index: i, path: path, outputPath: outputs[i]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]FileResult, len(files))
	done := make([]bool, len(files))
	processed := 0
	for res := range results {
		ordered[res.index] = res.FileResult
		done[res.index] = true
		processed++

		if res.Err != nil {
			progress.OnError(res.Path, res.Err)
			if !config.ContinueOnError {
				cancel(fmt.Errorf("%s: %w", res.Path, res.Err))
			}
		}
		progress.OnProgress(processed, len(files))
	}

	for i, ok := range done {
		if !ok {
			ordered[i] = FileResult{Path: files[i], Err: context.Cause(ctx)}
		}
	}

	return ordered, context.Cause(ctx)
}

// worker analyses files from the jobs channel until it closes or ctx ends.
func worker(ctx context.Context, jobs <-chan fileJob, results chan<- indexedResult, wg *sync.WaitGroup, config *Config) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			res := indexedResult{index: job.index, FileResult: processFile(job, config)}
			select {
			case results <- res:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// processFile decodes, analyses and optionally writes one file.
func processFile(job fileJob, config *Config) FileResult {
	start := time.Now()
	res := FileResult{Path: job.path}

	p := config.Profile
	if p == nil {
		p = profile.MustLookup(profile.Default)
	}

	in, err := source.ReadFile(job.path)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	doc := analyzer.Analyze(*in, p)
	if job.outputPath != "" {
		var buf bytes.Buffer
		if err := render.Render(&buf, doc, config.Format); err != nil {
			res.Err = fmt.Errorf("failed to render %s: %w", job.path, err)
			res.Duration = time.Since(start)
			return res
		}
		if err := os.WriteFile(job.outputPath, buf.Bytes(), 0o600); err != nil {
			res.Err = fmt.Errorf("failed to write output file: %w", err)
			res.Duration = time.Since(start)
			return res
		}
		res.OutputPath = job.outputPath
	}

	res.Document = doc
	res.Duration = time.Since(start)
	return res
}

// outputPaths assigns each input a file in dir named after its base name with
// the format's extension. A name already taken gets the lowest free numeric
// suffix, in input order. An empty dir yields empty paths.
func outputPaths(files []string, dir string, format render.Format) []string {
	paths := make([]string, len(files))
	if dir == "" {
		return paths
	}

	ext := render.Extension(format)
	used := make(map[string]bool)
	for i, f := range files {
		stem := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		name := stem
		for n := 2; used[name]; n++ {
			name = stem + "-" + strconv.Itoa(n)
		}
		used[name] = true
		paths[i] = filepath.Join(dir, name+ext)
	}
	return paths
}
