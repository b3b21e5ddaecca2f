// Package batch applies one quad warp to many image files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
)

// Result holds the result of batch processing.
type Result struct {
	Files       []pipeline.FileResult
	Duration    time.Duration
	WorkerCount int
}

// Stats summarizes the run.
func (r *Result) Stats() pipeline.ParallelStats {
	return pipeline.CalculateParallelStats(r.Files, r.Duration, r.WorkerCount)
}

// Failed reports how many files could not be warped.
func (r *Result) Failed() int {
	return r.Stats().FailedFiles
}

// ProcessBatch discovers images under inputs, warps each with pl and writes
// the results to config.OutputDir.
func ProcessBatch(ctx context.Context, inputs []string, config *Config, pl *pipeline.Pipeline) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}

	files, err := discoverImageFiles(inputs, config.Recursive, config.IncludePatterns, config.ExcludePatterns,
		config.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	outputs, err := planOutputs(files, config)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	var progress pipeline.ProgressCallback
	if config.ShowProgress && !config.Quiet {
		progress = pipeline.NewConsoleProgressCallback(os.Stderr, "Warping: ").
			WithUpdateInterval(config.ProgressInterval)
	}

	slog.Info("Batch warp starting", "files", len(files), "workers", config.Workers, "output_dir", config.OutputDir)

	startTime := time.Now()
	results, err := pl.ProcessFilesParallel(ctx, paths, pipeline.ParallelConfig{
		MaxWorkers:       config.Workers,
		ContinueOnError:  config.ContinueOnError,
		ProgressCallback: progress,
	}, func(index int, _ string, out *pipeline.Output) error {
		return saveOutput(out, outputs[index], config)
	})
	duration := time.Since(startTime)

	for i := range results {
		if results[i].Err == nil {
			results[i].OutputPath = outputs[i]
		}
	}
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	res := &Result{Files: results, Duration: duration, WorkerCount: config.Workers}
	slog.Info("Batch warp finished", "processed", res.Stats().ProcessedFiles, "failed", res.Failed(),
		"duration", duration.Round(time.Millisecond))
	return res, nil
}

// SaveResults writes the formatted report to outputFile, or to w when
// outputFile is empty.
func (r *Result) SaveResults(w io.Writer, format, outputFile string) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = io.WriteString(w, output)
	return err
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", stats.TotalFiles)
	_, _ = fmt.Fprintf(w, "  Warped: %d\n", stats.ProcessedFiles)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.FailedFiles)
	_, _ = fmt.Fprintf(w, "  Skipped pixels: %d\n", stats.SkippedPixels)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", stats.AveragePerFile.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", stats.ThroughputPerSec)
}
