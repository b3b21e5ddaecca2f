package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/texmap"
)

// ErrNotProcessed marks files that were never started because the run was
// cancelled or stopped at an earlier failure.
var ErrNotProcessed = errors.New("not processed")

// ParallelConfig holds configuration for multi-file processing.
type ParallelConfig struct {
	MaxWorkers       int              // Number of files warped concurrently (0 = runtime.NumCPU())
	ContinueOnError  bool             // Keep going after a failed file
	ProgressCallback ProgressCallback // Optional progress reporting
}

// DefaultParallelConfig returns sensible defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: runtime.NumCPU()}
}

// FileHandler consumes one warped file, typically by saving it. The output
// is released after the handler returns.
type FileHandler func(index int, path string, out *Output) error

// FileResult is the outcome for one input file.
type FileResult struct {
	Index      int           `json:"index"`
	Path       string        `json:"path"`
	Width      int           `json:"width,omitempty"`
	Height     int           `json:"height,omitempty"`
	Stats      texmap.Stats  `json:"stats"`
	Duration   time.Duration `json:"duration_ns"`
	Err        error         `json:"-"`
	OutputPath string        `json:"output_path,omitempty"`
}

type fileJob struct {
	index int
	path  string
}

// ProcessFilesParallel warps every path with a worker pool and hands each
// output to handle. Results are returned in input order. Without
// ContinueOnError the first failure stops the run and is returned.
func (p *Pipeline) ProcessFilesParallel(ctx context.Context, paths []string, config ParallelConfig,
	handle FileHandler) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files provided")
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	workers := min(config.MaxWorkers, len(paths))

	progress := config.ProgressCallback
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	progress.OnStart(len(paths))
	defer progress.OnComplete()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]FileResult, len(paths))
	for i, path := range paths {
		results[i] = FileResult{Index: i, Path: path, Err: ErrNotProcessed}
	}

	jobs := make(chan fileJob)
	done := make(chan FileResult, len(paths))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go p.fileWorker(runCtx, jobs, done, &wg, handle)
	}

	go func() {
		defer close(jobs)
		for i, path := range paths {
			select {
			case jobs <- fileJob{index: i, path: path}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	var firstErr error
	processed := 0
	for r := range done {
		results[r.Index] = r
		processed++
		if r.Err != nil {
			progress.OnError(r.Index, r.Err)
			if !config.ContinueOnError && firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.Path, r.Err)
				cancel()
			}
		}
		progress.OnProgress(processed, len(paths))
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, firstErr
}

func (p *Pipeline) fileWorker(ctx context.Context, jobs <-chan fileJob, done chan<- FileResult,
	wg *sync.WaitGroup, handle FileHandler) {
	defer wg.Done()
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			done <- p.processJob(job, handle)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) processJob(job fileJob, handle FileHandler) FileResult {
	start := time.Now()
	r := FileResult{Index: job.index, Path: job.path}
	out, err := p.ProcessFile(job.path)
	if err != nil {
		r.Err = err
		r.Duration = time.Since(start)
		return r
	}
	defer out.Release()

	r.Width, r.Height = out.Result.Width, out.Result.Height
	r.Stats = out.Result.Stats
	if handle != nil {
		r.Err = handle(job.index, job.path, out)
	}
	r.Duration = time.Since(start)
	return r
}

// ParallelStats summarizes a multi-file run.
type ParallelStats struct {
	TotalFiles       int           `json:"total_files"`
	ProcessedFiles   int           `json:"processed_files"`
	FailedFiles      int           `json:"failed_files"`
	SkippedPixels    int           `json:"skipped_pixels"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerFile   time.Duration `json:"average_per_file_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// CalculateParallelStats calculates performance statistics for a run.
func CalculateParallelStats(results []FileResult, duration time.Duration, workerCount int) ParallelStats {
	stats := ParallelStats{
		TotalFiles:    len(results),
		WorkerCount:   workerCount,
		TotalDuration: duration,
	}
	for _, r := range results {
		if r.Err != nil {
			stats.FailedFiles++
			continue
		}
		stats.ProcessedFiles++
		stats.SkippedPixels += r.Stats.Skipped
	}
	if stats.ProcessedFiles > 0 && duration > 0 {
		stats.AveragePerFile = duration / time.Duration(stats.ProcessedFiles)
		stats.ThroughputPerSec = float64(stats.ProcessedFiles) / duration.Seconds()
	}
	return stats
}
