package texmap

import (
	"errors"
	"runtime"
)

// Config controls how an Engine schedules the pixel loop.
type Config struct {
	Workers           int // Number of row bands processed concurrently (0 = runtime.NumCPU())
	MinParallelPixels int // Destinations smaller than this run on the calling goroutine
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           runtime.NumCPU(),
		MinParallelPixels: 64 * 64,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return errors.New("workers must be non-negative")
	}
	if c.MinParallelPixels < 0 {
		return errors.New("min parallel pixels must be non-negative")
	}
	return nil
}

func (c Config) workerCount() int {
	if c.Workers == 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
