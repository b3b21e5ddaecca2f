package batch

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/imageio"
)

// DefaultSuffix is appended to the base name of every output file.
const DefaultSuffix = "_warped"

// Config holds all configuration for batch processing.
type Config struct {
	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings
	OutputDir    string
	Format       imageio.Format
	Suffix       string
	Overlay      bool
	OverlayColor color.NRGBA

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration
}

// DefaultConfig returns the batch settings of config.DefaultConfig.
func DefaultConfig() *Config {
	cfg, _ := FromAppConfig(config.DefaultConfig())
	return cfg
}

// FromAppConfig builds batch settings from the batch and output sections of
// the application configuration.
func FromAppConfig(app config.Config) (*Config, error) {
	format := imageio.FormatPNG
	if app.Output.Format != "" {
		f, err := imageio.ParseFormat(app.Output.Format)
		if err != nil {
			return nil, err
		}
		format = f
	}
	col := color.NRGBA{R: 255, A: 255}
	if app.Output.OverlayColor != "" {
		c, err := imageio.ParseColor(app.Output.OverlayColor)
		if err != nil {
			return nil, err
		}
		col = c
	}
	return &Config{
		Workers:          app.Batch.Workers,
		ContinueOnError:  app.Batch.ContinueOnError,
		Recursive:        app.Batch.Recursive,
		OutputDir:        app.Batch.OutputDir,
		Format:           format,
		Suffix:           DefaultSuffix,
		Overlay:          app.Output.Overlay,
		OverlayColor:     col,
		ProgressInterval: 100 * time.Millisecond,
	}, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("invalid workers: %d (must be positive)", c.Workers)
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if _, err := imageio.ParseFormat(string(c.Format)); err != nil {
		return err
	}
	return nil
}
