package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
)

// Config represents the complete configuration for the quadwarp application.
// It includes settings for all commands (warp, batch, serve) and supports
// loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Warp engine configuration
	Warp WarpConfig `mapstructure:"warp" yaml:"warp" json:"warp"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// WarpConfig contains quad mapping settings.
type WarpConfig struct {
	Resolver          string `mapstructure:"resolver" yaml:"resolver" json:"resolver"`
	OutOfQuad         string `mapstructure:"out_of_quad" yaml:"out_of_quad" json:"out_of_quad"`
	OutOfTexture      string `mapstructure:"out_of_texture" yaml:"out_of_texture" json:"out_of_texture"`
	Components        int    `mapstructure:"components" yaml:"components" json:"components"`
	Workers           int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	MinParallelPixels int    `mapstructure:"min_parallel_pixels" yaml:"min_parallel_pixels" json:"min_parallel_pixels"`
	DebugUV           bool   `mapstructure:"debug_uv" yaml:"debug_uv" json:"debug_uv"`
}

// OutputConfig contains output encoding settings.
type OutputConfig struct {
	Format       string `mapstructure:"format" yaml:"format" json:"format"`
	Overlay      bool   `mapstructure:"overlay" yaml:"overlay" json:"overlay"`
	OverlayColor string `mapstructure:"overlay_color" yaml:"overlay_color" json:"overlay_color"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxDestPixels   int    `mapstructure:"max_dest_pixels" yaml:"max_dest_pixels" json:"max_dest_pixels"`

	// Per-client request limits for the warp endpoint (0 = unlimited)
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	RateLimitPerHour   int `mapstructure:"rate_limit_per_hour" yaml:"rate_limit_per_hour" json:"rate_limit_per_hour"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool   `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	engine := texmap.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Warp: WarpConfig{
			Resolver:          "bilinear",
			OutOfQuad:         "skip",
			OutOfTexture:      "clamp",
			Components:        4,
			Workers:           0,
			MinParallelPixels: engine.MinParallelPixels,
			DebugUV:           false,
		},
		Output: OutputConfig{
			Format:       string(imageio.FormatPNG),
			Overlay:      false,
			OverlayColor: "#FF0000",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			MaxDestPixels:   4096 * 4096,
		},
		Batch: BatchConfig{
			Workers:         4,
			Recursive:       false,
			ContinueOnError: false,
			OutputDir:       "warped",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if _, err := c.ToWarpOptions(); err != nil {
		return err
	}
	if err := c.ToTexmapConfig().Validate(); err != nil {
		return fmt.Errorf("invalid warp config: %w", err)
	}

	if c.Output.Format != "" {
		if _, err := imageio.ParseFormat(c.Output.Format); err != nil {
			return fmt.Errorf("invalid output format: %w", err)
		}
	}
	if c.Output.OverlayColor != "" {
		if _, err := imageio.ParseColor(c.Output.OverlayColor); err != nil {
			return fmt.Errorf("invalid overlay color: %w", err)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if err := validatePositive(c.Server.MaxUploadMB, "server.max_upload_mb"); err != nil {
		return err
	}
	if err := validatePositive(c.Server.TimeoutSec, "server.timeout_sec"); err != nil {
		return err
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid server.shutdown_timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}
	if err := validatePositive(c.Server.MaxDestPixels, "server.max_dest_pixels"); err != nil {
		return err
	}
	if c.Server.RateLimitPerMinute < 0 || c.Server.RateLimitPerHour < 0 {
		return fmt.Errorf("invalid server rate limit: %d/min, %d/hour (must not be negative)",
			c.Server.RateLimitPerMinute, c.Server.RateLimitPerHour)
	}
	if err := validatePositive(c.Batch.Workers, "batch.workers"); err != nil {
		return err
	}

	return nil
}

// WarpOptions are the per-request engine settings parsed from WarpConfig.
type WarpOptions struct {
	Resolver     texmap.UVResolver
	OutOfQuad    texmap.OutOfQuadPolicy
	OutOfTexture texmap.OutOfTexturePolicy
	Components   int
	DebugUV      bool
}

// Apply copies the options onto req.
func (o WarpOptions) Apply(req *texmap.Request) {
	req.Resolver = o.Resolver
	req.OutOfQuad = o.OutOfQuad
	req.OutOfTexture = o.OutOfTexture
	req.DebugUV = o.DebugUV
}

// ToWarpOptions parses the warp section into engine types.
func (c *Config) ToWarpOptions() (WarpOptions, error) {
	resolver, err := texmap.ParseResolver(c.Warp.Resolver)
	if err != nil {
		return WarpOptions{}, fmt.Errorf("invalid warp.resolver: %w", err)
	}
	oq, err := texmap.ParseOutOfQuadPolicy(c.Warp.OutOfQuad)
	if err != nil {
		return WarpOptions{}, fmt.Errorf("invalid warp.out_of_quad: %w", err)
	}
	ot, err := texmap.ParseOutOfTexturePolicy(c.Warp.OutOfTexture)
	if err != nil {
		return WarpOptions{}, fmt.Errorf("invalid warp.out_of_texture: %w", err)
	}
	if c.Warp.Components < 1 || c.Warp.Components > 4 {
		return WarpOptions{}, fmt.Errorf("invalid warp.components: %d (must be between 1 and 4)", c.Warp.Components)
	}
	return WarpOptions{
		Resolver:     resolver,
		OutOfQuad:    oq,
		OutOfTexture: ot,
		Components:   c.Warp.Components,
		DebugUV:      c.Warp.DebugUV,
	}, nil
}

// ToTexmapConfig converts the warp section to the engine scheduling configuration.
func (c *Config) ToTexmapConfig() texmap.Config {
	return texmap.Config{
		Workers:           c.Warp.Workers,
		MinParallelPixels: c.Warp.MinParallelPixels,
	}
}

// Helper functions

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validatePositive validates that a value is strictly positive.
func validatePositive(value int, name string) error {
	if value <= 0 {
		return fmt.Errorf("invalid %s: %d (must be positive)", name, value)
	}
	return nil
}
