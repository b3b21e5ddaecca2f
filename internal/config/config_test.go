package config

import (
	"strings"
	"testing"

	"github.com/MeKo-Tech/quadwarp/internal/texmap"
)

// TestDefaultConfig verifies that DefaultConfig returns expected values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Global settings
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected log_level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to be false")
	}

	// Warp defaults
	if cfg.Warp.Resolver != "bilinear" {
		t.Errorf("Expected resolver 'bilinear', got %s", cfg.Warp.Resolver)
	}
	if cfg.Warp.OutOfQuad != "skip" {
		t.Errorf("Expected out_of_quad 'skip', got %s", cfg.Warp.OutOfQuad)
	}
	if cfg.Warp.OutOfTexture != "clamp" {
		t.Errorf("Expected out_of_texture 'clamp', got %s", cfg.Warp.OutOfTexture)
	}
	if cfg.Warp.Components != 4 {
		t.Errorf("Expected components 4, got %d", cfg.Warp.Components)
	}
	if cfg.Warp.MinParallelPixels != texmap.DefaultConfig().MinParallelPixels {
		t.Errorf("Expected min_parallel_pixels %d, got %d",
			texmap.DefaultConfig().MinParallelPixels, cfg.Warp.MinParallelPixels)
	}

	// Output defaults
	if cfg.Output.Format != "png" {
		t.Errorf("Expected output format 'png', got %s", cfg.Output.Format)
	}
	if cfg.Output.OverlayColor != "#FF0000" {
		t.Errorf("Expected overlay color '#FF0000', got %s", cfg.Output.OverlayColor)
	}

	// Server defaults
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected server host 'localhost', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxDestPixels != 4096*4096 {
		t.Errorf("Expected max_dest_pixels %d, got %d", 4096*4096, cfg.Server.MaxDestPixels)
	}

	// Batch defaults
	if cfg.Batch.Workers != 4 {
		t.Errorf("Expected batch workers 4, got %d", cfg.Batch.Workers)
	}
	if cfg.Batch.OutputDir != "warped" {
		t.Errorf("Expected batch output_dir 'warped', got %s", cfg.Batch.OutputDir)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid, got: %v", err)
	}
}

// TestConfigValidation tests configuration validation.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		expectErr string
	}{
		{name: "valid default config", modify: func(*Config) {}},
		{
			name:      "invalid log level",
			modify:    func(c *Config) { c.LogLevel = "verbose" },
			expectErr: "invalid log level",
		},
		{
			name:      "invalid resolver",
			modify:    func(c *Config) { c.Warp.Resolver = "perspective" },
			expectErr: "warp.resolver",
		},
		{
			name:      "invalid out_of_quad",
			modify:    func(c *Config) { c.Warp.OutOfQuad = "mirror" },
			expectErr: "warp.out_of_quad",
		},
		{
			name:      "skip is not a texture policy",
			modify:    func(c *Config) { c.Warp.OutOfTexture = "skip" },
			expectErr: "warp.out_of_texture",
		},
		{
			name:      "zero components",
			modify:    func(c *Config) { c.Warp.Components = 0 },
			expectErr: "warp.components",
		},
		{
			name:      "negative workers",
			modify:    func(c *Config) { c.Warp.Workers = -1 },
			expectErr: "invalid warp config",
		},
		{
			name:      "unknown output format",
			modify:    func(c *Config) { c.Output.Format = "tiff" },
			expectErr: "invalid output format",
		},
		{
			name:      "bad overlay color",
			modify:    func(c *Config) { c.Output.OverlayColor = "#12" },
			expectErr: "invalid overlay color",
		},
		{
			name:      "port too large",
			modify:    func(c *Config) { c.Server.Port = 70000 },
			expectErr: "invalid server port",
		},
		{
			name:      "zero upload limit",
			modify:    func(c *Config) { c.Server.MaxUploadMB = 0 },
			expectErr: "server.max_upload_mb",
		},
		{
			name:      "negative shutdown timeout",
			modify:    func(c *Config) { c.Server.ShutdownTimeout = -1 },
			expectErr: "server.shutdown_timeout",
		},
		{
			name:      "zero max dest pixels",
			modify:    func(c *Config) { c.Server.MaxDestPixels = 0 },
			expectErr: "server.max_dest_pixels",
		},
		{
			name:      "negative rate limit",
			modify:    func(c *Config) { c.Server.RateLimitPerHour = -5 },
			expectErr: "server rate limit",
		},
		{
			name:      "zero batch workers",
			modify:    func(c *Config) { c.Batch.Workers = 0 },
			expectErr: "batch.workers",
		},
		{
			name: "empty format and color are allowed",
			modify: func(c *Config) {
				c.Output.Format = ""
				c.Output.OverlayColor = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.expectErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.expectErr)
			}
			if !strings.Contains(err.Error(), tt.expectErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.expectErr, err)
			}
		})
	}
}

// TestToWarpOptions tests conversion of the warp section to engine types.
func TestToWarpOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warp.Resolver = "Barycentric"
	cfg.Warp.OutOfQuad = "wrap"
	cfg.Warp.OutOfTexture = "WRAP"
	cfg.Warp.Components = 3
	cfg.Warp.DebugUV = true

	opts, err := cfg.ToWarpOptions()
	if err != nil {
		t.Fatalf("ToWarpOptions() error: %v", err)
	}
	if opts.Resolver.Name() != "barycentric" {
		t.Errorf("Expected barycentric resolver, got %s", opts.Resolver.Name())
	}
	if opts.OutOfQuad != texmap.QuadWrap {
		t.Errorf("Expected QuadWrap, got %v", opts.OutOfQuad)
	}
	if opts.OutOfTexture != texmap.TextureWrap {
		t.Errorf("Expected TextureWrap, got %v", opts.OutOfTexture)
	}
	if opts.Components != 3 || !opts.DebugUV {
		t.Errorf("Unexpected options: %+v", opts)
	}
}

// TestWarpOptionsApply tests that Apply fills a request.
func TestWarpOptionsApply(t *testing.T) {
	cfg := DefaultConfig()
	opts, err := cfg.ToWarpOptions()
	if err != nil {
		t.Fatalf("ToWarpOptions() error: %v", err)
	}

	req := texmap.Request{
		Source:     texmap.SourceImage{Width: 1, Height: 1, Components: 1, Pix: []byte{200}},
		DestWidth:  2,
		DestHeight: 2,
		Quad:       texmap.UnitQuad,
	}
	opts.Apply(&req)

	if req.OutOfQuad != texmap.QuadSkip || req.OutOfTexture != texmap.TextureClamp {
		t.Errorf("Apply() did not set policies: %v %v", req.OutOfQuad, req.OutOfTexture)
	}
	if req.Resolver == nil || req.Resolver.Name() != "bilinear" {
		t.Errorf("Apply() did not set the resolver")
	}

	res, err := texmap.Blit(req)
	if err != nil {
		t.Fatalf("Blit() error: %v", err)
	}
	for i, b := range res.Bytes {
		if b != 200 {
			t.Errorf("pixel %d: expected 200, got %d", i, b)
		}
	}
}

// TestToTexmapConfig tests conversion to the engine scheduling config.
func TestToTexmapConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warp.Workers = 3
	cfg.Warp.MinParallelPixels = 10

	tc := cfg.ToTexmapConfig()
	if tc.Workers != 3 || tc.MinParallelPixels != 10 {
		t.Errorf("Unexpected texmap config: %+v", tc)
	}
	if _, err := texmap.NewEngine(tc); err != nil {
		t.Errorf("NewEngine() error: %v", err)
	}
}
