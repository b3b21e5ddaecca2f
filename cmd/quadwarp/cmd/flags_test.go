package cmd

import (
	"testing"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/geom"
	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCommand(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addQuadFlags(c)
	addWarpOptionFlags(c)
	for name, value := range flags {
		require.NoError(t, c.Flags().Set(name, value), name)
	}
	return c
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"800x600", 800, 600, false},
		{" 64X32 ", 64, 32, false},
		{"800", 0, 0, true},
		{"0x10", 0, 0, true},
		{"ax10", 0, 0, true},
		{"10x-2", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := parseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}

func TestApplyWarpOptionFlags(t *testing.T) {
	c := newFlagCommand(t, map[string]string{
		"resolver":      "barycentric",
		"out-of-quad":   "wrap",
		"components":    "2",
		"threads":       "3",
		"format":        "webp",
		"overlay":       "true",
		"overlay-color": "#00FF00",
	})
	cfg := config.DefaultConfig()
	applyWarpOptionFlags(c, &cfg)

	assert.Equal(t, "barycentric", cfg.Warp.Resolver)
	assert.Equal(t, "wrap", cfg.Warp.OutOfQuad)
	assert.Equal(t, "clamp", cfg.Warp.OutOfTexture, "unchanged flags keep the configured value")
	assert.Equal(t, 2, cfg.Warp.Components)
	assert.Equal(t, 3, cfg.Warp.Workers)
	assert.Equal(t, "webp", cfg.Output.Format)
	assert.True(t, cfg.Output.Overlay)
	assert.Equal(t, "#00FF00", cfg.Output.OverlayColor)
}

func TestBuildPipeline(t *testing.T) {
	t.Run("defaults map the whole source", func(t *testing.T) {
		cfg := config.DefaultConfig()
		pl, err := buildPipeline(newFlagCommand(t, nil), &cfg)
		require.NoError(t, err)
		pc := pl.Config()
		assert.Equal(t, [4]geom.Vec2(texmap.UnitQuad), pc.Corners)
		assert.Equal(t, pipeline.SpaceUnit, pc.Space)
		assert.Equal(t, texmap.QuadSkip, pc.OutOfQuad)
		assert.IsType(t, texmap.PoolAllocator{}, pc.Allocator)
	})

	t.Run("quad flags", func(t *testing.T) {
		cfg := config.DefaultConfig()
		pl, err := buildPipeline(newFlagCommand(t, map[string]string{
			"corners": "1,2;3,2;1,4;3,4",
			"width":   "10",
			"height":  "12",
			"uvs":     "0,0;2,0;0,2;2,2",
			"fit":     "100x50",
		}), &cfg)
		require.NoError(t, err)
		pc := pl.Config()
		assert.Equal(t, pipeline.SpacePixels, pc.Space)
		assert.Equal(t, geom.V2(3, 4), pc.Corners[texmap.BottomRight])
		assert.Equal(t, 10, pc.DestWidth)
		assert.Equal(t, 12, pc.DestHeight)
		require.NotNil(t, pc.UVs)
		assert.Equal(t, 100, pc.FitWidth)
		assert.Equal(t, 50, pc.FitHeight)
	})

	errorCases := map[string]map[string]string{
		"corners":  {"corners": "1,2;3,4"},
		"space":    {"space": "inches"},
		"uvs":      {"uvs": "0,0"},
		"fit":      {"fit": "big"},
		"width":    {"width": "-1"},
		"resolver": {"resolver": "nearest"},
	}
	for name, flags := range errorCases {
		t.Run(name, func(t *testing.T) {
			c := newFlagCommand(t, flags)
			cfg := config.DefaultConfig()
			applyWarpOptionFlags(c, &cfg)
			_, err := buildPipeline(c, &cfg)
			assert.Error(t, err)
		})
	}
}

func TestOutputFormat(t *testing.T) {
	cfg := config.DefaultConfig()

	f, err := outputFormat(newFlagCommand(t, nil), &cfg, "out.jpg")
	require.NoError(t, err)
	assert.Equal(t, imageio.FormatJPEG, f)

	f, err = outputFormat(newFlagCommand(t, nil), &cfg, "out.bin")
	require.NoError(t, err)
	assert.Equal(t, imageio.FormatPNG, f)

	c := newFlagCommand(t, map[string]string{"format": "raw"})
	applyWarpOptionFlags(c, &cfg)
	f, err = outputFormat(c, &cfg, "out.png")
	require.NoError(t, err)
	assert.Equal(t, imageio.FormatRaw, f, "--format wins over the extension")

	cfg.Output.Format = "gif"
	_, err = outputFormat(newFlagCommand(t, nil), &cfg, "")
	assert.Error(t, err)
}
