package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/v1/warp?corners=0,0%3B4,0%3B0,4%3B4,4&width=12&height=8&components=3&debug_uv=true&overlay=0&resolver=barycentric", nil)
	p, err := paramsFromRequest(req)
	require.NoError(t, err)

	assert.Equal(t, "0,0;4,0;0,4;4,4", p.Corners)
	assert.Equal(t, 12, p.Width)
	assert.Equal(t, 8, p.Height)
	assert.Equal(t, 3, p.Components)
	require.NotNil(t, p.DebugUV)
	assert.True(t, *p.DebugUV)
	require.NotNil(t, p.Overlay)
	assert.False(t, p.overlay(true))
	assert.Equal(t, "barycentric", p.Resolver)

	for _, query := range []string{"height=tall", "components=x", "debug_uv=maybe", "overlay=2"} {
		_, err := paramsFromRequest(httptest.NewRequest(http.MethodGet, "/v1/warp?"+query, nil))
		assert.Error(t, err, query)
	}
}

func TestWarpParams_PipelineFor(t *testing.T) {
	base, err := pipeline.NewBuilder().Build()
	require.NoError(t, err)

	t.Run("empty keeps defaults", func(t *testing.T) {
		pl, err := warpParams{}.pipelineFor(base)
		require.NoError(t, err)
		assert.Equal(t, base.Config().Corners, pl.Config().Corners)
		assert.Equal(t, texmap.QuadSkip, pl.Config().OutOfQuad)
		assert.Equal(t, 4, pl.Config().Components)
	})

	t.Run("overrides", func(t *testing.T) {
		debug := true
		pl, err := warpParams{
			Corners:      "1,2;3,2;1,4;3,4",
			Width:        10,
			UVs:          "0,0;2,0;0,2;2,2",
			Resolver:     "barycentric",
			OutOfQuad:    "wrap",
			OutOfTexture: "wrap",
			Components:   2,
			DebugUV:      &debug,
		}.pipelineFor(base)
		require.NoError(t, err)

		cfg := pl.Config()
		assert.Equal(t, pipeline.SpacePixels, cfg.Space)
		assert.Equal(t, geom.V2(3, 4), cfg.Corners[texmap.BottomRight])
		assert.Equal(t, 10, cfg.DestWidth)
		require.NotNil(t, cfg.UVs)
		assert.Equal(t, geom.V2(2, 2), cfg.UVs[texmap.BottomRight])
		assert.Equal(t, "barycentric", cfg.Resolver.Name())
		assert.Equal(t, texmap.QuadWrap, cfg.OutOfQuad)
		assert.Equal(t, texmap.TextureWrap, cfg.OutOfTexture)
		assert.Equal(t, 2, cfg.Components)
		assert.True(t, cfg.DebugUV)

		// The base pipeline is untouched.
		assert.Equal(t, texmap.QuadSkip, base.Config().OutOfQuad)
	})

	t.Run("unit space", func(t *testing.T) {
		pl, err := warpParams{Corners: "0,0;0.5,0;0,1;0.5,1", Space: "unit"}.pipelineFor(base)
		require.NoError(t, err)
		assert.Equal(t, pipeline.SpaceUnit, pl.Config().Space)
	})

	errorCases := map[string]warpParams{
		"corners":        {Corners: "1,2"},
		"space":          {Corners: "0,0;1,0;0,1;1,1", Space: "feet"},
		"uvs":            {UVs: "0,0"},
		"resolver":       {Resolver: "nearest"},
		"out of quad":    {OutOfQuad: "mirror"},
		"out of texture": {OutOfTexture: "skip"},
		"components":     {Components: 7},
		"negative width": {Width: -3},
	}
	for name, p := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := p.pipelineFor(base)
			assert.Error(t, err)
		})
	}
}

func TestWarpParams_Format(t *testing.T) {
	f, err := warpParams{}.format(imageio.FormatWebP)
	require.NoError(t, err)
	assert.Equal(t, imageio.FormatWebP, f)

	f, err = warpParams{Format: "JPG"}.format(imageio.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, imageio.FormatJPEG, f)

	_, err = warpParams{Format: "tiff"}.format(imageio.FormatPNG)
	assert.Error(t, err)

	assert.True(t, warpParams{}.overlay(true))
}
