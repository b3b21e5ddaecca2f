package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
)

// warpParams are per-request overrides of the server defaults. Empty or
// zero fields keep the default.
type warpParams struct {
	Corners      string `json:"corners,omitempty"`
	Space        string `json:"space,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	UVs          string `json:"uvs,omitempty"`
	Resolver     string `json:"resolver,omitempty"`
	OutOfQuad    string `json:"out_of_quad,omitempty"`
	OutOfTexture string `json:"out_of_texture,omitempty"`
	Components   int    `json:"components,omitempty"`
	DebugUV      *bool  `json:"debug_uv,omitempty"`
	Format       string `json:"format,omitempty"`
	Overlay      *bool  `json:"overlay,omitempty"`
}

// paramsFromRequest reads warp parameters from form or query values.
func paramsFromRequest(r *http.Request) (warpParams, error) {
	p := warpParams{
		Corners:      r.FormValue("corners"),
		Space:        r.FormValue("space"),
		UVs:          r.FormValue("uvs"),
		Resolver:     r.FormValue("resolver"),
		OutOfQuad:    r.FormValue("out_of_quad"),
		OutOfTexture: r.FormValue("out_of_texture"),
		Format:       r.FormValue("format"),
	}
	var err error
	if p.Width, err = formInt(r, "width"); err != nil {
		return p, err
	}
	if p.Height, err = formInt(r, "height"); err != nil {
		return p, err
	}
	if p.Components, err = formInt(r, "components"); err != nil {
		return p, err
	}
	if p.DebugUV, err = formBool(r, "debug_uv"); err != nil {
		return p, err
	}
	if p.Overlay, err = formBool(r, "overlay"); err != nil {
		return p, err
	}
	return p, nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func formBool(r *http.Request, key string) (*bool, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, v)
	}
	return &b, nil
}

// apply layers the overrides onto b. Corners given without a space are
// taken as destination pixels.
func (p warpParams) apply(b *pipeline.Builder) error {
	if p.Corners != "" {
		corners, err := pipeline.ParseCorners(p.Corners)
		if err != nil {
			return err
		}
		space := pipeline.SpacePixels
		if p.Space != "" {
			if space, err = pipeline.ParseCornerSpace(p.Space); err != nil {
				return err
			}
		}
		b.WithCorners(corners, space)
	}
	if p.Width != 0 || p.Height != 0 {
		b.WithDestSize(p.Width, p.Height)
	}
	if p.UVs != "" {
		uvs, err := pipeline.ParseUVs(p.UVs)
		if err != nil {
			return err
		}
		b.WithUVs(uvs)
	}
	if p.Resolver != "" {
		r, err := texmap.ParseResolver(p.Resolver)
		if err != nil {
			return err
		}
		b.WithResolver(r)
	}
	cfg := b.Config()
	oq, ot := cfg.OutOfQuad, cfg.OutOfTexture
	var err error
	if p.OutOfQuad != "" {
		if oq, err = texmap.ParseOutOfQuadPolicy(p.OutOfQuad); err != nil {
			return err
		}
	}
	if p.OutOfTexture != "" {
		if ot, err = texmap.ParseOutOfTexturePolicy(p.OutOfTexture); err != nil {
			return err
		}
	}
	b.WithPolicies(oq, ot)
	if p.Components != 0 {
		b.WithComponents(p.Components)
	}
	if p.DebugUV != nil {
		b.WithDebugUV(*p.DebugUV)
	}
	return b.Validate()
}

// pipelineFor derives a pipeline from base with the request overrides.
func (p warpParams) pipelineFor(base *pipeline.Pipeline) (*pipeline.Pipeline, error) {
	b := base.Builder()
	if err := p.apply(b); err != nil {
		return nil, err
	}
	return b.Build()
}

// format resolves the output format, falling back to def.
func (p warpParams) format(def imageio.Format) (imageio.Format, error) {
	if p.Format == "" {
		return def, nil
	}
	return imageio.ParseFormat(p.Format)
}

// overlay resolves the overlay switch, falling back to def.
func (p warpParams) overlay(def bool) bool {
	if p.Overlay == nil {
		return def
	}
	return *p.Overlay
}
