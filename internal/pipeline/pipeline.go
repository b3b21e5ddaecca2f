// Package pipeline turns decoded images into warped destinations. It owns the
// settings shared by the CLI, the batch runner and the server: corner handles,
// destination size, engine options and an optional source fit.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/geom"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
)

// CornerSpace names the coordinate system corner handles are given in.
type CornerSpace string

const (
	// SpacePixels means corners are destination pixel positions.
	SpacePixels CornerSpace = "pixels"
	// SpaceUnit means corners are already normalized to [0,1] of the destination.
	SpaceUnit CornerSpace = "unit"
)

// ParseCornerSpace parses "pixels" or "unit" (case-insensitive).
func ParseCornerSpace(s string) (CornerSpace, error) {
	switch CornerSpace(strings.ToLower(strings.TrimSpace(s))) {
	case SpacePixels:
		return SpacePixels, nil
	case SpaceUnit:
		return SpaceUnit, nil
	default:
		return "", fmt.Errorf("invalid corner space %q (must be one of: pixels, unit)", s)
	}
}

// Config holds everything needed to warp an image.
type Config struct {
	Corners [4]geom.Vec2
	Space   CornerSpace

	// Destination size; 0 takes the (fitted) source size.
	DestWidth  int
	DestHeight int

	UVs          *texmap.UVSet
	Resolver     texmap.UVResolver
	OutOfQuad    texmap.OutOfQuadPolicy
	OutOfTexture texmap.OutOfTexturePolicy
	Components   int
	DebugUV      bool

	// Source images larger than FitWidth x FitHeight are downscaled first (0 = off).
	FitWidth  int
	FitHeight int

	Engine    texmap.Config
	Allocator texmap.Allocator
}

// DefaultConfig maps the whole source onto the whole destination.
func DefaultConfig() Config {
	return Config{
		Corners:      [4]geom.Vec2(texmap.UnitQuad),
		Space:        SpaceUnit,
		Resolver:     texmap.BilinearQuad{},
		OutOfQuad:    texmap.QuadSkip,
		OutOfTexture: texmap.TextureClamp,
		Components:   4,
		Engine:       texmap.DefaultConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithCorners sets the four corner handles (TL, TR, BL, BR) and their space.
func (b *Builder) WithCorners(corners [4]geom.Vec2, space CornerSpace) *Builder {
	b.cfg.Corners = corners
	b.cfg.Space = space
	return b
}

// WithDestSize sets the destination size. Zero keeps the source size.
func (b *Builder) WithDestSize(width, height int) *Builder {
	b.cfg.DestWidth = width
	b.cfg.DestHeight = height
	return b
}

// WithUVs sets per-corner texture coordinates. Nil restores the defaults.
func (b *Builder) WithUVs(uvs *texmap.UVSet) *Builder {
	b.cfg.UVs = uvs
	return b
}

// WithResolver selects the UV resolution algorithm.
func (b *Builder) WithResolver(r texmap.UVResolver) *Builder {
	if r != nil {
		b.cfg.Resolver = r
	}
	return b
}

// WithPolicies sets the out-of-quad and out-of-texture policies.
func (b *Builder) WithPolicies(oq texmap.OutOfQuadPolicy, ot texmap.OutOfTexturePolicy) *Builder {
	b.cfg.OutOfQuad = oq
	b.cfg.OutOfTexture = ot
	return b
}

// WithComponents sets how many byte components per pixel are warped.
func (b *Builder) WithComponents(n int) *Builder {
	b.cfg.Components = n
	return b
}

// WithDebugUV renders the resolved UV field instead of sampling.
func (b *Builder) WithDebugUV(enabled bool) *Builder {
	b.cfg.DebugUV = enabled
	return b
}

// WithWarpOptions copies resolver, policies, components and debug mode from
// parsed configuration.
func (b *Builder) WithWarpOptions(o config.WarpOptions) *Builder {
	return b.WithResolver(o.Resolver).
		WithPolicies(o.OutOfQuad, o.OutOfTexture).
		WithComponents(o.Components).
		WithDebugUV(o.DebugUV)
}

// WithFit downscales sources to fit within width x height before warping.
func (b *Builder) WithFit(width, height int) *Builder {
	b.cfg.FitWidth = width
	b.cfg.FitHeight = height
	return b
}

// WithEngineConfig sets the row-band scheduling of the blit engine.
func (b *Builder) WithEngineConfig(cfg texmap.Config) *Builder {
	b.cfg.Engine = cfg
	return b
}

// WithAllocator sets the destination allocator.
func (b *Builder) WithAllocator(a texmap.Allocator) *Builder {
	b.cfg.Allocator = a
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks the configuration before any image is touched.
func (b *Builder) Validate() error {
	return b.cfg.validate()
}

func (c *Config) validate() error {
	if c.Space != SpacePixels && c.Space != SpaceUnit {
		return fmt.Errorf("invalid corner space %q", c.Space)
	}
	for i, p := range c.Corners {
		if !p.IsFinite() {
			return fmt.Errorf("corner %d is not finite: %v", i, p)
		}
	}
	if c.DestWidth < 0 || c.DestHeight < 0 {
		return fmt.Errorf("destination size must not be negative: %dx%d", c.DestWidth, c.DestHeight)
	}
	if c.FitWidth < 0 || c.FitHeight < 0 {
		return fmt.Errorf("fit size must not be negative: %dx%d", c.FitWidth, c.FitHeight)
	}
	if c.Components < 1 || c.Components > 4 {
		return fmt.Errorf("%w: got %d", texmap.ErrComponentCount, c.Components)
	}
	if !c.OutOfQuad.Valid() {
		return fmt.Errorf("%w: out-of-quad %v", texmap.ErrInvalidPolicy, c.OutOfQuad)
	}
	if !c.OutOfTexture.Valid() {
		return fmt.Errorf("%w: out-of-texture %v", texmap.ErrInvalidPolicy, c.OutOfTexture)
	}
	if c.UVs != nil {
		for i, uv := range c.UVs {
			if !uv.IsFinite() {
				return fmt.Errorf("uv %d is not finite: %v", i, uv)
			}
		}
	}
	return c.Engine.Validate()
}

// Pipeline warps images with a fixed configuration. It is safe for
// concurrent use.
type Pipeline struct {
	cfg    Config
	engine *texmap.Engine
}

// Build validates the configuration and creates the blit engine.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	engine, err := texmap.NewEngine(b.cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	return &Pipeline{cfg: b.cfg, engine: engine}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Builder returns a builder seeded with p's configuration, for deriving
// pipelines with per-request overrides.
func (p *Pipeline) Builder() *Builder { return &Builder{cfg: p.cfg} }

// WithCorners returns a pipeline sharing p's engine and options but using
// different corner handles. Used for every move of an interactive drag.
func (p *Pipeline) WithCorners(corners [4]geom.Vec2, space CornerSpace) (*Pipeline, error) {
	cfg := p.cfg
	cfg.Corners = corners
	cfg.Space = space
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, engine: p.engine}, nil
}

// DestSize returns the destination size for a source of srcWidth x srcHeight.
func (p *Pipeline) DestSize(srcWidth, srcHeight int) (int, int) {
	if p.cfg.DestWidth > 0 && p.cfg.DestHeight > 0 {
		return p.cfg.DestWidth, p.cfg.DestHeight
	}
	w, h := srcWidth, srcHeight
	if p.cfg.DestWidth > 0 {
		w = p.cfg.DestWidth
	}
	if p.cfg.DestHeight > 0 {
		h = p.cfg.DestHeight
	}
	return w, h
}

// Quad converts the configured corners into normalized destination space.
func (p *Pipeline) Quad(destWidth, destHeight int) (texmap.Quad, error) {
	if p.cfg.Space == SpaceUnit {
		return texmap.Quad(p.cfg.Corners), nil
	}
	return texmap.QuadFromPixels(p.cfg.Corners, destWidth, destHeight)
}

// Request builds the blit request for src.
func (p *Pipeline) Request(src texmap.SourceImage) (texmap.Request, error) {
	dw, dh := p.DestSize(src.Width, src.Height)
	quad, err := p.Quad(dw, dh)
	if err != nil {
		return texmap.Request{}, err
	}
	return texmap.Request{
		Source:       src,
		DestWidth:    dw,
		DestHeight:   dh,
		Quad:         quad,
		UVs:          p.cfg.UVs,
		OutOfQuad:    p.cfg.OutOfQuad,
		OutOfTexture: p.cfg.OutOfTexture,
		Resolver:     p.cfg.Resolver,
		Allocator:    p.cfg.Allocator,
		DebugUV:      p.cfg.DebugUV,
	}, nil
}

// Info returns a map with key pipeline properties.
func (p *Pipeline) Info() map[string]interface{} {
	resolver := "bilinear"
	if p.cfg.Resolver != nil {
		resolver = p.cfg.Resolver.Name()
	}
	return map[string]interface{}{
		"corners":        FormatCorners(p.cfg.Corners),
		"space":          string(p.cfg.Space),
		"dest_width":     p.cfg.DestWidth,
		"dest_height":    p.cfg.DestHeight,
		"resolver":       resolver,
		"out_of_quad":    p.cfg.OutOfQuad.String(),
		"out_of_texture": p.cfg.OutOfTexture.String(),
		"components":     p.cfg.Components,
		"debug_uv":       p.cfg.DebugUV,
		"workers":        p.cfg.Engine.Workers,
	}
}
