package benchmark

import (
	"fmt"

	"github.com/MeKo-Tech/quadwarp/internal/texmap"
)

// BlitOptions selects the workloads NewBlitSuite registers.
type BlitOptions struct {
	Width      int
	Height     int
	Components int
	Workers    int // 0 = runtime.NumCPU()
	Resolvers  []string
	Pooled     bool // Use texmap.PoolAllocator and release every result
}

// DefaultBlitOptions benchmarks both resolvers on a 512x512 RGBA image.
func DefaultBlitOptions() BlitOptions {
	return BlitOptions{
		Width:      512,
		Height:     512,
		Components: 4,
		Resolvers:  []string{"bilinear", "barycentric"},
	}
}

// benchQuads are the shapes every resolver is timed against.
var benchQuads = []struct {
	name string
	quad texmap.Quad
}{
	{"identity", texmap.UnitQuad},
	{"trapezoid", texmap.Quad{{X: 0.2, Y: 0}, {X: 0.8, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}},
	{"inset", texmap.Quad{{X: 0.1, Y: 0.15}, {X: 0.85, Y: 0.05}, {X: 0.2, Y: 0.9}, {X: 0.95, Y: 0.8}}},
}

// NewBlitSuite registers one case per resolver and quad shape. Case names
// look like "bilinear/trapezoid".
func NewBlitSuite(opts BlitOptions) (*Suite, error) {
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("invalid benchmark size %dx%d", opts.Width, opts.Height)
	}
	if opts.Components < 1 || opts.Components > 4 {
		return nil, fmt.Errorf("invalid component count %d (must be 1-4)", opts.Components)
	}

	cfg := texmap.DefaultConfig()
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	engine, err := texmap.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	src := texmap.SourceImage{
		Width:      opts.Width,
		Height:     opts.Height,
		Components: opts.Components,
		Pix:        gradient(opts.Width, opts.Height, opts.Components),
	}

	var alloc texmap.Allocator
	if opts.Pooled {
		alloc = texmap.PoolAllocator{}
	}

	suite := NewSuite()
	for _, name := range opts.Resolvers {
		resolver, err := texmap.ParseResolver(name)
		if err != nil {
			return nil, err
		}
		for _, q := range benchQuads {
			req := texmap.Request{
				Source:       src,
				DestWidth:    opts.Width,
				DestHeight:   opts.Height,
				Quad:         q.quad,
				OutOfQuad:    texmap.QuadSkip,
				OutOfTexture: texmap.TextureClamp,
				Resolver:     resolver,
				Allocator:    alloc,
			}
			suite.Add(resolver.Name()+"/"+q.name, func() (int, error) {
				res, err := engine.Blit(req)
				if err != nil {
					return 0, err
				}
				defer res.Release()
				return res.Width * res.Height, nil
			})
		}
	}
	return suite, nil
}

// QuadShapes lists the shape names NewBlitSuite uses.
func QuadShapes() []string {
	names := make([]string, len(benchQuads))
	for i, q := range benchQuads {
		names[i] = q.name
	}
	return names
}

// gradient fills a source with a diagonal ramp so sampling touches distinct texels.
func gradient(width, height, components int) []byte {
	pix := make([]byte, width*height*components)
	for i := range pix {
		p := i / components
		pix[i] = byte((p%width + p/width + i%components*64) & 0xff)
	}
	return pix
}
