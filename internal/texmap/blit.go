// Package texmap resamples a source image into a destination image through a
// user-positioned quadrilateral.
//
// Every destination pixel (x, y) is turned into ST = (x/destWidth, y/destHeight),
// mapped through the quad to a texture UV by a UVResolver, normalized by the
// out-of-quad and out-of-texture policies and finally sampled nearest-neighbour
// from the source. Pixels are independent, so the loop runs in parallel row
// bands.
package texmap

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
)

// SourceImage is a tightly packed, row-major image with 1 to 4 byte
// components per pixel.
type SourceImage struct {
	Width      int
	Height     int
	Components int
	Pix        []byte
}

// Request describes one blit.
type Request struct {
	Source SourceImage

	DestWidth  int
	DestHeight int

	// Quad corners in normalized destination space. See QuadFromPixels.
	Quad Quad
	// UVs per corner. Nil means DefaultUVs.
	UVs *UVSet

	OutOfQuad    OutOfQuadPolicy
	OutOfTexture OutOfTexturePolicy

	// Resolver defaults to BilinearQuad.
	Resolver UVResolver
	// Allocator defaults to DefaultAllocator.
	Allocator Allocator

	// DebugUV writes a colour encoding of the resolved UV instead of sampling.
	DebugUV bool
}

// Result is the filled destination.
type Result struct {
	Bytes      []byte
	ByteCount  int
	Ownership  Ownership
	Width      int
	Height     int
	Components int
	Stats      Stats

	releaser Releaser
}

// Release hands a caller-owned buffer back to its allocator. It is a no-op
// for engine-owned buffers and safe to call more than once.
func (r *Result) Release() {
	if r == nil || r.Bytes == nil {
		return
	}
	if r.Ownership == OwnershipCaller && r.releaser != nil {
		r.releaser.Release(r.Bytes)
	}
	r.Bytes = nil
}

// Engine runs blits with a fixed scheduling configuration. It holds no
// per-blit state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine from cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

var defaultEngine = &Engine{cfg: DefaultConfig()}

// Blit runs req on an engine with DefaultConfig.
func Blit(req Request) (*Result, error) {
	return defaultEngine.Blit(req)
}

func (req *Request) validate() error {
	src := req.Source
	if src.Width <= 0 || src.Height <= 0 {
		return contractErr("source", ErrInvalidDimensions, fmt.Sprintf("%dx%d", src.Width, src.Height))
	}
	if req.DestWidth <= 0 || req.DestHeight <= 0 {
		return contractErr("destination", ErrInvalidDimensions, fmt.Sprintf("%dx%d", req.DestWidth, req.DestHeight))
	}
	if src.Components < 1 || src.Components > 4 {
		return contractErr("components", ErrComponentCount, fmt.Sprintf("got %d", src.Components))
	}
	if !fitsInt(src.Width, src.Height, src.Components) {
		return contractErr("source", ErrInvalidDimensions,
			fmt.Sprintf("%dx%dx%d bytes overflow int", src.Width, src.Height, src.Components))
	}
	if !fitsInt(req.DestWidth, req.DestHeight, src.Components) {
		return contractErr("destination", ErrInvalidDimensions,
			fmt.Sprintf("%dx%dx%d bytes overflow int", req.DestWidth, req.DestHeight, src.Components))
	}
	if want := src.Width * src.Height * src.Components; len(src.Pix) != want {
		return contractErr("source", ErrByteCountMismatch, fmt.Sprintf("want %d bytes, got %d", want, len(src.Pix)))
	}
	if !req.OutOfQuad.Valid() {
		return contractErr("out_of_quad", ErrInvalidPolicy, req.OutOfQuad.String())
	}
	if !req.OutOfTexture.Valid() {
		return contractErr("out_of_texture", ErrInvalidPolicy, req.OutOfTexture.String())
	}
	return nil
}

// fitsInt reports whether w*h*c fits in an int. All arguments are positive.
func fitsInt(w, h, c int) bool {
	return w <= math.MaxInt/h/c
}

// Blit validates req, allocates the destination and fills it. Contract
// violations are returned as *ContractError before any pixel is touched.
func (e *Engine) Blit(req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	uvs := DefaultUVs
	if req.UVs != nil {
		uvs = *req.UVs
	}
	resolver := req.Resolver
	if resolver == nil {
		resolver = BilinearQuad{}
	}
	alloc := req.Allocator
	if alloc == nil {
		alloc = DefaultAllocator
	}

	comps := req.Source.Components
	need := req.DestWidth * req.DestHeight * comps

	a, err := alloc.Allocate(req.DestWidth*req.DestHeight, comps)
	if err != nil {
		return nil, fmt.Errorf("texmap: allocate destination: %w", err)
	}
	releaser, _ := alloc.(Releaser)
	if a.Ownership != OwnershipEngine && a.Ownership != OwnershipCaller {
		return nil, contractErr("allocator", ErrOwnershipUnset, a.Ownership.String())
	}
	if len(a.Bytes) < need {
		if a.Ownership == OwnershipCaller && releaser != nil {
			releaser.Release(a.Bytes)
		}
		return nil, contractErr("allocator", ErrDestinationTooSmall, fmt.Sprintf("want %d bytes, got %d", need, len(a.Bytes)))
	}
	dst := a.Bytes[:need]

	ctx := NewPixelGenContext(req.Quad, uvs, req.OutOfQuad, req.OutOfTexture).
		withImages(req.Source.Width, req.Source.Height, req.DestWidth, req.DestHeight, comps)

	workers := e.cfg.workerCount()
	if req.DestWidth*req.DestHeight < e.cfg.MinParallelPixels {
		workers = 1
	}
	stats := parallelRows(req.DestHeight, workers, func(y0, y1 int) Stats {
		return ctx.renderRows(resolver, req.Source.Pix, dst, y0, y1, req.DebugUV)
	})

	slog.Debug("Blit complete",
		"resolver", resolver.Name(),
		"src_width", req.Source.Width, "src_height", req.Source.Height,
		"dest_width", req.DestWidth, "dest_height", req.DestHeight,
		"components", comps,
		"written", stats.Written, "skipped", stats.Skipped,
		"workers", workers)

	return &Result{
		Bytes:      dst,
		ByteCount:  need,
		Ownership:  a.Ownership,
		Width:      req.DestWidth,
		Height:     req.DestHeight,
		Components: comps,
		Stats:      stats,
		releaser:   releaser,
	}, nil
}

// renderRows fills destination rows [y0, y1).
func (c *PixelGenContext) renderRows(r UVResolver, src, dst []byte, y0, y1 int, debugUV bool) Stats {
	var s Stats
	fw := float64(c.destWidth)
	fh := float64(c.destHeight)
	for y := y0; y < y1; y++ {
		sty := float64(y) / fh
		off := y * c.destWidth * c.components
		for x := 0; x < c.destWidth; x, off = x+1, off+c.components {
			uv, ok := r.ResolveUV(c, geom.Vec2{X: float64(x) / fw, Y: sty})
			if ok {
				if debugUV {
					c.writeDebugUV(uv, dst, off)
				} else {
					ok = c.sample(uv, src, dst, off)
				}
			}
			if ok {
				s.Written++
			} else {
				s.Skipped++
			}
		}
	}
	return s
}
