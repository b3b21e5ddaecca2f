package texmap

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
)

// UVResolver maps a destination ST position to a texture UV through the quad.
// The boolean result is false when the out-of-quad policy rejects the point.
type UVResolver interface {
	ResolveUV(c *PixelGenContext, st geom.Vec2) (geom.Vec2, bool)
	Name() string
}

// BilinearQuad treats the top (0→1) and bottom (2→3) edges as rails. The
// point is projected onto both, the rail UVs are interpolated by their ratios,
// and the result is interpolated by the point's position between the two
// nearest rail points. Exact for parallelograms, approximate otherwise.
type BilinearQuad struct{}

// Name implements UVResolver.
func (BilinearQuad) Name() string { return "bilinear" }

// ResolveUV implements UVResolver.
func (BilinearQuad) ResolveUV(c *PixelGenContext, st geom.Vec2) (geom.Vec2, bool) {
	r1, n1 := c.top.Project(st)
	r2, n2 := c.bottom.Project(st)

	r1, ok := c.normalizeQuad(r1)
	if !ok {
		return geom.Vec2{}, false
	}
	r2, ok = c.normalizeQuad(r2)
	if !ok {
		return geom.Vec2{}, false
	}

	uv1 := c.uvs[TopLeft].Lerp(c.uvs[TopRight], r1)
	uv2 := c.uvs[BottomLeft].Lerp(c.uvs[BottomRight], r2)

	t, ok := c.normalizeQuad(geom.RatioAlongSegment(st, n1, n2))
	if !ok {
		return geom.Vec2{}, false
	}
	return uv1.Lerp(uv2, t), true
}

// BarycentricQuad splits the quad along the 1→2 diagonal into triangles
// (0,1,2) and (1,3,2) and interpolates UVs linearly within the triangle that
// contains the point. Exact on each triangle, with a slope change across the
// diagonal.
type BarycentricQuad struct{}

// Name implements UVResolver.
func (BarycentricQuad) Name() string { return "barycentric" }

// ResolveUV implements UVResolver.
//
// Points outside the quad have a parametric coordinate outside [0,1)². That
// coordinate is normalized by the out-of-quad policy and mapped back to UV
// with the same two-triangle split in parametric space.
func (BarycentricQuad) ResolveUV(c *PixelGenContext, st geom.Vec2) (geom.Vec2, bool) {
	uvs := &c.uvs
	var param geom.Vec2
	if c.inTriangleA(st) {
		w0, w1, w2 := c.triA.Weights(st)
		param = geom.Vec2{X: w1, Y: w2}
		if inUnitRange(param) {
			return geom.Interpolate(w0, w1, w2, uvs[TopLeft], uvs[TopRight], uvs[BottomLeft]), true
		}
	} else {
		w1, w3, w2 := c.triB.Weights(st)
		param = geom.Vec2{X: w1 + w3, Y: w3 + w2}
		if inUnitRange(param) {
			return geom.Interpolate(w1, w3, w2, uvs[TopRight], uvs[BottomRight], uvs[BottomLeft]), true
		}
	}

	param, ok := normalize2(param, c.quadMode)
	if !ok {
		return geom.Vec2{}, false
	}
	return uvAtParam(uvs, param), true
}

// uvAtParam maps a quad-parametric coordinate in [0,1)² to UV, using the
// triangle split of the unit square along u+v = 1.
func uvAtParam(uvs *UVSet, p geom.Vec2) geom.Vec2 {
	u, v := p.X, p.Y
	if u+v < 1 {
		return geom.Interpolate(1-u-v, u, v, uvs[TopLeft], uvs[TopRight], uvs[BottomLeft])
	}
	return geom.Interpolate(1-v, u+v-1, 1-u, uvs[TopRight], uvs[BottomRight], uvs[BottomLeft])
}

// ParseResolver returns the resolver registered under name
// ("bilinear" or "barycentric").
func ParseResolver(name string) (UVResolver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bilinear":
		return BilinearQuad{}, nil
	case "barycentric":
		return BarycentricQuad{}, nil
	default:
		return nil, fmt.Errorf("unknown resolver %q (must be one of: bilinear, barycentric)", name)
	}
}
