package texmap

import "github.com/MeKo-Tech/quadwarp/internal/geom"

// PixelGenContext is the read-only per-blit state shared by every pixel
// computation. It is built once per Blit call and never mutated.
type PixelGenContext struct {
	quad Quad
	uvs  UVSet

	// rails for the bilinear resolver
	top, bottom geom.Segment

	// split for the barycentric resolver
	diagonal geom.Segment
	sideA    float64       // sign of corner 0 relative to the diagonal
	triA     geom.Triangle // corners 0,1,2
	triB     geom.Triangle // corners 1,3,2

	srcWidth, srcHeight   int
	destWidth, destHeight int
	components            int

	quadMode    rangeMode
	textureMode rangeMode
}

// NewPixelGenContext precomputes rails, diagonal and triangles for quad.
func NewPixelGenContext(quad Quad, uvs UVSet, outOfQuad OutOfQuadPolicy, outOfTexture OutOfTexturePolicy) *PixelGenContext {
	diagonal := geom.NewSegment(quad[TopRight], quad[BottomLeft])
	sideA := 1.0
	if diagonal.Delta.Cross(quad[TopLeft].Sub(diagonal.A)) < 0 {
		// mirrored quad
		sideA = -1
	}
	return &PixelGenContext{
		quad:        quad,
		uvs:         uvs,
		top:         geom.NewSegment(quad[TopLeft], quad[TopRight]),
		bottom:      geom.NewSegment(quad[BottomLeft], quad[BottomRight]),
		diagonal:    diagonal,
		sideA:       sideA,
		triA:        geom.NewTriangle(quad[TopLeft], quad[TopRight], quad[BottomLeft]),
		triB:        geom.NewTriangle(quad[TopRight], quad[BottomRight], quad[BottomLeft]),
		quadMode:    outOfQuad.mode(),
		textureMode: outOfTexture.mode(),
	}
}

func (c *PixelGenContext) withImages(srcW, srcH, destW, destH, components int) *PixelGenContext {
	c.srcWidth, c.srcHeight = srcW, srcH
	c.destWidth, c.destHeight = destW, destH
	c.components = components
	return c
}

// Quad returns the quad corners.
func (c *PixelGenContext) Quad() Quad { return c.quad }

// UVs returns the per-corner texture coordinates.
func (c *PixelGenContext) UVs() UVSet { return c.uvs }

// inTriangleA reports whether p lies on the same side of the 1→2 diagonal
// as corner 0. For the unit quad that is cross(c2-c1, p-c1) > 0. Points
// exactly on the diagonal go to triangle B; both triangles agree there.
func (c *PixelGenContext) inTriangleA(p geom.Vec2) bool {
	return c.diagonal.Delta.Cross(p.Sub(c.diagonal.A))*c.sideA > 0
}

// normalizeQuad applies the out-of-quad policy to a parametric coordinate.
func (c *PixelGenContext) normalizeQuad(v float64) (float64, bool) {
	return normalize(v, c.quadMode)
}
