package texmap

import (
	"fmt"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
)

// Corner indices. Corners are ordered as a quad strip:
//
//	0 ---- 1
//	|      |
//	2 ---- 3
//
// The bilinear resolver uses 0→1 and 2→3 as rails. The barycentric resolver
// splits along the 1→2 diagonal into triangles (0,1,2) and (1,3,2).
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// Quad holds the four corners in normalized destination space, the same
// space as destination ST = (x/destWidth, y/destHeight).
type Quad [4]geom.Vec2

// UVSet assigns a texture coordinate to each quad corner.
type UVSet [4]geom.Vec2

// DefaultUVs maps each corner to the matching corner of the source image.
var DefaultUVs = UVSet{
	TopLeft:     {X: 0, Y: 0},
	TopRight:    {X: 1, Y: 0},
	BottomLeft:  {X: 0, Y: 1},
	BottomRight: {X: 1, Y: 1},
}

// UnitQuad covers the whole destination image.
var UnitQuad = Quad(DefaultUVs)

// QuadFromPixels converts corner handle positions given in destination pixels
// into normalized destination space.
func QuadFromPixels(corners [4]geom.Vec2, destWidth, destHeight int) (Quad, error) {
	if destWidth <= 0 || destHeight <= 0 {
		return Quad{}, contractErr("destination", ErrInvalidDimensions,
			fmt.Sprintf("%dx%d", destWidth, destHeight))
	}
	var q Quad
	w, h := float64(destWidth), float64(destHeight)
	for i, c := range corners {
		q[i] = geom.Vec2{X: c.X / w, Y: c.Y / h}
	}
	return q, nil
}

// ToPixels is the inverse of QuadFromPixels.
func (q Quad) ToPixels(destWidth, destHeight int) [4]geom.Vec2 {
	var out [4]geom.Vec2
	for i, c := range q {
		out[i] = geom.Vec2{X: c.X * float64(destWidth), Y: c.Y * float64(destHeight)}
	}
	return out
}

// Outline returns the corners in perimeter order (TL, TR, BR, BL), suitable
// for drawing the quad as a closed polygon.
func (q Quad) Outline() [4]geom.Vec2 {
	return [4]geom.Vec2{q[TopLeft], q[TopRight], q[BottomRight], q[BottomLeft]}
}
