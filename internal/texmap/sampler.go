package texmap

import (
	"math"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
)

// texelSnapULPs is how far below an integer u*size may round and still be
// treated as that integer, so x/w*w lands on texel x and not x-1.
const texelSnapULPs = 4

// texelIndex converts a normalized coordinate in [0,1) into the texel index
// floor(u*size), clamped to [0, size-1].
func texelIndex(u float64, size int) int {
	f := u * float64(size)
	if c := math.Ceil(f); c-f <= texelSnapULPs*(math.Nextafter(c, math.Inf(1))-c) {
		f = c
	}
	i := int(math.Floor(f))
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// sample copies the texel addressed by uv into dst[off:off+components].
// It returns false when the out-of-texture policy rejects uv, which only
// happens for non-finite coordinates.
func (c *PixelGenContext) sample(uv geom.Vec2, src, dst []byte, off int) bool {
	n, ok := normalize2(uv, c.textureMode)
	if !ok {
		return false
	}
	x := texelIndex(n.X, c.srcWidth)
	y := texelIndex(n.Y, c.srcHeight)
	so := (y*c.srcWidth + x) * c.components
	copy(dst[off:off+c.components], src[so:so+c.components])
	return true
}
