package texmap

import (
	"math"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
)

// debugColor encodes a resolved UV as a colour: R=|u|, G=|v| scaled to
// 0..255, B gains 127 for each negative component, A is opaque.
func debugColor(uv geom.Vec2) [4]byte {
	var b byte
	if uv.X < 0 {
		b += 127
	}
	if uv.Y < 0 {
		b += 127
	}
	return [4]byte{unitToByte(math.Abs(uv.X)), unitToByte(math.Abs(uv.Y)), b, 255}
}

func unitToByte(v float64) byte {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v * 255)
}

// writeDebugUV stores the first components channels of debugColor(uv).
func (c *PixelGenContext) writeDebugUV(uv geom.Vec2, dst []byte, off int) {
	col := debugColor(uv)
	copy(dst[off:off+c.components], col[:c.components])
}
