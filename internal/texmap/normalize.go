package texmap

import (
	"math"

	"github.com/MeKo-Tech/quadwarp/internal/geom"
)

// JustUnder1 is the largest float64 below 1. Clamped coordinates never reach
// 1 so that floor(u*width) stays inside the image.
var JustUnder1 = math.Nextafter(1, 0)

// normalize maps v into [0,1) under mode. The second result is false when the
// value is rejected: always for NaN and ±Inf, and for any out-of-range value
// under modeSkip.
func normalize(v float64, mode rangeMode) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v >= 0 && v < 1 {
		return v, true
	}
	switch mode {
	case modeWrap:
		w := v - math.Floor(v)
		if w >= 1 {
			// -tiny + 1 rounds up to exactly 1.
			w = JustUnder1
		}
		return w, true
	case modeClamp:
		if v <= 0 {
			return 0, true
		}
		return JustUnder1, true
	default:
		return 0, false
	}
}

func normalize2(v geom.Vec2, mode rangeMode) (geom.Vec2, bool) {
	x, ok := normalize(v.X, mode)
	if !ok {
		return geom.Vec2{}, false
	}
	y, ok := normalize(v.Y, mode)
	if !ok {
		return geom.Vec2{}, false
	}
	return geom.Vec2{X: x, Y: y}, true
}

// NormalizeQuadCoord applies an out-of-quad policy to a single coordinate.
func NormalizeQuadCoord(v float64, p OutOfQuadPolicy) (float64, bool) {
	return normalize(v, p.mode())
}

// NormalizeTextureCoord applies an out-of-texture policy to a single coordinate.
func NormalizeTextureCoord(v float64, p OutOfTexturePolicy) (float64, bool) {
	return normalize(v, p.mode())
}

// inUnitRange reports whether both components lie in [0,1).
func inUnitRange(v geom.Vec2) bool {
	return v.X >= 0 && v.X < 1 && v.Y >= 0 && v.Y < 1
}
