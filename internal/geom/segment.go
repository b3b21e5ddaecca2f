package geom

import "math"

// MinLengthSq replaces squared lengths (and Gram determinants) that are too
// small to divide by. It is the smallest normal float64.
const MinLengthSq = 0x1p-1022

// FloorLengthSq returns l, or MinLengthSq when l is below it.
func FloorLengthSq(l float64) float64 {
	if l < MinLengthSq {
		return MinLengthSq
	}
	return l
}

// floorSigned keeps the sign of d while bounding its magnitude away from zero.
func floorSigned(d float64) float64 {
	if math.Abs(d) < MinLengthSq {
		return math.Copysign(MinLengthSq, d)
	}
	return d
}

// Segment is a line segment with its delta and floored length² precomputed.
type Segment struct {
	A, B     Vec2
	Delta    Vec2
	LengthSq float64
}

// NewSegment precomputes the delta and length² of a→b.
func NewSegment(a, b Vec2) Segment {
	d := b.Sub(a)
	return Segment{A: a, B: b, Delta: d, LengthSq: FloorLengthSq(d.LengthSq())}
}

// Ratio returns the unclamped position of p's projection along the segment,
// 0 at A and 1 at B.
func (s Segment) Ratio(p Vec2) float64 {
	return p.Sub(s.A).Dot(s.Delta) / s.LengthSq
}

// Project returns the unclamped ratio together with the nearest point on the
// segment. The nearest point uses the ratio clamped to [0,1].
func (s Segment) Project(p Vec2) (float64, Vec2) {
	ratio := s.Ratio(p)
	switch {
	case ratio <= 0:
		return ratio, s.A
	case ratio >= 1:
		return ratio, s.B
	default:
		return ratio, s.A.Lerp(s.B, ratio)
	}
}

// ProjectOntoSegment projects p onto a→b. See Segment.Project.
func ProjectOntoSegment(p, a, b Vec2) (float64, Vec2) {
	return NewSegment(a, b).Project(p)
}

// RatioAlongSegment returns the unclamped ratio of p along a→b.
func RatioAlongSegment(p, a, b Vec2) float64 {
	return NewSegment(a, b).Ratio(p)
}
