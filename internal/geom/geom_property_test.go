package geom

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestCross_Antisymmetric verifies a×b = -(b×a).
func TestCross_Antisymmetric(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("cross product is antisymmetric", prop.ForAll(
		func(ax, ay, bx, by float64) bool {
			a, b := V2(ax, ay), V2(bx, by)
			return math.Abs(a.Cross(b)+b.Cross(a)) <= 1e-9
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}

// TestProject_NearestOnSegment verifies the nearest point always lies between A and B.
func TestProject_NearestOnSegment(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("nearest point lies on the segment", prop.ForAll(
		func(px, py, ax, ay, bx, by float64) bool {
			a, b := V2(ax, ay), V2(bx, by)
			ratio, n := ProjectOntoSegment(V2(px, py), a, b)
			if math.IsNaN(ratio) || !n.IsFinite() {
				return false
			}
			// n is collinear with a→b and within its bounding box.
			minX, maxX := math.Min(ax, bx), math.Max(ax, bx)
			minY, maxY := math.Min(ay, by), math.Max(ay, by)
			const eps = 1e-9
			return n.X >= minX-eps && n.X <= maxX+eps && n.Y >= minY-eps && n.Y <= maxY+eps
		},
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t)
}

// TestBarycentric_SumToOne verifies weights always sum to one for non-degenerate triangles.
func TestBarycentric_SumToOne(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("weights sum to one and reconstruct the point", prop.ForAll(
		func(px, py, bx, cy float64) bool {
			t0, t1, t2 := V2(0, 0), V2(bx, 0), V2(0, cy)
			p := V2(px, py)
			w0, w1, w2 := Barycentric(p, t0, t1, t2)
			if math.Abs(w0+w1+w2-1) > 1e-9 {
				return false
			}
			back := Interpolate(w0, w1, w2, t0, t1, t2)
			return math.Abs(back.X-p.X) < 1e-6 && math.Abs(back.Y-p.Y) < 1e-6
		},
		gen.Float64Range(-10, 10),
		gen.Float64Range(-10, 10),
		gen.Float64Range(0.5, 10),
		gen.Float64Range(0.5, 10),
	))

	properties.TestingRun(t)
}
