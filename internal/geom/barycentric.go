package geom

// Triangle holds three corners with the Gram system of its edges
// precomputed, so repeated Weights calls only need the point-dependent terms.
type Triangle struct {
	P0, P1, P2 Vec2

	e0, e1        Vec2
	d00, d01, d11 float64
	invDenom      float64
}

// NewTriangle precomputes the edge vectors and Gram determinant of a triangle.
// A degenerate triangle gets a floored determinant so that Weights stays defined.
func NewTriangle(p0, p1, p2 Vec2) Triangle {
	e0 := p1.Sub(p0)
	e1 := p2.Sub(p0)
	d00 := e0.Dot(e0)
	d01 := e0.Dot(e1)
	d11 := e1.Dot(e1)
	return Triangle{
		P0: p0, P1: p1, P2: p2,
		e0: e0, e1: e1,
		d00: d00, d01: d01, d11: d11,
		invDenom: 1 / floorSigned(d00*d11-d01*d01),
	}
}

// Weights returns barycentric weights (w0, w1, w2) of p, so that
// p = w0*P0 + w1*P1 + w2*P2 and w0+w1+w2 = 1. Weights fall outside [0,1]
// when p is outside the triangle.
func (t Triangle) Weights(p Vec2) (float64, float64, float64) {
	e2 := p.Sub(t.P0)
	d20 := e2.Dot(t.e0)
	d21 := e2.Dot(t.e1)
	w1 := (t.d11*d20 - t.d01*d21) * t.invDenom
	w2 := (t.d00*d21 - t.d01*d20) * t.invDenom
	return 1 - w1 - w2, w1, w2
}

// Barycentric returns the weights of p with respect to triangle (t0, t1, t2).
func Barycentric(p, t0, t1, t2 Vec2) (float64, float64, float64) {
	return NewTriangle(t0, t1, t2).Weights(p)
}

// Interpolate returns w0*a + w1*b + w2*c.
func Interpolate(w0, w1, w2 float64, a, b, c Vec2) Vec2 {
	return Vec2{
		X: w0*a.X + w1*b.X + w2*c.X,
		Y: w0*a.Y + w1*b.Y + w2*c.Y,
	}
}
