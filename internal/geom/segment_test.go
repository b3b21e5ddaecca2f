package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorLengthSq(t *testing.T) {
	assert.Equal(t, MinLengthSq, FloorLengthSq(0))
	assert.Equal(t, MinLengthSq, FloorLengthSq(MinLengthSq/4))
	assert.Equal(t, 2.0, FloorLengthSq(2))
}

func TestProjectOntoSegment(t *testing.T) {
	a := V2(0, 0)
	b := V2(10, 0)

	tests := []struct {
		name          string
		p             Vec2
		expectedRatio float64
		expectedPoint Vec2
	}{
		{"start", V2(0, 5), 0, a},
		{"middle", V2(5, 3), 0.5, V2(5, 0)},
		{"end", V2(10, -1), 1, b},
		{"before start clamps point", V2(-5, 0), -0.5, a},
		{"past end clamps point", V2(15, 2), 1.5, b},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, nearest := ProjectOntoSegment(tt.p, a, b)
			assert.InDelta(t, tt.expectedRatio, ratio, 1e-12)
			assert.InDelta(t, tt.expectedPoint.X, nearest.X, 1e-12)
			assert.InDelta(t, tt.expectedPoint.Y, nearest.Y, 1e-12)
			assert.Equal(t, ratio, RatioAlongSegment(tt.p, a, b))
		})
	}
}

func TestProjectOntoSegment_ZeroLength(t *testing.T) {
	a := V2(3, 3)

	ratio, nearest := ProjectOntoSegment(V2(7, -2), a, a)
	require.False(t, math.IsNaN(ratio))
	require.False(t, math.IsInf(ratio, 0))
	assert.Zero(t, ratio)
	assert.Equal(t, a, nearest)
}

func TestNewSegment(t *testing.T) {
	s := NewSegment(V2(1, 1), V2(4, 5))
	assert.Equal(t, V2(3, 4), s.Delta)
	assert.InDelta(t, 25.0, s.LengthSq, 1e-12)

	degenerate := NewSegment(V2(1, 1), V2(1, 1))
	assert.Equal(t, MinLengthSq, degenerate.LengthSq)
}
