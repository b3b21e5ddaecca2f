package texmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelRows_CoversEveryRowOnce(t *testing.T) {
	tests := []struct {
		rows, workers int
	}{
		{10, 1},
		{10, 3},
		{10, 10},
		{3, 8},
		{97, 7},
		{1, 4},
	}

	for _, tt := range tests {
		hits := make([]int, tt.rows)
		stats := parallelRows(tt.rows, tt.workers, func(y0, y1 int) Stats {
			for y := y0; y < y1; y++ {
				hits[y]++
			}
			return Stats{Written: y1 - y0}
		})

		for y, h := range hits {
			assert.Equal(t, 1, h, "rows=%d workers=%d row=%d", tt.rows, tt.workers, y)
		}
		assert.Equal(t, tt.rows, stats.Written)
	}
}

func TestParallelRows_Empty(t *testing.T) {
	calls := 0
	stats := parallelRows(0, 4, func(y0, y1 int) Stats {
		calls++
		return Stats{}
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{}, stats)
}

func TestConfig_WorkerCount(t *testing.T) {
	assert.Equal(t, 3, Config{Workers: 3}.workerCount())
	assert.Positive(t, Config{}.workerCount())
}
