package texmap

import "sync"

// Stats counts what happened to the destination pixels of one blit.
type Stats struct {
	Written int `json:"written"` // pixels sampled from the source
	Skipped int `json:"skipped"` // pixels rejected by a policy and left untouched
}

func (s *Stats) add(o Stats) {
	s.Written += o.Written
	s.Skipped += o.Skipped
}

// parallelRows splits [0, rows) into at most workers contiguous bands and
// runs fn on each band concurrently. Bands never overlap, so fn may write
// its rows of the destination without locking.
func parallelRows(rows, workers int, fn func(y0, y1 int) Stats) Stats {
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		return fn(0, rows)
	}

	band := (rows + workers - 1) / workers
	results := make([]Stats, workers)

	var wg sync.WaitGroup
	for i := range workers {
		y0 := i * band
		if y0 >= rows {
			break
		}
		y1 := min(y0+band, rows)
		wg.Add(1)
		go func(i, y0, y1 int) {
			defer wg.Done()
			results[i] = fn(y0, y1)
		}(i, y0, y1)
	}
	wg.Wait()

	var total Stats
	for _, r := range results {
		total.add(r)
	}
	return total
}
