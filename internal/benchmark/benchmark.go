// Package benchmark times repeated warp workloads and reports throughput.
package benchmark

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"
)

// Timer measures one timed run.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer starts a named timer.
func NewTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop records and returns the elapsed time.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration is only valid after Stop.
func (t *Timer) Duration() time.Duration { return t.duration }

func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return t.duration.String()
}

// MemoryStats is the subset of runtime.MemStats a run reports on.
type MemoryStats struct {
	Alloc      uint64
	TotalAlloc uint64
	Mallocs    uint64
	NumGC      uint32
}

// GetMemoryStats snapshots the runtime allocator.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Mallocs:    m.Mallocs,
		NumGC:      m.NumGC,
	}
}

// Case is one named workload. Each call performs a single iteration and
// returns the number of destination pixels it produced.
type Case struct {
	Name string
	Func func() (int, error)
}

// Result summarizes the iterations of one case.
type Result struct {
	Name         string
	Iterations   int
	Duration     time.Duration
	Pixels       int64
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	Error        error
}

// AvgDuration is the mean time per iteration.
func (r Result) AvgDuration() time.Duration {
	if r.Iterations <= 0 {
		return 0
	}
	return r.Duration / time.Duration(r.Iterations)
}

// MegapixelsPerSecond is the destination throughput across all iterations.
func (r Result) MegapixelsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Pixels) / 1e6 / r.Duration.Seconds()
}

// AllocatedBytesPerOp is the mean heap allocation per iteration.
func (r Result) AllocatedBytesPerOp() uint64 {
	if r.Iterations <= 0 || r.MemoryAfter.TotalAlloc < r.MemoryBefore.TotalAlloc {
		return 0
	}
	return (r.MemoryAfter.TotalAlloc - r.MemoryBefore.TotalAlloc) / uint64(r.Iterations)
}

func (r Result) String() string {
	if r.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", r.Name, r.Error)
	}
	return fmt.Sprintf("%s: %d iterations, avg: %v, %.2f Mpx/s, %d B/op",
		r.Name, r.Iterations, r.AvgDuration(), r.MegapixelsPerSecond(), r.AllocatedBytesPerOp())
}

// Suite runs a list of cases and keeps the results of the last RunAll.
type Suite struct {
	cases   []Case
	results []Result
	mu      sync.Mutex
}

// NewSuite creates an empty suite.
func NewSuite() *Suite {
	return &Suite{}
}

// Add registers a case.
func (s *Suite) Add(name string, fn func() (int, error)) {
	s.cases = append(s.cases, Case{Name: name, Func: fn})
}

// Names lists the registered cases in order.
func (s *Suite) Names() []string {
	names := make([]string, len(s.cases))
	for i, c := range s.cases {
		names[i] = c.Name
	}
	return names
}

// Run runs a single case by name.
func (s *Suite) Run(name string, iterations int) Result {
	for _, c := range s.cases {
		if c.Name == name {
			return runCase(c, iterations)
		}
	}
	return Result{Name: name, Error: fmt.Errorf("benchmark '%s' not found", name)}
}

// RunAll runs every case in registration order.
func (s *Suite) RunAll(iterations int) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make([]Result, 0, len(s.cases))
	for _, c := range s.cases {
		s.results = append(s.results, runCase(c, iterations))
	}
	return s.results
}

// Results returns the results of the last RunAll.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// PrintResults writes one line per result of the last RunAll.
func (s *Suite) PrintResults(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Benchmark Results:")
	_, _ = fmt.Fprintln(w, "==================")
	for _, r := range s.Results() {
		_, _ = fmt.Fprintln(w, r.String())
	}
}

func runCase(c Case, iterations int) Result {
	if iterations < 1 {
		return Result{Name: c.Name, Error: fmt.Errorf("iterations must be positive, got %d", iterations)}
	}

	runtime.GC()
	before := GetMemoryStats()
	timer := NewTimer(c.Name)

	var pixels int64
	var err error
	for range iterations {
		n, e := c.Func()
		if e != nil {
			err = e
			break
		}
		pixels += int64(n)
	}

	timer.Stop()
	return Result{
		Name:         c.Name,
		Iterations:   iterations,
		Duration:     timer.Duration(),
		Pixels:       pixels,
		MemoryBefore: before,
		MemoryAfter:  GetMemoryStats(),
		Error:        err,
	}
}
