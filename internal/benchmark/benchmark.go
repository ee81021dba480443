// Package benchmark measures detection throughput over a set of texts, for
// comparing classifier openers and backends against each other.
package benchmark

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/MeKo-Tech/langid/internal/langid"
)

// Timer provides simple timing utilities for benchmarking.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new timer with the given name.
func NewTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// MemoryStats holds memory usage statistics.
type MemoryStats struct {
	AllocBytes      uint64  // Currently allocated bytes
	TotalAllocBytes uint64  // Total allocated bytes (cumulative)
	Mallocs         uint64  // Cumulative heap objects allocated
	NumGC           uint32  // Number of GC runs
	GCCPUFraction   float64 // Fraction of CPU time spent in GC
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		Mallocs:         m.Mallocs,
		NumGC:           m.NumGC,
		GCCPUFraction:   m.GCCPUFraction,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, GC: %d (%.2f%% CPU)",
		m.AllocBytes/1024, m.TotalAllocBytes/1024, m.NumGC, m.GCCPUFraction*100)
}

// Detector is the part of langid.Service a benchmark drives.
type Detector interface {
	Detect(ctx context.Context, text string) (langid.Detection, error)
}

// Result is the outcome of running one detector over every text Iterations times.
type Result struct {
	Name         string
	Iterations   int
	Detections   int
	Failures     int
	Duration     time.Duration
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	// Branches counts successful detections per routing branch.
	Branches map[langid.Branch]int
	// FirstError is the first detection error seen, if any.
	FirstError error
}

// Average returns the mean duration of a single Detect call.
func (r Result) Average() time.Duration {
	n := r.Detections + r.Failures
	if n == 0 {
		return 0
	}
	return r.Duration / time.Duration(n)
}

// AllocatedKB is the heap allocated while the run was in progress.
func (r Result) AllocatedKB() uint64 {
	return (r.MemoryAfter.TotalAllocBytes - r.MemoryBefore.TotalAllocBytes) / 1024
}

func (r Result) String() string {
	if r.Detections == 0 && r.FirstError != nil {
		return fmt.Sprintf("%s: ERROR - %v", r.Name, r.FirstError)
	}
	return fmt.Sprintf("%s: %d detections (%d failed), avg: %v, total: %v, alloc: %d KB",
		r.Name, r.Detections, r.Failures, r.Average(), r.Duration, r.AllocatedKB())
}

type entry struct {
	name string
	d    Detector
}

// Suite runs a fixed text set through several named detectors.
type Suite struct {
	texts   []string
	entries []entry
}

// NewSuite creates a suite over texts.
func NewSuite(texts []string) *Suite {
	return &Suite{texts: texts}
}

// Add registers a detector under name.
func (s *Suite) Add(name string, d Detector) {
	s.entries = append(s.entries, entry{name: name, d: d})
}

// Names returns the registered detector names in order.
func (s *Suite) Names() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.name
	}
	return out
}

// Run benchmarks every detector in registration order. A cancelled context
// stops the run and returns the results gathered so far with the context error.
func (s *Suite) Run(ctx context.Context, iterations int) ([]Result, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	if len(s.texts) == 0 {
		return nil, errors.New("no texts to benchmark")
	}

	results := make([]Result, 0, len(s.entries))
	for _, e := range s.entries {
		r, err := s.runOne(ctx, e, iterations)
		results = append(results, r)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (s *Suite) runOne(ctx context.Context, e entry, iterations int) (Result, error) {
	runtime.GC()
	r := Result{
		Name:         e.name,
		Iterations:   iterations,
		Branches:     map[langid.Branch]int{},
		MemoryBefore: GetMemoryStats(),
	}

	timer := NewTimer(e.name)
	for range iterations {
		for _, text := range s.texts {
			if err := ctx.Err(); err != nil {
				r.Duration = timer.Stop()
				r.MemoryAfter = GetMemoryStats()
				return r, err
			}
			d, err := e.d.Detect(ctx, text)
			if err != nil {
				r.Failures++
				if r.FirstError == nil {
					r.FirstError = err
				}
				continue
			}
			r.Detections++
			r.Branches[d.Branch]++
		}
	}
	r.Duration = timer.Stop()
	r.MemoryAfter = GetMemoryStats()
	return r, nil
}

// Speedup returns how many times faster candidate is than baseline per call.
// It is 0 when either side has no timing.
func Speedup(baseline, candidate Result) float64 {
	b, c := baseline.Average(), candidate.Average()
	if b <= 0 || c <= 0 {
		return 0
	}
	return float64(b) / float64(c)
}

// PrintResults writes one line per result, then the speedup of every result
// over the first.
func PrintResults(w io.Writer, results []Result) {
	_, _ = fmt.Fprintln(w, "Benchmark Results:")
	_, _ = fmt.Fprintln(w, "==================")
	for _, r := range results {
		_, _ = fmt.Fprintln(w, r.String())
	}
	if len(results) < 2 {
		return
	}
	_, _ = fmt.Fprintln(w)
	for _, r := range results[1:] {
		_, _ = fmt.Fprintf(w, "%s vs %s: %.2fx\n", r.Name, results[0].Name, Speedup(results[0], r))
	}
}

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{"name", "iterations", "detections", "failures", "total_ms", "avg_us", "alloc_kb"}

// WriteCSV writes results as CSV with CSVHeader.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Name,
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.Detections),
			strconv.Itoa(r.Failures),
			strconv.FormatFloat(float64(r.Duration.Microseconds())/1000, 'f', 2, 64),
			strconv.FormatInt(r.Average().Microseconds(), 10),
			strconv.FormatUint(r.AllocatedKB(), 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
