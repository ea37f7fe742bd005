// Package profiler aggregates per-operation timing statistics and runtime
// memory figures for pipeline runs.
package profiler

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"
)

// DefaultMaxSamples bounds the per-operation sample window.
const DefaultMaxSamples = 1024

// TimeTracker tracks operation timing statistics over a sliding window.
type TimeTracker struct {
	name      string
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is a snapshot of one TimeTracker.
type OperationStats struct {
	Name  string        `json:"name"`
	Count int64         `json:"count"`
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Total time.Duration `json:"total"`
}

// MemoryStats is the subset of runtime.MemStats reported with a snapshot.
type MemoryStats struct {
	Alloc       uint64 `json:"alloc"`
	TotalAlloc  uint64 `json:"totalAlloc"`
	Sys         uint64 `json:"sys"`
	HeapObjects uint64 `json:"heapObjects"`
	NumGC       uint32 `json:"numGC"`
}

// Snapshot is the state of a Profiler at one point in time.
type Snapshot struct {
	Uptime     time.Duration    `json:"uptime"`
	Goroutines int              `json:"goroutines"`
	Memory     MemoryStats      `json:"memory"`
	Operations []OperationStats `json:"operations"`
}

// Profiler records operation timings. It is safe for concurrent use.
type Profiler struct {
	mu         sync.RWMutex
	startTime  time.Time
	maxSamples int

	operationTimes map[string]*TimeTracker
}

// New creates a profiler keeping at most maxSamples durations per operation
// for the running average. maxSamples <= 0 uses DefaultMaxSamples.
func New(maxSamples int) *Profiler {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Profiler{
		startTime:      time.Now(),
		maxSamples:     maxSamples,
		operationTimes: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Record adds one completed operation. Min, Max and Count cover every sample;
// Avg covers the sliding window.
func (p *Profiler) Record(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			minTime: duration,
			maxTime: duration,
		}
		p.operationTimes[name] = tracker
	}

	tracker.durations = append(tracker.durations, duration)
	tracker.totalTime += duration
	if len(tracker.durations) > p.maxSamples {
		// Remove oldest sample
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Operations returns the statistics of every tracked operation, sorted by name.
func (p *Profiler) Operations() []OperationStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]OperationStats, 0, len(p.operationTimes))
	for _, tracker := range p.operationTimes {
		stats := OperationStats{
			Name:  tracker.name,
			Count: tracker.count,
			Min:   tracker.minTime,
			Max:   tracker.maxTime,
			Total: tracker.totalTime,
		}
		if n := len(tracker.durations); n > 0 {
			stats.Avg = tracker.totalTime / time.Duration(n)
		}
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Snapshot returns the current profiling statistics.
func (p *Profiler) Snapshot() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return Snapshot{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryStats{
			Alloc:       ms.Alloc,
			TotalAlloc:  ms.TotalAlloc,
			Sys:         ms.Sys,
			HeapObjects: ms.HeapObjects,
			NumGC:       ms.NumGC,
		},
		Operations: p.Operations(),
	}
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
