// Package chartstats collects periodic snapshots of a chart's size and
// discovery churn for the cmd/agent demo to log or expose.
package chartstats

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Snapshot holds one collected measurement.
type Snapshot struct {
	Timestamp time.Time

	CPUCount    int
	GoRoutines  int
	HeapAllocMB float64

	ChartSize       int
	PeersDiscovered int64
	UptimeSec       float64
}

// SizeSource is implemented by any chart wrapper (PortChart, PortsChart,
// MsgChart[T]) — all three expose Size().
type SizeSource interface {
	Size() int
}

// Reporter periodically collects Snapshots from a chart. PeersDiscovered
// counts first-time sightings observed through RecordDiscovery, independent
// of the chart's current Size (which can only grow, since the chart never
// expires entries — RecordDiscovery exists so a demo can still report churn
// if it layers its own Forget calls on top).
type Reporter struct {
	mu      sync.RWMutex
	source  SizeSource
	latest  *Snapshot
	history []Snapshot
	maxHist int
	started time.Time
	seen    int64
	logger  *slog.Logger
}

// NewReporter creates a Reporter collecting from source.
func NewReporter(source SizeSource) *Reporter {
	return &Reporter{
		source:  source,
		history: make([]Snapshot, 0, 60),
		maxHist: 60,
		started: time.Now(),
		logger:  slog.Default().With("component", "chartstats"),
	}
}

// RecordDiscovery increments the running count of first-time sightings.
// Call this from a Notify loop alongside the chart's own bookkeeping.
func (r *Reporter) RecordDiscovery() {
	r.mu.Lock()
	r.seen++
	r.mu.Unlock()
}

// Collect gathers a fresh Snapshot.
func (r *Reporter) Collect() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	r.mu.Lock()
	seen := r.seen
	r.mu.Unlock()

	s := Snapshot{
		Timestamp:       time.Now(),
		CPUCount:        runtime.NumCPU(),
		GoRoutines:      runtime.NumGoroutine(),
		HeapAllocMB:     float64(memStats.HeapAlloc) / 1024 / 1024,
		UptimeSec:       time.Since(r.started).Seconds(),
		PeersDiscovered: seen,
	}
	if r.source != nil {
		s.ChartSize = r.source.Size()
	}

	r.mu.Lock()
	r.latest = &s
	if len(r.history) >= r.maxHist {
		r.history = r.history[1:]
	}
	r.history = append(r.history, s)
	r.mu.Unlock()

	r.logger.Debug("chart stats collected", "size", s.ChartSize, "discovered", s.PeersDiscovered)
	return s
}

// Latest returns the last collected Snapshot, or nil if Collect has never
// run.
func (r *Reporter) Latest() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return nil
	}
	s := *r.latest
	return &s
}

// History returns a copy of recent Snapshots, oldest first.
func (r *Reporter) History() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Snapshot, len(r.history))
	copy(result, r.history)
	return result
}
