// Package metrics keeps the process-lifetime request and status counters the
// gate records after every completed request.
package metrics

import (
	"strconv"
	"sync"
)

// Recorder accumulates per-path and per-status counts. Increments are
// guarded by a mutex so concurrent requests never lose updates; there is no
// decay or windowing.
type Recorder struct {
	mu       sync.Mutex
	requests map[string]int64
	statuses map[int]int64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		requests: make(map[string]int64),
		statuses: make(map[int]int64),
	}
}

// Record increments the counters for one completed request. It never fails.
func (r *Recorder) Record(path string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[path]++
	r.statuses[status]++
}

// Snapshot is a point-in-time copy of the counters. Status codes are keyed
// as strings to match the JSON shape the monitoring endpoint reports.
type Snapshot struct {
	Requests map[string]int64 `json:"requests"`
	Statuses map[string]int64 `json:"statuses"`
}

// Snapshot returns a read-only copy of the counters accumulated since
// process start.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Requests: make(map[string]int64, len(r.requests)),
		Statuses: make(map[string]int64, len(r.statuses)),
	}
	for path, n := range r.requests {
		snap.Requests[path] = n
	}
	for status, n := range r.statuses {
		snap.Statuses[strconv.Itoa(status)] = n
	}
	return snap
}
