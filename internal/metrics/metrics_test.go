package metrics

import (
	"sync"
	"testing"
)

func TestRecordAndSnapshot(t *testing.T) {
	r := NewRecorder()
	r.Record("/api/ai/chat", 200)
	r.Record("/api/ai/chat", 200)
	r.Record("/api/ai/chat", 500)
	r.Record("/api/location/ip", 200)

	snap := r.Snapshot()

	if got := snap.Requests["/api/ai/chat"]; got != 3 {
		t.Errorf("requests[/api/ai/chat] = %d, want 3", got)
	}
	if got := snap.Requests["/api/location/ip"]; got != 1 {
		t.Errorf("requests[/api/location/ip] = %d, want 1", got)
	}
	if got := snap.Statuses["200"]; got != 3 {
		t.Errorf("statuses[200] = %d, want 3", got)
	}
	if got := snap.Statuses["500"]; got != 1 {
		t.Errorf("statuses[500] = %d, want 1", got)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	snap := NewRecorder().Snapshot()
	if snap.Requests == nil || snap.Statuses == nil {
		t.Fatal("empty snapshot maps should be non-nil")
	}
	if len(snap.Requests) != 0 || len(snap.Statuses) != 0 {
		t.Errorf("empty snapshot not empty: %+v", snap)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRecorder()
	r.Record("/api/x", 200)

	snap := r.Snapshot()
	snap.Requests["/api/x"] = 99
	snap.Statuses["200"] = 99

	fresh := r.Snapshot()
	if fresh.Requests["/api/x"] != 1 || fresh.Statuses["200"] != 1 {
		t.Errorf("snapshot mutation leaked into recorder: %+v", fresh)
	}
}

func TestRecordConcurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Record("/api/x", 200)
			}
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	if got := snap.Requests["/api/x"]; got != 1000 {
		t.Errorf("requests = %d, want 1000", got)
	}
	if got := snap.Statuses["200"]; got != 1000 {
		t.Errorf("statuses = %d, want 1000", got)
	}
}
