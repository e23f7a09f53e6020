package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// testLimiter returns a limiter driven by a fake clock.
func testLimiter(cfg Config) (*Limiter, *time.Time) {
	now := time.Unix(1_700_000_000, 0)
	l := New(cfg)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAdmitUnderLimit(t *testing.T) {
	l, _ := testLimiter(Config{Limit: 3, Window: time.Minute, Block: time.Minute})

	for i := 0; i < 3; i++ {
		if err := l.Admit("u:/api/x"); err != nil {
			t.Fatalf("call %d rejected: %v", i+1, err)
		}
	}
}

func TestAdmitOverLimitBlocks(t *testing.T) {
	l, now := testLimiter(Config{Limit: 3, Window: time.Minute, Block: time.Minute})

	for i := 0; i < 3; i++ {
		if err := l.Admit("u:/api/x"); err != nil {
			t.Fatalf("call %d rejected: %v", i+1, err)
		}
	}

	// Fourth call trips the limit and starts the block.
	if err := l.Admit("u:/api/x"); !errors.Is(err, ErrLimited) {
		t.Fatalf("4th call error = %v, want ErrLimited", err)
	}

	// Still blocked 10 seconds in, even though nothing new was admitted.
	*now = now.Add(10 * time.Second)
	if err := l.Admit("u:/api/x"); !errors.Is(err, ErrLimited) {
		t.Fatalf("call during block error = %v, want ErrLimited", err)
	}

	// After the block lapses the window has also drained, so admission
	// resumes with a fresh window.
	*now = now.Add(time.Minute)
	if err := l.Admit("u:/api/x"); err != nil {
		t.Fatalf("call after block rejected: %v", err)
	}
}

func TestBlockTakesPrecedenceOverWindow(t *testing.T) {
	l, now := testLimiter(Config{Limit: 1, Window: time.Second, Block: time.Hour})

	l.Admit("k")
	if err := l.Admit("k"); !errors.Is(err, ErrLimited) {
		t.Fatalf("over-limit call error = %v, want ErrLimited", err)
	}

	// The window would have room again, but the block is still active.
	*now = now.Add(10 * time.Second)
	if err := l.Admit("k"); !errors.Is(err, ErrLimited) {
		t.Fatalf("blocked call error = %v, want ErrLimited", err)
	}
}

func TestWindowPruning(t *testing.T) {
	l, now := testLimiter(Config{Limit: 2, Window: time.Second, Block: time.Minute})

	if err := l.Admit("k"); err != nil {
		t.Fatalf("first call rejected: %v", err)
	}
	if err := l.Admit("k"); err != nil {
		t.Fatalf("second call rejected: %v", err)
	}

	// Both events have expired from the window by t+1.1s.
	*now = now.Add(1100 * time.Millisecond)
	if err := l.Admit("k"); err != nil {
		t.Fatalf("call after window drain rejected: %v", err)
	}
}

func TestZeroLimitDeniesAll(t *testing.T) {
	l, _ := testLimiter(Config{Limit: 0, Window: time.Minute, Block: time.Minute})

	if err := l.Admit("k"); !errors.Is(err, ErrLimited) {
		t.Fatalf("zero-limit call error = %v, want ErrLimited", err)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := testLimiter(Config{Limit: 1, Window: time.Minute, Block: time.Minute})

	l.Admit("u1:/api/x")
	if err := l.Admit("u1:/api/x"); !errors.Is(err, ErrLimited) {
		t.Fatal("u1 not limited")
	}
	if err := l.Admit("u2:/api/x"); err != nil {
		t.Errorf("u2 rejected by u1's limit: %v", err)
	}
	if err := l.Admit("u1:/api/y"); err != nil {
		t.Errorf("other path rejected by u1's limit: %v", err)
	}
}

func TestSweepEvictsDrainedKeys(t *testing.T) {
	l, now := testLimiter(Config{Limit: 5, Window: time.Second, Block: time.Second})

	for i := 0; i < 10; i++ {
		l.Admit(fmt.Sprintf("u%d:/api/x", i))
	}
	if l.Len() != 10 {
		t.Fatalf("Len = %d, want 10", l.Len())
	}

	if removed := l.Sweep(); removed != 0 {
		t.Errorf("Sweep removed %d live keys", removed)
	}

	*now = now.Add(2 * time.Second)
	if removed := l.Sweep(); removed != 10 {
		t.Errorf("Sweep removed %d, want 10", removed)
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d after sweep, want 0", l.Len())
	}
}

func TestSweepKeepsBlockedKeys(t *testing.T) {
	l, now := testLimiter(Config{Limit: 1, Window: time.Second, Block: time.Hour})

	l.Admit("k")
	l.Admit("k") // trips the block

	*now = now.Add(time.Minute)
	if removed := l.Sweep(); removed != 0 {
		t.Errorf("Sweep evicted a blocked key")
	}
	if err := l.Admit("k"); !errors.Is(err, ErrLimited) {
		t.Errorf("blocked key admitted after sweep: %v", err)
	}
}

func TestAdmitConcurrentHardCap(t *testing.T) {
	l := New(Config{Limit: 50, Window: time.Minute, Block: time.Minute})

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Admit("k"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("admitted = %d, want exactly 50", admitted)
	}
}
