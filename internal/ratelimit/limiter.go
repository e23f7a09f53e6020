// Package ratelimit implements the sliding-window limiter with penalty-box
// blocking that gates every protected request, keyed by user and route.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLimited is returned by Admit when the request must be rejected, either
// because the window is full or because the key is still in its penalty box.
var ErrLimited = errors.New("rate limit exceeded")

// Config holds the admission parameters shared by every key.
type Config struct {
	// Limit is the maximum number of admitted events per window. A zero
	// limit denies everything.
	Limit int

	// Window is the trailing interval events are counted over.
	Window time.Duration

	// Block is how long a key is rejected outright after exceeding the
	// limit, regardless of how the window drains in the meantime.
	Block time.Duration
}

type entry struct {
	// events is time-ordered; pruning is a prefix trim.
	events       []time.Time
	blockedUntil time.Time
}

// Limiter tracks one sliding window and block timestamp per key. It is a
// process-wide singleton shared by all concurrent requests; a single mutex
// guards the read-prune-compare-append sequence so the limit is a hard cap.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a limiter with the given config.
func New(cfg Config) *Limiter {
	return &Limiter{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Admit records one event for key and returns nil, or returns ErrLimited
// without recording anything when the key is blocked or its window is full.
// Exceeding the limit starts the block period.
func (l *Limiter) Admit(key string) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[key]
	if e == nil {
		e = &entry{}
		l.entries[key] = e
	}

	// An active block takes precedence over window state.
	if e.blockedUntil.After(now) {
		return ErrLimited
	}

	e.prune(now, l.cfg.Window)

	if len(e.events) >= l.cfg.Limit {
		e.blockedUntil = now.Add(l.cfg.Block)
		return ErrLimited
	}

	e.events = append(e.events, now)
	return nil
}

// prune drops events at or before now-window from the front of the sequence.
func (e *entry) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(e.events) && !e.events[i].After(cutoff) {
		i++
	}
	if i > 0 {
		e.events = append(e.events[:0], e.events[i:]...)
	}
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Sweep drops keys whose window has fully drained and whose block has
// lapsed, and returns how many were removed. Without it the entry map grows
// without bound under many distinct users and paths.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if e.blockedUntil.After(now) {
			continue
		}
		e.prune(now, l.cfg.Window)
		if len(e.events) == 0 {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Sweep every interval until ctx is canceled.
func (l *Limiter) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}
