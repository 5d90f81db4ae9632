// Package traffic keeps sliding windows of proxy request outcomes. The health
// endpoint reads them to decide between healthy and degraded.
package traffic

import (
	"sync"
	"time"
)

// Outcome classifies one proxied request.
type Outcome int

const (
	Success Outcome = iota
	// Error is an upstream failure surfaced to the caller.
	Error
	// Denied is a request rejected by the rate limiter.
	Denied
	// Fallback is a request answered from mock data.
	Fallback
	outcomeCount
)

// retention bounds how far back any window can look.
const retention = 5 * time.Minute

var defaultTracker = NewTracker(time.Now)

func Record(o Outcome) { defaultTracker.Record(o) }

func RecordSuccess() { defaultTracker.Record(Success) }

func RecordError() { defaultTracker.Record(Error) }

func RecordDenied() { defaultTracker.Record(Denied) }

func RecordFallback() { defaultTracker.Record(Fallback) }

// RequestCount returns all outcomes within the window.
func RequestCount(window time.Duration) int { return defaultTracker.Window(window).Total() }

// DenialCount returns rate-limit denials within the window.
func DenialCount(window time.Duration) int { return defaultTracker.Window(window).Denied }

// ErrorRate returns (errors, successes+errors) within the window. Denials and
// mock fallbacks are excluded.
func ErrorRate(window time.Duration) (errors, total int) {
	s := defaultTracker.Window(window)
	return s.Errors, s.Errors + s.Successes
}

// Reset clears all recorded outcomes. For tests only.
func Reset() { defaultTracker.Reset() }

// Snapshot is the outcome count within one window.
type Snapshot struct {
	Successes int `json:"successes"`
	Errors    int `json:"errors"`
	Denied    int `json:"denied"`
	Fallbacks int `json:"fallbacks"`
}

func (s Snapshot) Total() int { return s.Successes + s.Errors + s.Denied + s.Fallbacks }

// Tracker holds outcome timestamps, oldest first, per outcome.
type Tracker struct {
	mu    sync.Mutex
	now   func() time.Time
	times [outcomeCount][]time.Time
}

// NewTracker returns a Tracker reading time from now.
func NewTracker(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// Record appends an outcome at the current time and prunes entries past retention.
func (t *Tracker) Record(o Outcome) {
	if o < 0 || o >= outcomeCount {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.times[o] = append(t.times[o], now)
	t.pruneLocked(now)
}

// Window counts outcomes not older than window.
func (t *Tracker) Window(window time.Duration) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	count := func(o Outcome) int {
		n := 0
		for _, ts := range t.times[o] {
			if !ts.Before(cutoff) {
				n++
			}
		}
		return n
	}
	return Snapshot{
		Successes: count(Success),
		Errors:    count(Error),
		Denied:    count(Denied),
		Fallbacks: count(Fallback),
	}
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.times {
		t.times[i] = nil
	}
}

// pruneLocked drops timestamps older than retention. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	for o := range t.times {
		times := t.times[o]
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			t.times[o] = append(times[:0], times[i:]...)
		}
	}
}
