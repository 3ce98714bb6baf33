package timectrl

import (
	"sync"
	"time"
)

// SimClock is the read side of simulation time. PHY components depend on
// this rather than on a concrete controller so tests can drive time
// directly.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
}

// Epoch is the instant a fresh controller starts at when no start time is
// supplied.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeController holds virtual time for an event-driven simulation. The
// external scheduler moves it forward between events; it never advances
// on its own.
type TimeController struct {
	mu          sync.RWMutex
	StartTime   time.Time
	currentTime time.Time

	listeners []func(time.Time)
}

// NewTimeController constructs a controller positioned at start. A zero
// start selects Epoch.
func NewTimeController(start time.Time) *TimeController {
	if start.IsZero() {
		start = Epoch
	}
	return &TimeController{
		StartTime:   start,
		currentTime: start,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Elapsed returns the simulation time passed since StartTime.
func (tc *TimeController) Elapsed() time.Duration {
	return tc.Now().Sub(tc.StartTime)
}

// SetTime moves simulation time to t. Time never runs backwards: a t
// before the current time is ignored and false is returned.
func (tc *TimeController) SetTime(t time.Time) bool {
	tc.mu.Lock()
	if t.Before(tc.currentTime) {
		tc.mu.Unlock()
		return false
	}
	tc.currentTime = t
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(t)
	}
	return true
}

// Advance moves simulation time forward by d and returns the new time.
func (tc *TimeController) Advance(d time.Duration) time.Time {
	if d < 0 {
		return tc.Now()
	}
	next := tc.Now().Add(d)
	tc.SetTime(next)
	return next
}

// At returns StartTime offset by d, a convenience for building schedules.
func (tc *TimeController) At(d time.Duration) time.Time {
	return tc.StartTime.Add(d)
}

// AddListener registers a callback invoked each time simulation time moves.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}
