package core

import (
	"sort"
	"time"
)

// Breakpoint is a signed change of aggregate medium power at an instant.
type Breakpoint struct {
	Time  time.Time
	Delta float64 // watts
}

// Timeline is the medium's aggregate power as a step function: a baseline
// plus an ordered list of breakpoints. The power in effect at t is the
// baseline plus every delta at or before t.
//
// Breakpoints that no longer matter are folded into the baseline. The
// baseline therefore always holds the summed effect of everything that
// was dropped from the list.
type Timeline struct {
	changes  []Breakpoint
	baseline float64
}

// Len returns the number of retained breakpoints.
func (tl *Timeline) Len() int { return len(tl.changes) }

// Baseline returns the folded power level in watts.
func (tl *Timeline) Baseline() float64 { return tl.baseline }

// Breakpoints returns a copy of the retained breakpoints in time order.
func (tl *Timeline) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(tl.changes))
	copy(out, tl.changes)
	return out
}

// LevelAt returns the aggregate power in effect at t.
func (tl *Timeline) LevelAt(t time.Time) float64 {
	level := tl.baseline
	for _, bp := range tl.changes {
		if bp.Time.After(t) {
			break
		}
		level += bp.Delta
	}
	return level
}

// upperBound returns the index of the first breakpoint strictly after t.
func (tl *Timeline) upperBound(t time.Time) int {
	return sort.Search(len(tl.changes), func(i int) bool {
		return tl.changes[i].Time.After(t)
	})
}

// lowerBound returns the index of the first breakpoint at or after t.
func (tl *Timeline) lowerBound(t time.Time) int {
	return sort.Search(len(tl.changes), func(i int) bool {
		return !tl.changes[i].Time.Before(t)
	})
}

// Insert adds bp after any breakpoints sharing its timestamp.
func (tl *Timeline) Insert(bp Breakpoint) {
	tl.insertAt(tl.upperBound(bp.Time), bp)
}

// insertAhead adds bp before any breakpoints sharing its timestamp.
func (tl *Timeline) insertAhead(bp Breakpoint) {
	tl.insertAt(tl.lowerBound(bp.Time), bp)
}

func (tl *Timeline) insertAt(i int, bp Breakpoint) {
	tl.changes = append(tl.changes, Breakpoint{})
	copy(tl.changes[i+1:], tl.changes[i:])
	tl.changes[i] = bp
}

// FoldBefore moves every breakpoint strictly before t into the baseline
// and returns how many were folded.
func (tl *Timeline) FoldBefore(t time.Time) int {
	return tl.foldFirst(tl.lowerBound(t))
}

func (tl *Timeline) foldFirst(n int) int {
	for _, bp := range tl.changes[:n] {
		tl.baseline += bp.Delta
	}
	tl.changes = append(tl.changes[:0], tl.changes[n:]...)
	return n
}

// Reset drops every breakpoint and zeroes the baseline.
func (tl *Timeline) Reset() {
	tl.changes = tl.changes[:0]
	tl.baseline = 0
}
