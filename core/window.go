package core

import "fmt"

// buildLocalWindow returns the interference in effect when ev starts and
// the breakpoints covering ev, framed by a synthetic breakpoint at the
// start holding that level as an absolute value and a zero-delta one at
// the end.
//
// Everything before the last breakpoint at or before ev's start is folded
// into the baseline first; that breakpoint itself, normally ev's own
// start, is kept but left out of the interference. Collection stops at
// ev's own end decrement or at the first breakpoint past ev's end.
func (h *InterferenceHelper) buildLocalWindow(ev *Event) (float64, []Breakpoint) {
	if !h.receiving {
		panic(fmt.Errorf("build window for %s: %w", ev.address, ErrNotReceiving))
	}
	tl := &h.timeline
	if tl.Len() == 0 {
		panic(fmt.Errorf("build window for %s: %w", ev.address, ErrEmptyTimeline))
	}

	first := 0
	if pos := tl.upperBound(ev.startTime); pos > 0 {
		if n := tl.foldFirst(pos - 1); n > 0 && h.metrics != nil {
			h.metrics.AddFolded(n)
		}
		first = 1
	}
	interference := tl.baseline

	local := make([]Breakpoint, 0, tl.Len()+2)
	local = append(local, Breakpoint{Time: ev.startTime, Delta: interference})
	for _, bp := range tl.changes[first:] {
		if bp.Time.After(ev.endTime) {
			break
		}
		if bp.Time.Equal(ev.endTime) && bp.Delta == -ev.rxPowerW {
			break
		}
		local = append(local, bp)
	}
	local = append(local, Breakpoint{Time: ev.endTime})
	return interference, local
}
