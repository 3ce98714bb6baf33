package core

import "github.com/signalsfoundry/wifi-interference/model"

// Registry tracks at most one Event per transmitter. It models the latest
// state of each transmitter, not a history.
type Registry struct {
	byAddress map[model.Mac48Address]*Event
	order     []*Event
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byAddress: make(map[model.Mac48Address]*Event)}
}

// Upsert tracks ev under its address. When the address is already
// tracked, the existing Event is overwritten in place and returned, so
// handles obtained earlier see the new values; ev itself is not retained.
// created reports whether a new entry was added.
func (r *Registry) Upsert(ev *Event) (tracked *Event, created bool) {
	if existing, ok := r.byAddress[ev.address]; ok {
		existing.overwrite(ev)
		return existing, false
	}
	r.byAddress[ev.address] = ev
	r.order = append(r.order, ev)
	return ev, true
}

// Lookup returns the tracked Event for address, if any.
func (r *Registry) Lookup(address model.Mac48Address) (*Event, bool) {
	ev, ok := r.byAddress[address]
	return ev, ok
}

// Len returns the number of tracked transmitters.
func (r *Registry) Len() int {
	return len(r.order)
}

// Events returns the tracked Events in first-seen order. The slice is a
// copy; the Events are shared handles.
func (r *Registry) Events() []*Event {
	out := make([]*Event, len(r.order))
	copy(out, r.order)
	return out
}
