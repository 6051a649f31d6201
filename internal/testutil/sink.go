package testutil

import (
	"sync"

	"github.com/routemesh/routemesh/core"
)

// EventRecorder is a thread-safe EventSink capturing every emitted event
// for assertions.
type EventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

// NewEventRecorder constructs an empty recorder.
func NewEventRecorder() *EventRecorder { return &EventRecorder{} }

// Emit implements core.EventSink.
func (r *EventRecorder) Emit(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns all recorded events in emission order.
func (r *EventRecorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in emission order.
func (r *EventRecorder) Types() []core.EventType {
	events := r.Events()
	types := make([]core.EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

// OfType returns the recorded events with the given type, in order.
func (r *EventRecorder) OfType(typ core.EventType) []core.Event {
	var out []core.Event
	for _, ev := range r.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Count returns how many events of the given type were recorded.
func (r *EventRecorder) Count(typ core.EventType) int {
	return len(r.OfType(typ))
}
