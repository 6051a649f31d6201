package core

import "sync"

// EventSink receives emitted events. Emission is fire-and-forget: a sink
// must never block the emitter, and orchestration behaves identically with
// zero, one or many sinks attached.
type EventSink interface {
	Emit(Event)
}

// SinkFunc adapts a plain function to EventSink.
type SinkFunc func(Event)

// Emit implements EventSink.
func (f SinkFunc) Emit(ev Event) { f(ev) }

// NoOpSink discards every event. Components substitute it when constructed
// with a nil sink so emission sites never nil-check.
type NoOpSink struct{}

// Emit implements EventSink.
func (NoOpSink) Emit(Event) {}

// MultiSink fans out each event to all registered sinks. Safe for concurrent
// Add and Emit.
type MultiSink struct {
	mu    sync.RWMutex
	sinks []EventSink
}

// NewMultiSink constructs a MultiSink over the given sinks.
func NewMultiSink(sinks ...EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add attaches another sink. Events emitted after Add reach it.
func (m *MultiSink) Add(s EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Remove detaches a previously added sink. Comparison is by identity, so
// pass the same value given to Add. Removing an unknown sink is a no-op.
func (m *MultiSink) Remove(s EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.sinks {
		if existing == s {
			m.sinks = append(m.sinks[:i], m.sinks[i+1:]...)
			return
		}
	}
}

// Emit implements EventSink, delivering to every attached sink in order.
func (m *MultiSink) Emit(ev Event) {
	m.mu.RLock()
	sinks := make([]EventSink, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.RUnlock()
	for _, s := range sinks {
		s.Emit(ev)
	}
}

// ChannelSink buffers events on a channel for streaming consumers. When the
// buffer is full the oldest event is dropped rather than blocking the
// emitter; a slow consumer degrades observability, never orchestration.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewChannelSink constructs a ChannelSink with the given buffer size
// (minimum 1).
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Emit implements EventSink.
func (c *ChannelSink) Emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.ch <- ev:
			return
		default:
			// Buffer full: drop the oldest queued event and retry.
			select {
			case <-c.ch:
			default:
			}
		}
	}
}

// Events returns the receive side of the sink.
func (c *ChannelSink) Events() <-chan Event { return c.ch }

// Close closes the channel; subsequent Emit calls are discarded. Close is
// idempotent.
func (c *ChannelSink) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
