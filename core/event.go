package core

import "time"

// EventType discriminates lifecycle and visualization events.
type EventType string

// Router lifecycle events. Phase events bracket each orchestration phase;
// routing_completed carries the terminal status whether the task completed,
// short-circuited or failed.
const (
	EventRoutingStarted     EventType = "routing_started"
	EventAnalysisStarted    EventType = "analysis_started"
	EventAnalysisCompleted  EventType = "analysis_completed"
	EventDiscoveryStarted   EventType = "discovery_started"
	EventDiscoveryCompleted EventType = "discovery_completed"
	EventExecutionStarted   EventType = "execution_started"
	EventExecutionCompleted EventType = "execution_completed"
	EventExecutionSkipped   EventType = "execution_skipped"
	EventSynthesisStarted   EventType = "synthesis_started"
	EventSynthesisCompleted EventType = "synthesis_completed"
	EventRoutingCompleted   EventType = "routing_completed"
)

// Graph visualization events. Node/edge updates are emitted separately from
// phase events so UI consumers can render incrementally without parsing
// phase payloads.
const (
	EventGraphUpdate EventType = "graph_update"
)

// Chain pipeline events.
const (
	EventPipelineStarted   EventType = "pipeline_started"
	EventStepStarted       EventType = "step_started"
	EventStepCompleted     EventType = "step_completed"
	EventMessagePassed     EventType = "message_passed"
	EventPipelineCompleted EventType = "pipeline_completed"
)

// Event is the unit of observability. Events are append-only and ordered per
// emitting phase; they are not persisted state, so losing a stream never
// corrupts a task record. Treat as immutable after emission.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	TaskID    string         `json:"task_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent constructs an event with a generated id and UTC timestamp. Data
// may be nil for marker events.
func NewEvent(typ EventType, taskID string, data map[string]any) Event {
	return Event{
		ID:        NewID(),
		Type:      typ,
		TaskID:    taskID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
