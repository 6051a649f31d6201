// Package router implements the smart task-routing engine: analyze a task
// into required capabilities, discover agents for each capability in the
// registry, execute the subtasks (concurrently, or dependency-ordered when
// the analysis declares prerequisites) and synthesize multiple successful
// outputs into one answer.
//
// The SmartRouter owns the per-task lifecycle
//
//	pending → analyzing → discovering → executing → (synthesizing) → completed
//
// with failed reachable from any phase on an orchestration-level error.
// Zero detected capabilities and zero matched agents are normal terminal
// outcomes, not failures; so is "every execution failed". Callers always
// get a complete Result record; the router never returns an error.
//
// Every phase boundary emits events to the configured core.EventSink so an
// external observer can follow execution live; the graph package derives a
// node/edge visualization from the same stream.
package router
