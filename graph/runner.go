package graph

import (
	"context"
	"sync"

	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/router"
)

// Runner drives a SmartRouter for stream-oriented callers. It owns the hub
// the router emits into, attaches per-task streaming sinks and keeps
// finished results queryable by task id.
type Runner struct {
	router *router.SmartRouter
	hub    *core.MultiSink

	mu      sync.RWMutex
	results map[string]*router.Result
}

// NewRunner constructs a runner over the router and the hub the router was
// built with. The hub must be the router's event sink (typically shared
// with a Visualizer) or per-task streams will see nothing.
func NewRunner(r *router.SmartRouter, hub *core.MultiSink) *Runner {
	return &Runner{router: r, hub: hub, results: map[string]*router.Result{}}
}

// Run routes one task synchronously and records the result.
func (r *Runner) Run(ctx context.Context, task string) *router.Result {
	input := router.NewTaskInput(task)
	result := r.router.Route(ctx, input)
	r.store(result)
	return result
}

// Stream routes a task in the background. The event channel carries the
// task's own events (other concurrent tasks are filtered out) and closes
// once routing finishes; the result channel then yields exactly one value.
func (r *Runner) Stream(ctx context.Context, task string) (<-chan core.Event, <-chan *router.Result) {
	input := router.NewTaskInput(task)

	sink := core.NewChannelSink(256)
	filtered := &taskFilterSink{taskID: input.TaskID, next: sink}
	r.hub.Add(filtered)

	done := make(chan *router.Result, 1)
	go func() {
		result := r.router.Route(ctx, input)
		r.hub.Remove(filtered)
		sink.Close()
		r.store(result)
		done <- result
		close(done)
	}()

	return sink.Events(), done
}

// Result returns the recorded result for a finished task.
func (r *Runner) Result(taskID string) (*router.Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[taskID]
	return res, ok
}

// Results returns all recorded results, unordered.
func (r *Runner) Results() []*router.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*router.Result, 0, len(r.results))
	for _, res := range r.results {
		out = append(out, res)
	}
	return out
}

// Forget drops a recorded result.
func (r *Runner) Forget(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.results, taskID)
}

func (r *Runner) store(result *router.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.TaskID] = result
}

// taskFilterSink forwards only one task's events. A pointer type so it can
// be detached from the hub by identity once the task finishes.
type taskFilterSink struct {
	taskID string
	next   core.EventSink
}

func (s *taskFilterSink) Emit(ev core.Event) {
	if ev.TaskID == s.taskID {
		s.next.Emit(ev)
	}
}
