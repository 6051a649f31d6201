package router

import (
	"context"
	"fmt"
	"time"

	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/logging"
	"github.com/routemesh/routemesh/registry"
)

// Options configures a SmartRouter.
type Options struct {
	// Sink receives lifecycle events; defaults to NoOpSink.
	Sink core.EventSink
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// SmartRouter orchestrates the full analyze → discover → execute →
// synthesize pipeline for one task at a time. It is safe for concurrent
// use; each Route call owns its private Result.
type SmartRouter struct {
	registry    *registry.Registry
	analyzer    Analyzer
	executor    *Executor
	synthesizer Synthesizer
	sink        core.EventSink
	logger      logging.Logger
}

// New constructs a SmartRouter from its collaborators. All four are
// required; options cover the ambient concerns.
func New(reg *registry.Registry, analyzer Analyzer, executor *Executor, synthesizer Synthesizer, optFns ...func(o *Options)) *SmartRouter {
	opts := Options{Sink: core.NoOpSink{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Sink == nil {
		opts.Sink = core.NoOpSink{}
	}
	return &SmartRouter{
		registry:    reg,
		analyzer:    analyzer,
		executor:    executor,
		synthesizer: synthesizer,
		sink:        opts.Sink,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// Route runs one task through the routing state machine and always returns
// a complete Result, never an error: short-circuits (no capabilities, no
// agents), total execution failure and even panics inside a phase all end
// as a terminal Result. Ctx cancellation surfaces as a failed Result.
func (r *SmartRouter) Route(ctx context.Context, input TaskInput) (result *Result) {
	start := time.Now()
	result = &Result{
		TaskID:       input.TaskID,
		OriginalTask: input.Task,
		Status:       StatusPending,
		Timestamp:    start.UTC(),
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("routing panicked: task=%s panic=%v", input.TaskID, rec)
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("internal error: %v", rec)
		}
		result.TotalDuration = time.Since(start)
		r.sink.Emit(core.NewEvent(core.EventRoutingCompleted, input.TaskID, map[string]any{
			"status":       string(result.Status),
			"final_output": result.FinalOutput,
			"duration_ms":  result.TotalDuration.Milliseconds(),
			"total_tokens": result.TotalTokens().Total(),
		}))
	}()

	r.sink.Emit(core.NewEvent(core.EventRoutingStarted, input.TaskID, map[string]any{
		"task": input.Task,
	}))
	r.logger.Info("routing started: task=%s", input.TaskID)

	// Phase 1: analysis.
	result.Status = StatusAnalyzing
	r.sink.Emit(core.NewEvent(core.EventAnalysisStarted, input.TaskID, nil))

	analysis, err := r.analyzer.Analyze(ctx, input.Task, input.TaskID)
	if err != nil {
		return r.fail(result, fmt.Errorf("analysis: %w", err))
	}
	result.Analysis = analysis

	r.sink.Emit(core.NewEvent(core.EventAnalysisCompleted, input.TaskID, map[string]any{
		"capabilities": analysis.DetectedCapabilities,
		"subtasks":     analysis.Subtasks,
		"dependencies": analysis.Dependencies,
		"duration_ms":  analysis.Duration.Milliseconds(),
	}))

	if len(analysis.DetectedCapabilities) == 0 {
		r.logger.Info("no capabilities detected: task=%s", input.TaskID)
		return r.complete(result, OutputNoCapabilities)
	}

	// Phase 2: discovery.
	result.Status = StatusDiscovering
	r.sink.Emit(core.NewEvent(core.EventDiscoveryStarted, input.TaskID, map[string]any{
		"capabilities": analysis.DetectedCapabilities,
	}))

	result.Matches = r.discover(analysis.DetectedCapabilities)

	matched := 0
	for _, m := range result.Matches {
		if m.Matched {
			matched++
		}
	}
	r.sink.Emit(core.NewEvent(core.EventDiscoveryCompleted, input.TaskID, map[string]any{
		"matches":       result.Matches,
		"matched_count": matched,
	}))

	if matched == 0 {
		r.logger.Info("no agents matched: task=%s capabilities=%v", input.TaskID, analysis.DetectedCapabilities)
		return r.complete(result, OutputNoAgents)
	}

	// Phase 3: execution.
	result.Status = StatusExecuting
	executions, err := r.executor.ExecuteWithDependencies(ctx, result.Matches, analysis.Subtasks, input.TaskID, analysis.Dependencies)
	if err != nil {
		return r.fail(result, fmt.Errorf("execution: %w", err))
	}
	result.Executions = executions

	successes := result.SuccessfulExecutions()
	if len(successes) == 0 {
		r.logger.Warn("all executions failed: task=%s", input.TaskID)
		return r.complete(result, OutputAllFailed)
	}

	// Phase 4: synthesis, only when there is more than one voice to merge.
	if len(successes) == 1 {
		return r.complete(result, successes[0].OutputText)
	}

	result.Status = StatusSynthesizing
	r.sink.Emit(core.NewEvent(core.EventSynthesisStarted, input.TaskID, map[string]any{
		"source_count": len(successes),
	}))

	synthesis := r.synthesizer.Synthesize(ctx, input.Task, successes)
	result.Synthesis = synthesis

	r.sink.Emit(core.NewEvent(core.EventSynthesisCompleted, input.TaskID, map[string]any{
		"sources":     synthesis.Sources,
		"duration_ms": synthesis.Duration.Milliseconds(),
	}))

	return r.complete(result, synthesis.Output)
}

// discover resolves each capability to its serving agents, preserving the
// analyzer's capability order and the registry's registration order.
func (r *SmartRouter) discover(capabilities []string) []CapabilityMatch {
	matches := make([]CapabilityMatch, 0, len(capabilities))
	for _, capability := range capabilities {
		agents := r.registry.FindByCapability(capability)
		ids := make([]string, 0, len(agents))
		for _, a := range agents {
			ids = append(ids, a.ID())
		}
		matches = append(matches, CapabilityMatch{
			Capability: capability,
			AgentIDs:   ids,
			Matched:    len(ids) > 0,
		})
	}
	return matches
}

func (r *SmartRouter) complete(result *Result, output string) *Result {
	result.Status = StatusCompleted
	result.FinalOutput = output
	return result
}

func (r *SmartRouter) fail(result *Result, err error) *Result {
	r.logger.Error("routing failed: task=%s err=%v", result.TaskID, err)
	result.Status = StatusFailed
	result.Error = err.Error()
	return result
}
