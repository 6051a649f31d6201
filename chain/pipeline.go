package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/routemesh/routemesh/auth"
	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/logging"
)

// previewLimit bounds the input/output previews carried in step events.
const previewLimit = 200

// Options configures a Pipeline.
type Options struct {
	// Sink receives pipeline events; defaults to NoOpSink.
	Sink core.EventSink
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Pipeline is an ordered sequence of agents. Each run threads one piece of
// content through every step in order, feeding each step the previous
// step's output. Safe for concurrent runs; each run owns its result.
type Pipeline struct {
	name   string
	steps  []core.Agent
	sink   core.EventSink
	logger logging.Logger
}

// New constructs a named pipeline over the given steps, in order.
func New(name string, steps []core.Agent, optFns ...func(o *Options)) *Pipeline {
	opts := Options{Sink: core.NoOpSink{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Sink == nil {
		opts.Sink = core.NoOpSink{}
	}
	return &Pipeline{
		name:   name,
		steps:  steps,
		sink:   opts.Sink,
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Name returns the pipeline's name.
func (p *Pipeline) Name() string { return p.name }

// Steps returns the step agents in order.
func (p *Pipeline) Steps() []core.Agent {
	steps := make([]core.Agent, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// Run executes the pipeline on input under the caller's permissions. The
// first failed step stops the run: its error is recorded, the remaining
// steps never execute and Status is failed. Run never returns an error;
// the result carries the outcome.
func (p *Pipeline) Run(ctx context.Context, caller auth.CallerContext, input string) *PipelineResult {
	start := time.Now()
	result := &PipelineResult{
		PipelineID:    core.NewShortID(),
		Pipeline:      p.name,
		OriginalInput: input,
		Status:        StatusRunning,
		Timestamp:     start.UTC(),
	}

	stepNames := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		stepNames = append(stepNames, s.Name())
	}
	p.sink.Emit(core.NewEvent(core.EventPipelineStarted, result.PipelineID, map[string]any{
		"pipeline": p.name,
		"steps":    stepNames,
	}))
	p.logger.Info("pipeline started: name=%s id=%s steps=%d", p.name, result.PipelineID, len(p.steps))

	current := input
	sender := "pipeline"
	for i, step := range p.steps {
		stepResult := p.runStep(ctx, caller, step, current, sender, result.PipelineID)
		result.Steps = append(result.Steps, stepResult)

		if !stepResult.Success {
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("Step '%s' failed: %s", step.Name(), stepResult.Error)
			p.logger.Warn("pipeline failed: name=%s id=%s step=%s", p.name, result.PipelineID, step.Name())
			break
		}

		current = stepResult.OutputText
		sender = step.ID()

		if i < len(p.steps)-1 {
			next := p.steps[i+1]
			p.sink.Emit(core.NewEvent(core.EventMessagePassed, result.PipelineID, map[string]any{
				"from":    step.ID(),
				"to":      next.ID(),
				"preview": truncate(current, previewLimit),
			}))
		}
	}

	if result.Status != StatusFailed {
		result.Status = StatusCompleted
		result.FinalOutput = current
	}
	result.TotalDuration = time.Since(start)

	p.sink.Emit(core.NewEvent(core.EventPipelineCompleted, result.PipelineID, map[string]any{
		"pipeline":     p.name,
		"status":       string(result.Status),
		"duration_ms":  result.TotalDuration.Milliseconds(),
		"total_tokens": result.TotalTokens().Total(),
	}))
	return result
}

func (p *Pipeline) runStep(ctx context.Context, caller auth.CallerContext, step core.Agent, input, sender, pipelineID string) StepResult {
	start := time.Now()

	p.sink.Emit(core.NewEvent(core.EventStepStarted, pipelineID, map[string]any{
		"step":          step.Name(),
		"agent_id":      step.ID(),
		"input_preview": truncate(input, previewLimit),
	}))

	resp, err := step.ReceiveMessage(ctx, caller, input, sender, pipelineID)

	result := StepResult{
		StepName:  step.Name(),
		AgentID:   step.ID(),
		InputText: input,
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Success = true
		result.OutputText = resp.Content
		result.Tokens = resp.Usage
	}

	data := map[string]any{
		"step":        step.Name(),
		"agent_id":    step.ID(),
		"success":     result.Success,
		"duration_ms": result.Duration.Milliseconds(),
	}
	if result.Success {
		data["output_preview"] = truncate(result.OutputText, previewLimit)
	} else {
		data["error"] = result.Error
	}
	p.sink.Emit(core.NewEvent(core.EventStepCompleted, pipelineID, data))

	return result
}

// truncate keeps the first limit characters and marks the cut with an
// ellipsis.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
