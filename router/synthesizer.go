package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/routemesh/routemesh/logging"
	"github.com/routemesh/routemesh/model"
)

// Synthesizer merges two or more successful execution outputs into a single
// coherent answer. It is only consulted when more than one execution
// succeeded; a lone success is passed through verbatim by the router.
type Synthesizer interface {
	Synthesize(ctx context.Context, task string, executions []ExecutionResult) *SynthesisResult
}

// LLMSynthesizerOptions configures an LLMSynthesizer.
type LLMSynthesizerOptions struct {
	Logger logging.Logger
}

// LLMSynthesizer prompts a model with the original task and each successful
// output. A provider failure degrades to a plain concatenation of the
// source outputs, so synthesis never fails a task that already has results.
type LLMSynthesizer struct {
	model  model.Model
	logger logging.Logger
}

// NewLLMSynthesizer constructs a synthesizer over the given model.
func NewLLMSynthesizer(m model.Model, optFns ...func(o *LLMSynthesizerOptions)) *LLMSynthesizer {
	opts := LLMSynthesizerOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LLMSynthesizer{model: m, logger: logging.OrNoOp(opts.Logger)}
}

// Synthesize implements Synthesizer. Every input execution is expected to
// be successful; callers filter before the call.
func (s *LLMSynthesizer) Synthesize(ctx context.Context, task string, executions []ExecutionResult) *SynthesisResult {
	start := time.Now()
	result := &SynthesisResult{Sources: make([]string, 0, len(executions))}
	for _, e := range executions {
		result.Sources = append(result.Sources, e.AgentID)
	}

	resp, err := s.model.Complete(ctx, model.Request{
		Instructions: synthesisInstructions,
		Input:        s.buildPrompt(task, executions),
	})
	if err != nil {
		s.logger.Warn("synthesis degraded to concatenation: %v", err)
		result.Output = concatenateOutputs(executions)
		result.Duration = time.Since(start)
		return result
	}

	result.Output = resp.Text
	result.Tokens = resp.Usage
	result.Duration = time.Since(start)
	return result
}

const synthesisInstructions = `You are a response synthesizer.

You receive the original task and the partial results produced by several
specialist agents. Combine them into ONE coherent, well-structured answer:

- Cover every partial result; do not drop information
- Resolve overlaps and order the content logically
- Write as a single voice; do not mention the agents
- Match the language of the original task`

func (s *LLMSynthesizer) buildPrompt(task string, executions []ExecutionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original task: %s\n\nPartial results:\n", task)
	for i, e := range executions {
		fmt.Fprintf(&b, "\n[%d] %s (%s):\n%s\n", i+1, e.AgentName, e.Capability, e.OutputText)
	}
	b.WriteString("\nCombine these into one final answer.")
	return b.String()
}

// concatenateOutputs is the degraded no-model fallback: each source output
// under a capability heading, in execution order.
func concatenateOutputs(executions []ExecutionResult) string {
	var b strings.Builder
	for i, e := range executions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", e.Capability, e.OutputText)
	}
	return b.String()
}
