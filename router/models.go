package router

import (
	"fmt"
	"time"

	"github.com/routemesh/routemesh/core"
)

// Status tracks a task through the routing state machine.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAnalyzing    Status = "analyzing"
	StatusDiscovering  Status = "discovering"
	StatusExecuting    Status = "executing"
	StatusSynthesizing Status = "synthesizing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Terminal outputs for the short-circuit and total-failure outcomes. These
// exact strings are part of the contract; tests and downstream consumers
// match on them.
const (
	OutputNoCapabilities = "No capabilities detected for this task."
	OutputNoAgents       = "No agents found for required capabilities."
	OutputAllFailed      = "All executions failed."
)

// ErrCyclicDependency is returned when the analyzer's dependency map
// contains a cycle. Detected before any execution in the cycle starts.
var ErrCyclicDependency = fmt.Errorf("cyclic capability dependency")

// TaskInput is one incoming task. Immutable after construction.
type TaskInput struct {
	Task      string    `json:"task"`
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTaskInput wraps task text with a generated short id and timestamp.
func NewTaskInput(task string) TaskInput {
	return TaskInput{Task: task, TaskID: core.NewShortID(), Timestamp: time.Now().UTC()}
}

// AnalysisResult is the analyzer's verdict for one task. Produced exactly
// once per task and never mutated afterward.
type AnalysisResult struct {
	TaskID               string              `json:"task_id"`
	OriginalTask         string              `json:"original_task"`
	DetectedCapabilities []string            `json:"detected_capabilities"`
	Subtasks             map[string]string   `json:"subtasks"`
	Dependencies         map[string][]string `json:"dependencies,omitempty"`
	// Unparseable distinguishes "the model's output was malformed" from
	// "genuinely nothing detected". Both yield empty capabilities and the
	// same short-circuit, but callers may want to retry the former.
	Unparseable bool          `json:"unparseable,omitempty"`
	RawOutput   string        `json:"raw_output,omitempty"`
	Duration    time.Duration `json:"duration_ms"`
}

// CapabilityMatch pairs one detected capability with the agents that serve
// it, in registration order. Matched is true iff AgentIDs is non-empty.
type CapabilityMatch struct {
	Capability string   `json:"capability"`
	AgentIDs   []string `json:"agent_ids"`
	Matched    bool     `json:"matched"`
}

// ExecutionResult records one (capability, agent) execution attempt.
// OutputText is empty and Error set when Success is false. Skipped marks a
// capability that never ran because a prerequisite failed.
type ExecutionResult struct {
	AgentID    string          `json:"agent_id"`
	AgentName  string          `json:"agent_name"`
	Capability string          `json:"capability"`
	InputText  string          `json:"input_text"`
	OutputText string          `json:"output_text"`
	Duration   time.Duration   `json:"duration_ms"`
	Success    bool            `json:"success"`
	Skipped    bool            `json:"skipped,omitempty"`
	Error      string          `json:"error,omitempty"`
	Tokens     core.TokenUsage `json:"tokens"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// SynthesisResult is the merged answer built from two or more successful
// executions. Produced at most once per task.
type SynthesisResult struct {
	Output   string          `json:"synthesized_output"`
	Duration time.Duration   `json:"duration_ms"`
	Sources  []string        `json:"sources"`
	Tokens   core.TokenUsage `json:"tokens"`
}

// Result is the single source of truth for one routed task, built
// incrementally as phases progress. Observers reading it mid-flight see a
// partial, status-tagged snapshot; on failure the phases that completed are
// preserved.
type Result struct {
	TaskID        string            `json:"task_id"`
	OriginalTask  string            `json:"original_task"`
	Analysis      *AnalysisResult   `json:"analysis"`
	Matches       []CapabilityMatch `json:"matches"`
	Executions    []ExecutionResult `json:"executions"`
	Synthesis     *SynthesisResult  `json:"synthesis,omitempty"`
	FinalOutput   string            `json:"final_output"`
	TotalDuration time.Duration     `json:"total_duration_ms"`
	Status        Status            `json:"status"`
	Error         string            `json:"error,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// TotalTokens sums token usage across all executions plus the synthesis, if
// one ran.
func (r *Result) TotalTokens() core.TokenUsage {
	var total core.TokenUsage
	for _, e := range r.Executions {
		total.Add(e.Tokens)
	}
	if r.Synthesis != nil {
		total.Add(r.Synthesis.Tokens)
	}
	return total
}

// SuccessfulExecutions returns the executions that succeeded, in result
// order.
func (r *Result) SuccessfulExecutions() []ExecutionResult {
	var out []ExecutionResult
	for _, e := range r.Executions {
		if e.Success {
			out = append(out, e)
		}
	}
	return out
}
