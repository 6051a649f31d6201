package chain

import (
	"time"

	"github.com/routemesh/routemesh/core"
)

// Status tracks a pipeline run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StepResult records one step of a pipeline run.
type StepResult struct {
	StepName   string          `json:"step_name"`
	AgentID    string          `json:"agent_id"`
	InputText  string          `json:"input_text"`
	OutputText string          `json:"output_text"`
	Duration   time.Duration   `json:"duration_ms"`
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	Tokens     core.TokenUsage `json:"tokens"`
}

// PipelineResult is the full record of one pipeline run. On failure, Steps
// holds every step up to and including the one that failed; FinalOutput is
// empty.
type PipelineResult struct {
	PipelineID    string        `json:"pipeline_id"`
	Pipeline      string        `json:"pipeline"`
	OriginalInput string        `json:"original_input"`
	Steps         []StepResult  `json:"steps"`
	FinalOutput   string        `json:"final_output"`
	TotalDuration time.Duration `json:"total_duration_ms"`
	Status        Status        `json:"status"`
	Error         string        `json:"error,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// TotalTokens sums token usage across all executed steps.
func (r *PipelineResult) TotalTokens() core.TokenUsage {
	var total core.TokenUsage
	for _, s := range r.Steps {
		total.Add(s.Tokens)
	}
	return total
}
