package router

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/internal/testutil"
)

func sampleExecutions() []ExecutionResult {
	return []ExecutionResult{
		{AgentID: "researcher", AgentName: "Research Agent", Capability: "research", OutputText: "facts", Success: true},
		{AgentID: "estimator", AgentName: "Estimation Agent", Capability: "estimation", OutputText: "numbers", Success: true},
	}
}

func TestLLMSynthesizer_MergesSources(t *testing.T) {
	m := testutil.NewScriptedModel("one coherent answer")
	s := NewLLMSynthesizer(m)

	res := s.Synthesize(context.Background(), "report", sampleExecutions())

	assert.Equal(t, "one coherent answer", res.Output)
	assert.Equal(t, []string{"researcher", "estimator"}, res.Sources)

	calls := m.Calls()
	assert.Len(t, calls, 1)
	assert.Contains(t, calls[0].Input, "Original task: report")
	assert.Contains(t, calls[0].Input, "facts")
	assert.Contains(t, calls[0].Input, "numbers")
}

func TestLLMSynthesizer_ProviderErrorFallsBackToConcatenation(t *testing.T) {
	m := testutil.NewScriptedModel("").FailAll(fmt.Errorf("provider down"))
	s := NewLLMSynthesizer(m)

	res := s.Synthesize(context.Background(), "report", sampleExecutions())

	assert.Contains(t, res.Output, "[research]\nfacts")
	assert.Contains(t, res.Output, "[estimation]\nnumbers")
	assert.Equal(t, []string{"researcher", "estimator"}, res.Sources)
	assert.Zero(t, res.Tokens.Total())
}
