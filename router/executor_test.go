package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/internal/testutil"
	"github.com/routemesh/routemesh/registry"
)

func newTestExecutor(t *testing.T, sink core.EventSink, agents ...core.Agent) (*Executor, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	for _, a := range agents {
		if err := reg.Register(a, false); err != nil {
			t.Fatalf("register %s: %v", a.ID(), err)
		}
	}
	exec := NewExecutor(reg, func(o *ExecutorOptions) {
		o.Timeout = 5 * time.Second
		o.Sink = sink
	})
	return exec, reg
}

func matchFor(capability string, agentIDs ...string) CapabilityMatch {
	return CapabilityMatch{Capability: capability, AgentIDs: agentIDs, Matched: len(agentIDs) > 0}
}

func TestExecuteOnAgent_Success(t *testing.T) {
	rec := testutil.NewEventRecorder()
	stub := testutil.NewStubAgent("echo-1", "echo")
	stub.Usage = core.TokenUsage{InputTokens: 3, OutputTokens: 4}
	exec, _ := newTestExecutor(t, rec, stub)

	res := exec.ExecuteOnAgent(context.Background(), stub, "echo", "say hi", "t1")

	assert.True(t, res.Success)
	assert.Equal(t, "echo-1 handled: say hi", res.OutputText)
	assert.Equal(t, "echo", res.Capability)
	assert.Equal(t, core.TokenUsage{InputTokens: 3, OutputTokens: 4}, res.Tokens)
	assert.Equal(t, 1, rec.Count(core.EventExecutionStarted))
	assert.Equal(t, 1, rec.Count(core.EventExecutionCompleted))
}

func TestExecuteOnAgent_AgentErrorBecomesFailedResult(t *testing.T) {
	rec := testutil.NewEventRecorder()
	stub := testutil.NewStubAgent("broken", "echo")
	stub.Err = errors.New("boom")
	exec, _ := newTestExecutor(t, rec, stub)

	res := exec.ExecuteOnAgent(context.Background(), stub, "echo", "say hi", "t1")

	assert.False(t, res.Success)
	assert.Equal(t, "boom", res.Error)
	assert.Empty(t, res.OutputText)

	completed := rec.OfType(core.EventExecutionCompleted)
	assert.Len(t, completed, 1)
	assert.Equal(t, false, completed[0].Data["success"])
}

func TestExecuteOnAgent_Timeout(t *testing.T) {
	stub := testutil.NewStubAgent("slow", "echo")
	stub.Delay = 200 * time.Millisecond
	reg := registry.New()
	assert.NoError(t, reg.Register(stub, false))
	exec := NewExecutor(reg, func(o *ExecutorOptions) {
		o.Timeout = 10 * time.Millisecond
	})

	res := exec.ExecuteOnAgent(context.Background(), stub, "echo", "say hi", "t1")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "timed out")
}

func TestExecuteAll_PreservesMatchOrder(t *testing.T) {
	slow := testutil.NewStubAgent("slow", "research")
	slow.Delay = 50 * time.Millisecond
	fast := testutil.NewStubAgent("fast", "echo")
	exec, _ := newTestExecutor(t, core.NoOpSink{}, slow, fast)

	results := exec.ExecuteAll(context.Background(),
		[]CapabilityMatch{matchFor("research", "slow"), matchFor("echo", "fast")},
		map[string]string{"research": "dig", "echo": "say"},
		"t1")

	assert.Len(t, results, 2)
	assert.Equal(t, "slow", results[0].AgentID)
	assert.Equal(t, "fast", results[1].AgentID)
}

func TestExecuteAll_RunsConcurrently(t *testing.T) {
	a := testutil.NewStubAgent("a", "research")
	a.Delay = 60 * time.Millisecond
	b := testutil.NewStubAgent("b", "echo")
	b.Delay = 60 * time.Millisecond
	exec, _ := newTestExecutor(t, core.NoOpSink{}, a, b)

	start := time.Now()
	results := exec.ExecuteAll(context.Background(),
		[]CapabilityMatch{matchFor("research", "a"), matchFor("echo", "b")},
		map[string]string{"research": "dig", "echo": "say"},
		"t1")
	elapsed := time.Since(start)

	assert.Len(t, results, 2)
	assert.Less(t, elapsed, 110*time.Millisecond, "independent executions should overlap")
}

func TestExecuteAll_SkipsUnmatchedAndSubtaskless(t *testing.T) {
	a := testutil.NewStubAgent("a", "research")
	exec, _ := newTestExecutor(t, core.NoOpSink{}, a)

	results := exec.ExecuteAll(context.Background(),
		[]CapabilityMatch{
			matchFor("research", "a"),
			{Capability: "unmatched"},
			matchFor("estimation", "a"), // matched but analyzer produced no subtask
		},
		map[string]string{"research": "dig"},
		"t1")

	assert.Len(t, results, 1)
	assert.Equal(t, "research", results[0].Capability)
}

func TestExecuteWithDependencies_OrdersLevels(t *testing.T) {
	research := testutil.NewStubAgent("researcher", "research")
	research.Delay = 30 * time.Millisecond
	summarize := testutil.NewStubAgent("summarizer", "summarization")
	exec, _ := newTestExecutor(t, core.NoOpSink{}, research, summarize)

	results, err := exec.ExecuteWithDependencies(context.Background(),
		[]CapabilityMatch{matchFor("research", "researcher"), matchFor("summarization", "summarizer")},
		map[string]string{"research": "gather", "summarization": "condense"},
		"t1",
		map[string][]string{"summarization": {"research"}})

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "researcher", results[0].AgentID)
	assert.Equal(t, "summarizer", results[1].AgentID)
	assert.False(t, results[1].StartedAt.Before(results[0].FinishedAt),
		"dependent capability must start after its prerequisite finished")
}

func TestExecuteWithDependencies_SkipsDependentOfFailedPrereq(t *testing.T) {
	rec := testutil.NewEventRecorder()
	research := testutil.NewStubAgent("researcher", "research")
	research.Err = errors.New("offline")
	summarize := testutil.NewStubAgent("summarizer", "summarization")
	exec, _ := newTestExecutor(t, rec, research, summarize)

	results, err := exec.ExecuteWithDependencies(context.Background(),
		[]CapabilityMatch{matchFor("research", "researcher"), matchFor("summarization", "summarizer")},
		map[string]string{"research": "gather", "summarization": "condense"},
		"t1",
		map[string][]string{"summarization": {"research"}})

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[1].Skipped)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, `"research"`)
	assert.Empty(t, summarize.Received(), "skipped agent must not run")
	assert.Equal(t, 1, rec.Count(core.EventExecutionSkipped))
}

func TestExecuteWithDependencies_IgnoresUnknownPrereq(t *testing.T) {
	summarize := testutil.NewStubAgent("summarizer", "summarization")
	exec, _ := newTestExecutor(t, core.NoOpSink{}, summarize)

	results, err := exec.ExecuteWithDependencies(context.Background(),
		[]CapabilityMatch{matchFor("summarization", "summarizer")},
		map[string]string{"summarization": "condense"},
		"t1",
		map[string][]string{"summarization": {"telepathy"}})

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestExecuteWithDependencies_CycleFailsBeforeExecution(t *testing.T) {
	a := testutil.NewStubAgent("a", "research")
	b := testutil.NewStubAgent("b", "summarization")
	exec, _ := newTestExecutor(t, core.NoOpSink{}, a, b)

	_, err := exec.ExecuteWithDependencies(context.Background(),
		[]CapabilityMatch{matchFor("research", "a"), matchFor("summarization", "b")},
		map[string]string{"research": "gather", "summarization": "condense"},
		"t1",
		map[string][]string{
			"research":      {"summarization"},
			"summarization": {"research"},
		})

	assert.ErrorIs(t, err, ErrCyclicDependency)
	assert.Empty(t, a.Received())
	assert.Empty(t, b.Received())
}

func TestExecuteWithDependencies_SelfDependencyIsCycle(t *testing.T) {
	a := testutil.NewStubAgent("a", "research")
	exec, _ := newTestExecutor(t, core.NoOpSink{}, a)

	_, err := exec.ExecuteWithDependencies(context.Background(),
		[]CapabilityMatch{matchFor("research", "a")},
		map[string]string{"research": "gather"},
		"t1",
		map[string][]string{"research": {"research"}})

	assert.ErrorIs(t, err, ErrCyclicDependency)
}

func TestDependencyLevels_Diamond(t *testing.T) {
	levels, err := dependencyLevels(
		[]string{"a", "b", "c", "d"},
		map[string][]string{
			"b": {"a"},
			"c": {"a"},
			"d": {"b", "c"},
		})

	assert.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}, {"d"}}, levels)
}
