package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/internal/testutil"
	"github.com/routemesh/routemesh/registry"
	"github.com/routemesh/routemesh/router"
)

func TestVisualizer_BuildsGraphFromLifecycle(t *testing.T) {
	rec := testutil.NewEventRecorder()
	v := NewVisualizer(rec)

	v.Emit(core.NewEvent(core.EventRoutingStarted, "t1", map[string]any{"task": "write a report"}))
	v.Emit(core.NewEvent(core.EventAnalysisStarted, "t1", nil))
	v.Emit(core.NewEvent(core.EventAnalysisCompleted, "t1", nil))
	v.Emit(core.NewEvent(core.EventDiscoveryCompleted, "t1", map[string]any{
		"matches": []router.CapabilityMatch{
			{Capability: "research", AgentIDs: []string{"researcher"}, Matched: true},
			{Capability: "telepathy", Matched: false},
		},
	}))
	v.Emit(core.NewEvent(core.EventExecutionStarted, "t1", map[string]any{"agent_id": "researcher"}))
	v.Emit(core.NewEvent(core.EventExecutionCompleted, "t1", map[string]any{"agent_id": "researcher", "success": true}))
	v.Emit(core.NewEvent(core.EventRoutingCompleted, "t1", map[string]any{"status": "completed"}))

	g, ok := v.Graph("t1")
	assert.True(t, ok)

	nodes := g.Nodes()
	assert.Len(t, nodes, 3) // task, analyzer, researcher; unmatched capability adds nothing
	assert.Equal(t, "task", nodes[0].ID)
	assert.Equal(t, StateCompleted, nodes[0].State)
	assert.Equal(t, StateCompleted, nodes[1].State)
	assert.Equal(t, "researcher", nodes[2].ID)
	assert.Equal(t, StateCompleted, nodes[2].State)

	edges := g.Edges()
	assert.Len(t, edges, 2)
	assert.Equal(t, Edge{From: "task", To: "analyzer"}, edges[0])
	assert.Equal(t, Edge{From: "analyzer", To: "researcher", Label: "research"}, edges[1])

	updates := rec.OfType(core.EventGraphUpdate)
	assert.NotEmpty(t, updates)
	actions := map[string]int{}
	for _, ev := range updates {
		action, _ := ev.Data["action"].(string)
		actions[action]++
	}
	assert.Equal(t, 3, actions[ActionAddNode])
	assert.Equal(t, 2, actions[ActionAddEdge])
	assert.GreaterOrEqual(t, actions[ActionUpdateNode], 3)
}

func TestVisualizer_FailedExecutionAndSynthesis(t *testing.T) {
	v := NewVisualizer(nil)

	v.Emit(core.NewEvent(core.EventRoutingStarted, "t1", map[string]any{"task": "report"}))
	v.Emit(core.NewEvent(core.EventAnalysisStarted, "t1", nil))
	v.Emit(core.NewEvent(core.EventDiscoveryCompleted, "t1", map[string]any{
		"matches": []router.CapabilityMatch{
			{Capability: "research", AgentIDs: []string{"researcher"}, Matched: true},
			{Capability: "estimation", AgentIDs: []string{"estimator"}, Matched: true},
			{Capability: "analysis", AgentIDs: []string{"analyst"}, Matched: true},
		},
	}))
	v.Emit(core.NewEvent(core.EventExecutionCompleted, "t1", map[string]any{"agent_id": "researcher", "success": true}))
	v.Emit(core.NewEvent(core.EventExecutionCompleted, "t1", map[string]any{"agent_id": "estimator", "success": false}))
	v.Emit(core.NewEvent(core.EventExecutionCompleted, "t1", map[string]any{"agent_id": "analyst", "success": true}))
	v.Emit(core.NewEvent(core.EventSynthesisStarted, "t1", nil))

	g, _ := v.Graph("t1")
	byID := map[string]Node{}
	for _, n := range g.Nodes() {
		byID[n.ID] = n
	}
	assert.Equal(t, StateFailed, byID["estimator"].State)
	assert.Equal(t, StateRunning, byID[synthesizerNodeID].State)

	// Only the successful agents feed the synthesizer.
	var intoSynth []string
	for _, e := range g.Edges() {
		if e.To == synthesizerNodeID {
			intoSynth = append(intoSynth, e.From)
		}
	}
	assert.ElementsMatch(t, []string{"researcher", "analyst"}, intoSynth)
}

func TestVisualizer_TruncatesTaskLabel(t *testing.T) {
	v := NewVisualizer(nil)
	long := "write a very long and winding report about everything under the sun and then some"
	v.Emit(core.NewEvent(core.EventRoutingStarted, "t1", map[string]any{"task": long}))

	g, _ := v.Graph("t1")
	label := g.Nodes()[0].Label
	assert.Len(t, label, taskLabelLimit)
	assert.Contains(t, label, "...")
}

func TestRunner_StreamDeliversTaskEventsAndResult(t *testing.T) {
	hub := core.NewMultiSink()
	reg := registry.New()
	stub := testutil.NewStubAgent("researcher", "research")
	assert.NoError(t, reg.Register(stub, false))

	analyzer := scriptedAnalyzer{
		capabilities: []string{"research"},
		subtasks:     map[string]string{"research": "dig"},
	}
	exec := router.NewExecutor(reg, func(o *router.ExecutorOptions) {
		o.Sink = hub
		o.Timeout = 2 * time.Second
	})
	r := router.New(reg, analyzer, exec, failingSynthesizer{}, func(o *router.Options) {
		o.Sink = hub
	})
	runner := NewRunner(r, hub)

	events, done := runner.Stream(context.Background(), "find facts")

	var types []core.EventType
	for ev := range events {
		types = append(types, ev.Type)
	}
	res := <-done

	assert.Equal(t, router.StatusCompleted, res.Status)
	assert.Contains(t, types, core.EventRoutingStarted)
	assert.Contains(t, types, core.EventRoutingCompleted)

	stored, ok := runner.Result(res.TaskID)
	assert.True(t, ok)
	assert.Equal(t, res, stored)
}

func TestRunner_RunRecordsResult(t *testing.T) {
	hub := core.NewMultiSink()
	reg := registry.New()
	exec := router.NewExecutor(reg, func(o *router.ExecutorOptions) { o.Sink = hub })
	r := router.New(reg, scriptedAnalyzer{}, exec, failingSynthesizer{}, func(o *router.Options) { o.Sink = hub })
	runner := NewRunner(r, hub)

	res := runner.Run(context.Background(), "gibberish")
	assert.Equal(t, router.StatusCompleted, res.Status)

	all := runner.Results()
	assert.Len(t, all, 1)

	runner.Forget(res.TaskID)
	_, ok := runner.Result(res.TaskID)
	assert.False(t, ok)
}

// scriptedAnalyzer returns a fixed verdict without a model.
type scriptedAnalyzer struct {
	capabilities []string
	subtasks     map[string]string
}

func (a scriptedAnalyzer) Analyze(ctx context.Context, task, taskID string) (*router.AnalysisResult, error) {
	return &router.AnalysisResult{
		TaskID:               taskID,
		OriginalTask:         task,
		DetectedCapabilities: a.capabilities,
		Subtasks:             a.subtasks,
	}, nil
}

// failingSynthesizer should never be reached in these tests.
type failingSynthesizer struct{}

func (failingSynthesizer) Synthesize(ctx context.Context, task string, executions []router.ExecutionResult) *router.SynthesisResult {
	return &router.SynthesisResult{Output: "unexpected", Sources: nil}
}
