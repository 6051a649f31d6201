package graph

import (
	"fmt"
	"sync"

	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/router"
)

// Well-known node ids within one task's graph. Agent nodes use the agent's
// own id.
const (
	taskNodeID        = "task"
	analyzerNodeID    = "analyzer"
	synthesizerNodeID = "synthesizer"
)

// Graph-update actions carried in graph_update event payloads.
const (
	ActionAddNode    = "add_node"
	ActionUpdateNode = "update_node"
	ActionAddEdge    = "add_edge"
)

// taskLabelLimit bounds the task node label so UIs stay readable.
const taskLabelLimit = 60

// Visualizer is an EventSink that watches router lifecycle events and
// derives incremental graph_update events for a downstream sink. It builds
// one Graph per task, queryable after (or during) the run.
//
// Attach it next to other sinks on a MultiSink; it never re-emits the
// lifecycle events it consumes, only the graph_update events it derives.
type Visualizer struct {
	out core.EventSink

	mu     sync.RWMutex
	graphs map[string]*Graph
}

// NewVisualizer constructs a visualizer emitting graph updates to out. A
// nil out keeps the graphs queryable without emitting anything.
func NewVisualizer(out core.EventSink) *Visualizer {
	if out == nil {
		out = core.NoOpSink{}
	}
	return &Visualizer{out: out, graphs: map[string]*Graph{}}
}

// Graph returns the accumulated graph for a task, or false when the task
// was never seen.
func (v *Visualizer) Graph(taskID string) (*Graph, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	g, ok := v.graphs[taskID]
	return g, ok
}

// Forget drops a task's graph. Long-lived visualizers call this once a
// task's visualization is no longer needed.
func (v *Visualizer) Forget(taskID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.graphs, taskID)
}

func (v *Visualizer) graphFor(taskID string) *Graph {
	v.mu.Lock()
	defer v.mu.Unlock()
	g, ok := v.graphs[taskID]
	if !ok {
		g = NewGraph()
		v.graphs[taskID] = g
	}
	return g
}

// Emit implements core.EventSink.
func (v *Visualizer) Emit(ev core.Event) {
	if ev.TaskID == "" {
		return
	}
	g := v.graphFor(ev.TaskID)

	switch ev.Type {
	case core.EventRoutingStarted:
		label, _ := ev.Data["task"].(string)
		v.addNode(g, ev.TaskID, Node{
			ID:    taskNodeID,
			Label: truncate(label, taskLabelLimit),
			Kind:  KindTask,
			State: StateRunning,
		})

	case core.EventAnalysisStarted:
		v.addNode(g, ev.TaskID, Node{ID: analyzerNodeID, Label: "Analyzer", Kind: KindAnalyzer, State: StateRunning})
		v.addEdge(g, ev.TaskID, Edge{From: taskNodeID, To: analyzerNodeID})

	case core.EventAnalysisCompleted:
		v.updateNode(g, ev.TaskID, analyzerNodeID, StateCompleted)

	case core.EventDiscoveryCompleted:
		v.addDiscoveredAgents(g, ev)

	case core.EventExecutionStarted:
		if id, ok := ev.Data["agent_id"].(string); ok {
			v.updateNode(g, ev.TaskID, id, StateRunning)
		}

	case core.EventExecutionCompleted:
		id, _ := ev.Data["agent_id"].(string)
		if id == "" {
			return
		}
		state := StateFailed
		if ok, _ := ev.Data["success"].(bool); ok {
			state = StateCompleted
		}
		v.updateNode(g, ev.TaskID, id, state)

	case core.EventExecutionSkipped:
		if capability, ok := ev.Data["capability"].(string); ok {
			for _, n := range g.Nodes() {
				if n.Kind == KindAgent && hasEdgeLabel(g, n.ID, capability) {
					v.updateNode(g, ev.TaskID, n.ID, StateSkipped)
				}
			}
		}

	case core.EventSynthesisStarted:
		v.addNode(g, ev.TaskID, Node{ID: synthesizerNodeID, Label: "Synthesizer", Kind: KindSynthesizer, State: StateRunning})
		for _, n := range g.Nodes() {
			if n.Kind == KindAgent && n.State == StateCompleted {
				v.addEdge(g, ev.TaskID, Edge{From: n.ID, To: synthesizerNodeID})
			}
		}

	case core.EventSynthesisCompleted:
		v.updateNode(g, ev.TaskID, synthesizerNodeID, StateCompleted)

	case core.EventRoutingCompleted:
		state := StateCompleted
		if status, _ := ev.Data["status"].(string); status == "failed" {
			state = StateFailed
		}
		v.updateNode(g, ev.TaskID, taskNodeID, state)
	}
}

// addDiscoveredAgents adds one pending node per selected agent with an edge
// from the analyzer labelled by the capability. The discovery payload's
// matches field is typed when it travels in-process and generic when it was
// decoded from JSON; both shapes are handled.
func (v *Visualizer) addDiscoveredAgents(g *Graph, ev core.Event) {
	for _, m := range decodeMatches(ev.Data["matches"]) {
		if !m.matched || len(m.agentIDs) == 0 {
			continue
		}
		agentID := m.agentIDs[0]
		v.addNode(g, ev.TaskID, Node{ID: agentID, Label: agentID, Kind: KindAgent, State: StatePending})
		v.addEdge(g, ev.TaskID, Edge{From: analyzerNodeID, To: agentID, Label: m.capability})
	}
}

type discoveredMatch struct {
	capability string
	agentIDs   []string
	matched    bool
}

func decodeMatches(raw any) []discoveredMatch {
	switch typed := raw.(type) {
	case []router.CapabilityMatch:
		out := make([]discoveredMatch, 0, len(typed))
		for _, m := range typed {
			out = append(out, discoveredMatch{capability: m.Capability, agentIDs: m.AgentIDs, matched: m.Matched})
		}
		return out
	case []any:
		generic := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if m, ok := item.(map[string]any); ok {
				generic = append(generic, m)
			}
		}
		return decodeGenericMatches(generic)
	default:
		return nil
	}
}

func decodeGenericMatches(items []map[string]any) []discoveredMatch {
	out := make([]discoveredMatch, 0, len(items))
	for _, item := range items {
		m := discoveredMatch{}
		m.capability, _ = item["capability"].(string)
		m.matched, _ = item["matched"].(bool)
		switch ids := item["agent_ids"].(type) {
		case []string:
			m.agentIDs = ids
		case []any:
			for _, id := range ids {
				if s, ok := id.(string); ok {
					m.agentIDs = append(m.agentIDs, s)
				}
			}
		}
		out = append(out, m)
	}
	return out
}

func (v *Visualizer) addNode(g *Graph, taskID string, n Node) {
	g.AddNode(n)
	v.out.Emit(core.NewEvent(core.EventGraphUpdate, taskID, map[string]any{
		"action": ActionAddNode,
		"node":   n,
	}))
}

func (v *Visualizer) updateNode(g *Graph, taskID, nodeID string, state NodeState) {
	n, ok := g.UpdateNode(nodeID, state)
	if !ok {
		return
	}
	v.out.Emit(core.NewEvent(core.EventGraphUpdate, taskID, map[string]any{
		"action": ActionUpdateNode,
		"node":   n,
	}))
}

func (v *Visualizer) addEdge(g *Graph, taskID string, e Edge) {
	if !g.AddEdge(e) {
		return
	}
	v.out.Emit(core.NewEvent(core.EventGraphUpdate, taskID, map[string]any{
		"action": ActionAddEdge,
		"edge":   e,
	}))
}

func hasEdgeLabel(g *Graph, nodeID, label string) bool {
	for _, e := range g.Edges() {
		if e.To == nodeID && e.Label == label {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	if limit <= 3 || len(s) <= limit {
		return s
	}
	return fmt.Sprintf("%s...", s[:limit-3])
}
