package graph

import (
	"fmt"
	"strings"
	"sync"
)

// NodeState tracks the lifecycle of one graph node.
type NodeState string

const (
	StatePending   NodeState = "pending"
	StateRunning   NodeState = "running"
	StateCompleted NodeState = "completed"
	StateFailed    NodeState = "failed"
	StateSkipped   NodeState = "skipped"
)

// NodeKind distinguishes the roles nodes play in the routing graph.
type NodeKind string

const (
	KindTask        NodeKind = "task"
	KindAnalyzer    NodeKind = "analyzer"
	KindAgent       NodeKind = "agent"
	KindSynthesizer NodeKind = "synthesizer"
)

// Node is one vertex of a task's execution graph.
type Node struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Kind  NodeKind  `json:"kind"`
	State NodeState `json:"state"`
}

// Edge is one directed edge of a task's execution graph.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Graph accumulates the nodes and edges of one task. Safe for concurrent
// use; reads return snapshots.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]Node
	order []string
	edges []Edge
}

// NewGraph constructs an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: map[string]Node{}}
}

// AddNode inserts a node, or overwrites an existing one with the same id
// while keeping its original position.
func (g *Graph) AddNode(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
}

// UpdateNode transitions an existing node to the given state. Returns the
// updated node and false when the id is unknown.
func (g *Graph) UpdateNode(id string, state NodeState) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	n.State = state
	g.nodes[id] = n
	return n, true
}

// AddEdge appends a directed edge. Duplicate edges are dropped.
func (g *Graph) AddEdge(e Edge) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.edges {
		if existing.From == e.From && existing.To == e.To {
			return false
		}
	}
	g.edges = append(g.edges, e)
	return true
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Mermaid renders the graph as a Mermaid flowchart, one class per node
// state so renderers can color by lifecycle.
func (g *Graph) Mermaid() string {
	nodes := g.Nodes()
	edges := g.Edges()

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "    %s[\"%s\"]:::%s\n", mermaidID(n.ID), mermaidLabel(n.Label), n.State)
	}
	for _, e := range edges {
		if e.Label != "" {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", mermaidID(e.From), mermaidLabel(e.Label), mermaidID(e.To))
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", mermaidID(e.From), mermaidID(e.To))
		}
	}

	states := map[NodeState]bool{}
	for _, n := range nodes {
		states[n.State] = true
	}
	classDefs := []struct {
		state NodeState
		style string
	}{
		{StatePending, "fill:#eceff1"},
		{StateRunning, "fill:#fff9c4"},
		{StateCompleted, "fill:#c8e6c9"},
		{StateFailed, "fill:#ffcdd2"},
		{StateSkipped, "fill:#e0e0e0"},
	}
	for _, cd := range classDefs {
		if states[cd.state] {
			fmt.Fprintf(&b, "    classDef %s %s\n", cd.state, cd.style)
		}
	}
	return b.String()
}

// mermaidID sanitizes an id for Mermaid syntax.
func mermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func mermaidLabel(label string) string {
	return strings.NewReplacer("\"", "'", "\n", " ", "|", "/").Replace(label)
}
