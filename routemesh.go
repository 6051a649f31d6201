// Package routemesh provides a high-level façade over the routing engine
// and its collaborators (registry, analyzer, executor, synthesizer, event
// sinks & storage) enabling rapid construction of capability-routed
// multi-agent systems. Most applications interact with this package by:
//  1. Creating a Mesh via New() (optionally overriding the default
//     in-memory services)
//  2. Registering one or more capability-tagged agents
//  3. Routing tasks synchronously (Route) or with a live event stream
//     (RouteStream)
//
// The façade delegates orchestration to router.SmartRouter while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// durable store, a real model provider and a structured logger.
package routemesh

import (
	"context"
	"time"

	"github.com/routemesh/routemesh/auth"
	"github.com/routemesh/routemesh/chain"
	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/graph"
	"github.com/routemesh/routemesh/logging"
	"github.com/routemesh/routemesh/model"
	"github.com/routemesh/routemesh/registry"
	"github.com/routemesh/routemesh/router"
	"github.com/routemesh/routemesh/storage"
)

// Options configures the Mesh.
type Options struct {
	// Model handles analysis, synthesis and any LLM agents built through
	// the mesh. Defaults to a MockModel, which keeps local development and
	// tests offline.
	Model model.Model

	// Store persists messages and agent state; defaults to in-memory.
	Store storage.Store

	// Catalog is the capability catalog the analyzer advertises; defaults
	// to router.DefaultCatalog.
	Catalog []router.Capability

	// ExecutionTimeout bounds each agent invocation during routing. Zero
	// keeps the executor default.
	ExecutionTimeout time.Duration

	// Sinks receive all lifecycle events, alongside the mesh's own graph
	// visualizer.
	Sinks []core.EventSink

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the registry, router and event
// plumbing.
type Mesh struct {
	opts       Options
	registry   *registry.Registry
	router     *router.SmartRouter
	runner     *graph.Runner
	visualizer *graph.Visualizer
	hub        *core.MultiSink
	store      storage.Store
	model      model.Model
	logger     logging.Logger
}

// New creates a Mesh with optional overrides. Any unset service is
// initialized with an in-memory or no-op implementation.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		Model:   model.NewMockModel("mock"),
		Store:   storage.NewInMemoryStore(),
		Catalog: router.DefaultCatalog,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	hub := core.NewMultiSink(opts.Sinks...)
	visualizer := graph.NewVisualizer(hub)
	hub.Add(visualizer)

	reg := registry.New()
	analyzer := router.NewLLMAnalyzer(opts.Model, func(o *router.LLMAnalyzerOptions) {
		o.Catalog = opts.Catalog
		o.Logger = opts.Logger
	})
	executor := router.NewExecutor(reg, func(o *router.ExecutorOptions) {
		if opts.ExecutionTimeout > 0 {
			o.Timeout = opts.ExecutionTimeout
		}
		o.Sink = hub
		o.Logger = opts.Logger
	})
	synthesizer := router.NewLLMSynthesizer(opts.Model, func(o *router.LLMSynthesizerOptions) {
		o.Logger = opts.Logger
	})
	smartRouter := router.New(reg, analyzer, executor, synthesizer, func(o *router.Options) {
		o.Sink = hub
		o.Logger = opts.Logger
	})

	return &Mesh{
		opts:       opts,
		registry:   reg,
		router:     smartRouter,
		runner:     graph.NewRunner(smartRouter, hub),
		visualizer: visualizer,
		hub:        hub,
		store:      opts.Store,
		model:      opts.Model,
		logger:     logging.OrNoOp(opts.Logger),
	}
}

// RegisterAgent adds an agent to the registry. Duplicate ids are rejected.
func (m *Mesh) RegisterAgent(a core.Agent) error {
	return m.registry.Register(a, false)
}

// ReplaceAgent adds an agent, replacing any existing agent with the same
// id.
func (m *Mesh) ReplaceAgent(a core.Agent) {
	_ = m.registry.Register(a, true)
}

// Registry exposes the underlying agent registry for discovery queries.
func (m *Mesh) Registry() *registry.Registry { return m.registry }

// Store exposes the configured storage backend.
func (m *Mesh) Store() storage.Store { return m.store }

// Model exposes the configured model.
func (m *Mesh) Model() model.Model { return m.model }

// AddSink attaches another event sink; events emitted after the call reach
// it.
func (m *Mesh) AddSink(s core.EventSink) { m.hub.Add(s) }

// Route runs one task through the smart router synchronously. The result
// is always complete; inspect Status for the outcome.
func (m *Mesh) Route(ctx context.Context, task string) *router.Result {
	return m.runner.Run(ctx, task)
}

// RouteStream runs a task in the background, returning the task's live
// event stream (lifecycle plus derived graph_update events) and a channel
// yielding the final result. The event channel closes when routing ends.
func (m *Mesh) RouteStream(ctx context.Context, task string) (<-chan core.Event, <-chan *router.Result) {
	return m.runner.Stream(ctx, task)
}

// Result returns the recorded result of a finished task.
func (m *Mesh) Result(taskID string) (*router.Result, bool) {
	return m.runner.Result(taskID)
}

// TaskGraph returns the accumulated execution graph for a task, for
// rendering or export.
func (m *Mesh) TaskGraph(taskID string) (*graph.Graph, bool) {
	return m.visualizer.Graph(taskID)
}

// NewPipeline builds a named linear pipeline over the given agents, wired
// into the mesh's event stream.
func (m *Mesh) NewPipeline(name string, steps []core.Agent) *chain.Pipeline {
	return chain.New(name, steps, func(o *chain.Options) {
		o.Sink = m.hub
		o.Logger = m.opts.Logger
	})
}

// NewContentPipeline builds the standard writer → editor → publisher
// pipeline using the mesh's model and store.
func (m *Mesh) NewContentPipeline() *chain.Pipeline {
	return chain.NewContentPipeline(m.model, m.store, func(o *chain.Options) {
		o.Sink = m.hub
		o.Logger = m.opts.Logger
	})
}

// RunPipeline executes a pipeline on behalf of a user caller.
func (m *Mesh) RunPipeline(ctx context.Context, p *chain.Pipeline, input string) *chain.PipelineResult {
	return p.Run(ctx, auth.UserContext("user"), input)
}
