package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/routemesh/routemesh/auth"
	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/logging"
	"github.com/routemesh/routemesh/registry"
)

// SelectionStrategy picks the agent to execute a matched capability on.
// The returned id must come from match.AgentIDs.
type SelectionStrategy func(match CapabilityMatch) string

// FirstMatched is the default tie-break: the first agent in registration
// order. Not "best", simply first discovered.
func FirstMatched(match CapabilityMatch) string {
	if len(match.AgentIDs) == 0 {
		return ""
	}
	return match.AgentIDs[0]
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Timeout bounds each individual agent invocation. Zero disables the
	// bound. A timed-out invocation becomes a failed ExecutionResult, not a
	// task failure.
	Timeout time.Duration
	// Sink receives execution events; defaults to NoOpSink.
	Sink core.EventSink
	// Selection defaults to FirstMatched.
	Selection SelectionStrategy
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Executor runs subtasks on matched agents. ExecuteOnAgent always returns a
// result; agent errors, permission denials and timeouts are recovered into
// failed ExecutionResults and never abort siblings or the task.
type Executor struct {
	registry  *registry.Registry
	timeout   time.Duration
	sink      core.EventSink
	selection SelectionStrategy
	logger    logging.Logger
}

// NewExecutor constructs an executor over the registry.
func NewExecutor(reg *registry.Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Timeout:   2 * time.Minute,
		Sink:      core.NoOpSink{},
		Selection: FirstMatched,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Sink == nil {
		opts.Sink = core.NoOpSink{}
	}
	if opts.Selection == nil {
		opts.Selection = FirstMatched
	}
	return &Executor{
		registry:  reg,
		timeout:   opts.Timeout,
		sink:      opts.Sink,
		selection: opts.Selection,
		logger:    logging.OrNoOp(opts.Logger),
	}
}

// ExecuteOnAgent runs one subtask on one agent. Emits execution_started
// before the call and execution_completed after, regardless of outcome.
func (e *Executor) ExecuteOnAgent(ctx context.Context, agent core.Agent, capability, subtask, taskID string) ExecutionResult {
	start := time.Now()

	e.sink.Emit(core.NewEvent(core.EventExecutionStarted, taskID, map[string]any{
		"agent_id":   agent.ID(),
		"agent_name": agent.Name(),
		"capability": capability,
		"subtask":    subtask,
	}))

	callCtx := ctx
	cancel := func() {}
	if e.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	caller := auth.AgentContext("router-" + taskID)
	resp, err := agent.ReceiveMessage(callCtx, caller, subtask, "router", "")

	result := ExecutionResult{
		AgentID:    agent.ID(),
		AgentName:  agent.Name(),
		Capability: capability,
		InputText:  subtask,
		StartedAt:  start,
		FinishedAt: time.Now(),
	}
	result.Duration = result.FinishedAt.Sub(start)

	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		result.Error = fmt.Sprintf("agent %s timed out after %s", agent.ID(), e.timeout)
	case err != nil:
		result.Error = err.Error()
	default:
		result.Success = true
		result.OutputText = resp.Content
		result.Tokens = resp.Usage
	}

	data := map[string]any{
		"agent_id":    agent.ID(),
		"capability":  capability,
		"duration_ms": result.Duration.Milliseconds(),
		"success":     result.Success,
	}
	if result.Success {
		data["output"] = result.OutputText
	} else {
		data["error"] = result.Error
		e.logger.Warn("execution failed: agent=%s capability=%s err=%s", agent.ID(), capability, result.Error)
	}
	e.sink.Emit(core.NewEvent(core.EventExecutionCompleted, taskID, data))

	return result
}

// executable pairs a match with its resolved agent and subtask.
type executable struct {
	match   CapabilityMatch
	agent   core.Agent
	subtask string
}

// resolve filters matches down to executables: matched, with a non-empty
// subtask and a resolvable agent. Unmatched or subtask-less capabilities
// are silently skipped (no result is produced for them).
func (e *Executor) resolve(matches []CapabilityMatch, subtasks map[string]string) []executable {
	var out []executable
	for _, match := range matches {
		if !match.Matched || len(match.AgentIDs) == 0 {
			continue
		}
		subtask := subtasks[match.Capability]
		if subtask == "" {
			continue
		}
		id := e.selection(match)
		agent, ok := e.registry.Get(id)
		if !ok {
			e.logger.Warn("selected agent %q vanished from registry", id)
			continue
		}
		out = append(out, executable{match: match, agent: agent, subtask: subtask})
	}
	return out
}

// ExecuteAll runs every eligible match concurrently with fan-out/await-all
// semantics: all executions launch before any is awaited, and a slow or
// failing execution never cancels its siblings. Results come back in match
// order regardless of completion order.
func (e *Executor) ExecuteAll(ctx context.Context, matches []CapabilityMatch, subtasks map[string]string, taskID string) []ExecutionResult {
	return e.runLevel(ctx, e.resolve(matches, subtasks), taskID)
}

// runLevel executes one set of independent executables concurrently.
func (e *Executor) runLevel(ctx context.Context, batch []executable, taskID string) []ExecutionResult {
	results := make([]ExecutionResult, len(batch))
	var wg sync.WaitGroup
	for i, item := range batch {
		wg.Add(1)
		go func(i int, item executable) {
			defer wg.Done()
			results[i] = e.ExecuteOnAgent(ctx, item.agent, item.match.Capability, item.subtask, taskID)
		}(i, item)
	}
	wg.Wait()
	return results
}

// ExecuteWithDependencies partitions capabilities into dependency levels
// via topological sort and executes level by level: all members of a level
// run concurrently, and level n+1 does not start until every execution in
// level n has resolved. A capability whose prerequisite did not succeed is
// recorded as a skipped result rather than executed. Cycles fail fast with
// ErrCyclicDependency before anything runs.
func (e *Executor) ExecuteWithDependencies(ctx context.Context, matches []CapabilityMatch, subtasks map[string]string, taskID string, dependencies map[string][]string) ([]ExecutionResult, error) {
	if len(dependencies) == 0 {
		return e.ExecuteAll(ctx, matches, subtasks, taskID), nil
	}

	capabilities := make([]string, 0, len(matches))
	byCapability := make(map[string]CapabilityMatch, len(matches))
	for _, m := range matches {
		capabilities = append(capabilities, m.Capability)
		byCapability[m.Capability] = m
	}

	levels, err := dependencyLevels(capabilities, dependencies)
	if err != nil {
		return nil, err
	}

	detected := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		detected[c] = true
	}

	var results []ExecutionResult
	succeeded := map[string]bool{}

	for _, level := range levels {
		var batch []executable
		for _, capability := range level {
			match := byCapability[capability]
			if failedPrereq := firstFailedPrereq(capability, dependencies, detected, succeeded); failedPrereq != "" {
				skipped := e.skipResult(match, subtasks[capability], failedPrereq)
				results = append(results, skipped)
				e.sink.Emit(core.NewEvent(core.EventExecutionSkipped, taskID, map[string]any{
					"capability":   capability,
					"prerequisite": failedPrereq,
				}))
				continue
			}
			resolved := e.resolve([]CapabilityMatch{match}, subtasks)
			batch = append(batch, resolved...)
		}

		for _, res := range e.runLevel(ctx, batch, taskID) {
			if res.Success {
				succeeded[res.Capability] = true
			}
			results = append(results, res)
		}
	}

	return results, nil
}

// firstFailedPrereq returns the first prerequisite of capability that was
// detected this task but did not succeed, or "" when all prerequisites are
// satisfied. Prerequisites outside the detected set are ignored: the
// analyzer referenced something it never asked to run.
func firstFailedPrereq(capability string, dependencies map[string][]string, detected, succeeded map[string]bool) string {
	for _, prereq := range dependencies[capability] {
		if !detected[prereq] {
			continue
		}
		if !succeeded[prereq] {
			return prereq
		}
	}
	return ""
}

// skipResult records a capability skipped due to a failed prerequisite.
// Flagged explicitly rather than silently absent so observers (and the
// graph visualizer) see why nothing ran.
func (e *Executor) skipResult(match CapabilityMatch, subtask, failedPrereq string) ExecutionResult {
	now := time.Now()
	res := ExecutionResult{
		Capability: match.Capability,
		InputText:  subtask,
		Skipped:    true,
		Error:      fmt.Sprintf("skipped: prerequisite capability %q did not succeed", failedPrereq),
		StartedAt:  now,
		FinishedAt: now,
	}
	if id := e.selection(match); id != "" {
		res.AgentID = id
		if agent, ok := e.registry.Get(id); ok {
			res.AgentName = agent.Name()
		}
	}
	return res
}

// dependencyLevels runs Kahn's algorithm over the capability set, grouping
// nodes into levels whose prerequisites all live in earlier levels. Edges
// to capabilities outside the set are dropped. Any leftover node means a
// cycle.
func dependencyLevels(capabilities []string, dependencies map[string][]string) ([][]string, error) {
	inSet := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		inSet[c] = true
	}

	indegree := make(map[string]int, len(capabilities))
	dependents := make(map[string][]string)
	for _, c := range capabilities {
		indegree[c] = 0
	}
	for _, c := range capabilities {
		for _, prereq := range dependencies[c] {
			if !inSet[prereq] || prereq == c {
				if prereq == c {
					return nil, fmt.Errorf("capability %q depends on itself: %w", c, ErrCyclicDependency)
				}
				continue
			}
			indegree[c]++
			dependents[prereq] = append(dependents[prereq], c)
		}
	}

	// Seed with the original capability order so levels are deterministic.
	var current []string
	for _, c := range capabilities {
		if indegree[c] == 0 {
			current = append(current, c)
		}
	}

	var levels [][]string
	placed := 0
	for len(current) > 0 {
		levels = append(levels, current)
		placed += len(current)
		var next []string
		for _, c := range current {
			for _, dep := range dependents[c] {
				indegree[dep]--
				if indegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.Strings(next)
		current = next
	}

	if placed < len(capabilities) {
		var cyclic []string
		for _, c := range capabilities {
			if indegree[c] > 0 {
				cyclic = append(cyclic, c)
			}
		}
		return nil, fmt.Errorf("capabilities [%s]: %w", strings.Join(cyclic, ", "), ErrCyclicDependency)
	}
	return levels, nil
}
