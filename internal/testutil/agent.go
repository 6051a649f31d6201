package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/routemesh/routemesh/auth"
	"github.com/routemesh/routemesh/core"
)

// StubAgent is a scriptable core.Agent for tests. By default it echoes a
// deterministic reply; set Reply, Err or Delay to shape behavior. Received
// messages are recorded for assertions.
type StubAgent struct {
	AgentID   string
	AgentName string
	Tags      []string

	// Reply overrides the default reply when non-nil.
	Reply func(content string) string
	// Err, when non-nil, fails every invocation.
	Err error
	// Delay is slept (context-aware) before responding.
	Delay time.Duration
	// Usage is attached to every successful response.
	Usage core.TokenUsage

	mu       sync.Mutex
	received []string
}

// NewStubAgent constructs a stub with the given id and capability tags.
func NewStubAgent(id string, capabilities ...string) *StubAgent {
	return &StubAgent{AgentID: id, AgentName: id, Tags: capabilities}
}

// ID implements core.Agent.
func (a *StubAgent) ID() string { return a.AgentID }

// Name implements core.Agent.
func (a *StubAgent) Name() string { return a.AgentName }

// Description implements core.Agent.
func (a *StubAgent) Description() string { return "stub agent " + a.AgentID }

// Capabilities implements core.Agent.
func (a *StubAgent) Capabilities() []string { return a.Tags }

// ReceiveMessage implements core.Agent.
func (a *StubAgent) ReceiveMessage(ctx context.Context, caller auth.CallerContext, content, senderID, conversationID string) (*core.Response, error) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	a.mu.Lock()
	a.received = append(a.received, content)
	a.mu.Unlock()

	if a.Err != nil {
		return nil, a.Err
	}
	reply := fmt.Sprintf("%s handled: %s", a.AgentID, content)
	if a.Reply != nil {
		reply = a.Reply(content)
	}
	return &core.Response{
		Content:   reply,
		AgentID:   a.AgentID,
		Timestamp: time.Now().UTC(),
		Usage:     a.Usage,
	}, nil
}

// Received returns the messages the agent has handled so far.
func (a *StubAgent) Received() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.received))
	copy(out, a.received)
	return out
}
