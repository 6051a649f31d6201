package core

import (
	"context"

	"github.com/routemesh/routemesh/auth"
)

// Agent is the contract every capability provider implements. The router
// discovers agents through the registry by their capability tags and drives
// them exclusively through ReceiveMessage.
//
// Implementations must:
//   - Treat the capability set as fixed after registration
//   - Respect context cancellation (ReceiveMessage is the only suspension
//     point the executor relies on)
//   - Return an error rather than panic for provider or permission failures;
//     the executor converts either into a failed execution record
type Agent interface {
	// ID returns the unique, immutable agent identifier.
	ID() string
	// Name returns the human-readable display name.
	Name() string
	// Description explains what the agent does.
	Description() string
	// Capabilities returns the capability tags this agent serves, in
	// declaration order.
	Capabilities() []string
	// ReceiveMessage processes content sent by senderID on behalf of caller
	// and returns the agent's response. conversationID groups related
	// messages; empty selects the agent's default conversation.
	ReceiveMessage(ctx context.Context, caller auth.CallerContext, content, senderID, conversationID string) (*Response, error)
}

// AgentInfo is a read-only snapshot of an agent's identity used in registry
// listings and events.
type AgentInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// InfoOf captures an AgentInfo snapshot from a live agent.
func InfoOf(a Agent) AgentInfo {
	caps := make([]string, len(a.Capabilities()))
	copy(caps, a.Capabilities())
	return AgentInfo{ID: a.ID(), Name: a.Name(), Description: a.Description(), Capabilities: caps}
}
