// Package storage defines the persistence contract consumed by agents: a
// message log keyed by conversation id and a JSON-shaped state store keyed
// by agent id. The orchestrator treats both as opaque to its own decision
// making; backends only need to survive for the lifetime of a call.
//
// Three implementations ship with the module: a process-local InMemoryStore,
// a JSON FileStore and a SQLite store (see the sqlite subpackage).
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/routemesh/routemesh/core"
)

// ErrNotFound is returned when a requested conversation does not exist.
// Absent agent state is not an error; it reads as an empty map.
var ErrNotFound = fmt.Errorf("not found")

// DefaultConversation receives messages that carry no conversation id.
const DefaultConversation = "default"

// ConversationLog groups the messages of one conversation.
type ConversationLog struct {
	ID           string         `json:"conversation_id"`
	Participants []string       `json:"participants"`
	Messages     []core.Message `json:"messages"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Store is the persistence interface agents depend on.
type Store interface {
	// SaveMessage appends a message to its conversation log. The
	// conversation is taken from the message metadata (ConversationOf);
	// unknown conversations are created implicitly.
	SaveMessage(ctx context.Context, msg core.Message) error
	// Messages returns the messages of a conversation in append order.
	// An unknown conversation yields an empty slice, not an error.
	Messages(ctx context.Context, conversationID string) ([]core.Message, error)
	// AgentState returns the saved state of an agent, or an empty map when
	// none was saved.
	AgentState(ctx context.Context, agentID string) (map[string]any, error)
	// SaveAgentState replaces the agent's saved state.
	SaveAgentState(ctx context.Context, agentID string, state map[string]any) error
	// CreateConversation allocates a new conversation id for the given
	// participants.
	CreateConversation(ctx context.Context, participants []string) (string, error)
	// Conversation returns a conversation log, or ErrNotFound.
	Conversation(ctx context.Context, conversationID string) (*ConversationLog, error)
}

// ConversationOf extracts the conversation id from a message's metadata,
// falling back to DefaultConversation.
func ConversationOf(msg core.Message) string {
	if msg.Metadata != nil {
		if id, ok := msg.Metadata["conversation_id"].(string); ok && id != "" {
			return id
		}
	}
	return DefaultConversation
}
