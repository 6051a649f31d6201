package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenUsage counts tokens consumed by a single model call or aggregated
// across several. The zero value means "no usage recorded".
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (t TokenUsage) Total() int { return t.InputTokens + t.OutputTokens }

// Add accumulates another usage record into the receiver.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
}

// Message is a single message exchanged between agents (or between the
// router and an agent). Messages are immutable after construction and are
// the unit persisted by storage.Store implementations.
type Message struct {
	ID        string         `json:"id"`
	Sender    string         `json:"sender"`
	Receiver  string         `json:"receiver"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMessage constructs a message with a generated short id and UTC timestamp.
func NewMessage(sender, receiver, content string) Message {
	return Message{
		ID:        NewShortID(),
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// Response is an agent's reply to a received message. Usage is populated by
// model-backed agents and left zero by deterministic ones.
type Response struct {
	Content   string         `json:"content"`
	AgentID   string         `json:"agent_id"`
	Timestamp time.Time      `json:"timestamp"`
	Usage     TokenUsage     `json:"usage"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewID generates a UUID string for events and other long-lived identifiers.
func NewID() string { return uuid.NewString() }

// NewShortID generates the 8-hex-character form used for task, pipeline and
// message ids. Short ids keep event payloads and log lines readable.
func NewShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
