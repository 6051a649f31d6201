package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/core"
)

var _ Store = (*InMemoryStore)(nil)
var _ Store = (*FileStore)(nil)

func withConversation(msg core.Message, id string) core.Message {
	msg.Metadata = map[string]any{"conversation_id": id}
	return msg
}

func TestInMemoryStore_MessagesPerConversation(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	assert.NoError(t, s.SaveMessage(ctx, withConversation(core.NewMessage("a", "b", "first"), "c1")))
	assert.NoError(t, s.SaveMessage(ctx, withConversation(core.NewMessage("b", "a", "second"), "c1")))
	assert.NoError(t, s.SaveMessage(ctx, withConversation(core.NewMessage("a", "b", "other"), "c2")))

	msgs, err := s.Messages(ctx, "c1")
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)

	empty, err := s.Messages(ctx, "unknown")
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInMemoryStore_DefaultConversationFallback(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	assert.NoError(t, s.SaveMessage(ctx, core.NewMessage("a", "b", "no metadata")))

	msgs, err := s.Messages(ctx, DefaultConversation)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestInMemoryStore_MessagesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	assert.NoError(t, s.SaveMessage(ctx, withConversation(core.NewMessage("a", "b", "original"), "c1")))

	msgs, _ := s.Messages(ctx, "c1")
	msgs[0].Content = "mutated"

	again, _ := s.Messages(ctx, "c1")
	assert.Equal(t, "original", again[0].Content)
}

func TestInMemoryStore_AgentStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	state, err := s.AgentState(ctx, "counter")
	assert.NoError(t, err)
	assert.Empty(t, state)

	assert.NoError(t, s.SaveAgentState(ctx, "counter", map[string]any{"count": 3}))

	state, err = s.AgentState(ctx, "counter")
	assert.NoError(t, err)
	assert.Equal(t, 3, state["count"])

	// Returned map is a copy.
	state["count"] = 99
	again, _ := s.AgentState(ctx, "counter")
	assert.Equal(t, 3, again["count"])
}

func TestInMemoryStore_Conversations(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	id, err := s.CreateConversation(ctx, []string{"a", "b"})
	assert.NoError(t, err)
	assert.Len(t, id, 8)

	log, err := s.Conversation(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, log.Participants)
	assert.Empty(t, log.Messages)

	_, err = s.Conversation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
