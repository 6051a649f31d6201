package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/core"
)

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()

	s1, err := NewFileStore(base)
	assert.NoError(t, err)
	assert.NoError(t, s1.SaveMessage(ctx, withConversation(core.NewMessage("a", "b", "hello"), "c1")))
	assert.NoError(t, s1.SaveAgentState(ctx, "counter", map[string]any{"count": float64(2)}))

	// A second store over the same directory sees the same data.
	s2, err := NewFileStore(base)
	assert.NoError(t, err)

	msgs, err := s2.Messages(ctx, "c1")
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)

	state, err := s2.AgentState(ctx, "counter")
	assert.NoError(t, err)
	assert.Equal(t, float64(2), state["count"])
}

func TestFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewFileStore(base)
	assert.NoError(t, err)

	assert.NoError(t, s.SaveMessage(ctx, withConversation(core.NewMessage("a", "b", "x"), "c1")))
	assert.NoError(t, s.SaveAgentState(ctx, "echo", map[string]any{"k": "v"}))

	_, err = os.Stat(filepath.Join(base, "conversations", "c1.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "state", "echo.json"))
	assert.NoError(t, err)
}

func TestFileStore_UnknownReads(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	assert.NoError(t, err)

	msgs, err := s.Messages(ctx, "missing")
	assert.NoError(t, err)
	assert.Empty(t, msgs)

	state, err := s.AgentState(ctx, "missing")
	assert.NoError(t, err)
	assert.Empty(t, state)

	_, err = s.Conversation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CreateConversation(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	assert.NoError(t, err)

	id, err := s.CreateConversation(ctx, []string{"a", "b"})
	assert.NoError(t, err)

	log, err := s.Conversation(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, log.Participants)
}
