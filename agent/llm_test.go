package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/auth"
	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/model"
	"github.com/routemesh/routemesh/storage"
)

func newTestLLMAgent(m model.Model, store storage.Store) *LLMAgent {
	return NewLLMAgent(Config{
		ID:           "assistant",
		Name:         "Assistant",
		Description:  "test assistant",
		Capabilities: []string{"analysis"},
	}, m, store, func(o *LLMOptions) {
		o.SystemPrompt = "You are helpful."
	})
}

func TestLLMAgent_AnswersAndPersists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	m := model.NewMockModel("test-model")
	m.AddResponse("hello", "hi there")
	m.SetUsage(core.TokenUsage{InputTokens: 4, OutputTokens: 2})

	a := newTestLLMAgent(m, store)
	resp, err := a.ReceiveMessage(ctx, auth.UserContext("u1"), "hello", "u1", "c1")
	assert.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, "assistant", resp.AgentID)
	assert.Equal(t, core.TokenUsage{InputTokens: 4, OutputTokens: 2}, resp.Usage)

	msgs, err := store.Messages(ctx, "c1")
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hi there", msgs[1].Content)
	assert.True(t, model.IsAssistant(msgs[1]))
	assert.False(t, model.IsAssistant(msgs[0]))
}

func TestLLMAgent_PermissionDenied(t *testing.T) {
	a := newTestLLMAgent(model.NewMockModel("m"), storage.NewInMemoryStore())
	guest := auth.CallerContext{CallerID: "g1", Role: auth.RoleGuest}

	_, err := a.ReceiveMessage(context.Background(), guest, "hello", "g1", "")
	assert.ErrorIs(t, err, auth.ErrPermissionDenied)
}

func TestLLMAgent_ModelErrorPropagates(t *testing.T) {
	m := model.NewMockModel("m")
	m.AddError("hello", errors.New("rate limited"))
	a := newTestLLMAgent(m, storage.NewInMemoryStore())

	_, err := a.ReceiveMessage(context.Background(), auth.UserContext("u1"), "hello", "u1", "")
	assert.ErrorContains(t, err, "rate limited")
}

func TestLLMAgent_HistoryWindow(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	captured := &capturingModel{}
	a := NewLLMAgent(Config{ID: "assistant", Capabilities: []string{"analysis"}},
		captured, store, func(o *LLMOptions) {
			o.HistoryWindow = 2
		})

	for i := 0; i < 4; i++ {
		_, err := a.ReceiveMessage(ctx, auth.UserContext("u1"), fmt.Sprintf("turn %d", i), "u1", "c1")
		assert.NoError(t, err)
	}

	last := captured.requests[len(captured.requests)-1]
	assert.Equal(t, "turn 3", last.Input)
	// History excludes the just-saved inbound and is capped at the window.
	assert.Len(t, last.History, 2)
	for _, msg := range last.History {
		assert.NotEqual(t, "turn 3", msg.Content)
	}
}

// capturingModel records every request it serves.
type capturingModel struct {
	requests []model.Request
}

func (c *capturingModel) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	c.requests = append(c.requests, req)
	return &model.Response{Text: "ok", Model: "capturing"}, nil
}

func (c *capturingModel) Info() model.Info {
	return model.Info{Name: "capturing", Provider: "test"}
}
