package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/auth"
	"github.com/routemesh/routemesh/storage"
)

func TestEchoAgent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	a := NewEchoAgent("echo-1", store)

	assert.Equal(t, []string{"echo"}, a.Capabilities())

	resp, err := a.ReceiveMessage(ctx, auth.UserContext("u1"), "hello", "u1", "")
	assert.NoError(t, err)
	assert.Equal(t, "Echo from echo-1: hello", resp.Content)
	assert.Equal(t, "echo-1", resp.AgentID)

	msgs, err := store.Messages(ctx, storage.DefaultConversation)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestEchoAgent_GuestDenied(t *testing.T) {
	a := NewEchoAgent("echo-1", storage.NewInMemoryStore())
	guest := auth.CallerContext{CallerID: "g1", Role: auth.RoleGuest}

	_, err := a.ReceiveMessage(context.Background(), guest, "hello", "g1", "")
	assert.ErrorIs(t, err, auth.ErrPermissionDenied)
}

func TestCounterAgent_PersistsCount(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	a := NewCounterAgent("counter-1", store)

	resp, err := a.ReceiveMessage(ctx, auth.UserContext("u1"), "one", "u1", "")
	assert.NoError(t, err)
	assert.Equal(t, "Message #1 received", resp.Content)

	resp, err = a.ReceiveMessage(ctx, auth.UserContext("u1"), "two", "u1", "")
	assert.NoError(t, err)
	assert.Equal(t, "Message #2 received", resp.Content)

	// A fresh agent over the same store continues the count.
	b := NewCounterAgent("counter-1", store)
	resp, err = b.ReceiveMessage(ctx, auth.UserContext("u1"), "three", "u1", "")
	assert.NoError(t, err)
	assert.Equal(t, "Message #3 received", resp.Content)
}

func TestCounterAgent_JSONRoundTrippedState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryStore()
	// Simulate a backend that decoded the count from JSON as float64.
	assert.NoError(t, store.SaveAgentState(ctx, "counter-1", map[string]any{"count": float64(7)}))

	a := NewCounterAgent("counter-1", store)
	resp, err := a.ReceiveMessage(ctx, auth.UserContext("u1"), "next", "u1", "")
	assert.NoError(t, err)
	assert.Equal(t, "Message #8 received", resp.Content)
}

func TestCalculatorAgent(t *testing.T) {
	ctx := context.Background()
	a := NewCalculatorAgent("calc-1", storage.NewInMemoryStore())
	caller := auth.UserContext("u1")

	tests := []struct {
		expr string
		want string
	}{
		{"2 + 3", "5"},
		{"10 - 4", "6"},
		{"6 * 7", "42"},
		{"9 / 2", "4.5"},
		{"-3 + 2", "-1"},
	}
	for _, tt := range tests {
		resp, err := a.ReceiveMessage(ctx, caller, tt.expr, "u1", "")
		assert.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, resp.Content, tt.expr)
	}
}

func TestCalculatorAgent_Errors(t *testing.T) {
	ctx := context.Background()
	a := NewCalculatorAgent("calc-1", storage.NewInMemoryStore())
	caller := auth.UserContext("u1")

	_, err := a.ReceiveMessage(ctx, caller, "5 / 0", "u1", "")
	assert.ErrorContains(t, err, "division by zero")

	_, err = a.ReceiveMessage(ctx, caller, "what is math", "u1", "")
	assert.ErrorContains(t, err, "unsupported expression")
}
