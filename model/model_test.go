package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routemesh/routemesh/core"
)

func TestMockModel_CannedAndFallback(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("known", "canned")

	resp, err := m.Complete(context.Background(), Request{Input: "known"})
	assert.NoError(t, err)
	assert.Equal(t, "canned", resp.Text)
	assert.Equal(t, "test-model", resp.Model)

	resp, err = m.Complete(context.Background(), Request{Input: "unknown"})
	assert.NoError(t, err)
	assert.Equal(t, "Mock response to: unknown", resp.Text)
}

func TestMockModel_ScriptedError(t *testing.T) {
	m := NewMockModel("m")
	m.AddError("bad", errors.New("overloaded"))

	_, err := m.Complete(context.Background(), Request{Input: "bad"})
	assert.ErrorContains(t, err, "overloaded")
}

func TestMockModel_Usage(t *testing.T) {
	m := NewMockModel("m")
	m.SetUsage(core.TokenUsage{InputTokens: 1, OutputTokens: 2})

	resp, err := m.Complete(context.Background(), Request{Input: "x"})
	assert.NoError(t, err)
	assert.Equal(t, core.TokenUsage{InputTokens: 1, OutputTokens: 2}, resp.Usage)
}

func TestMockModel_ContextCancelled(t *testing.T) {
	m := NewMockModel("m")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Complete(ctx, Request{Input: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsAssistant(t *testing.T) {
	plain := core.NewMessage("u1", "assistant", "question")
	assert.False(t, IsAssistant(plain))

	reply := core.NewMessage("assistant", "u1", "answer")
	reply.Metadata = map[string]any{"role": "assistant"}
	assert.True(t, IsAssistant(reply))

	other := core.NewMessage("u1", "assistant", "question")
	other.Metadata = map[string]any{"role": "user"}
	assert.False(t, IsAssistant(other))
}
