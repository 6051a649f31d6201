// Package model defines the minimal LLM provider contract the analyzer,
// synthesizer and model-backed agents depend on, plus a scripted MockModel
// for tests and examples. Concrete providers live in the anthropic and
// openai subpackages.
package model

import (
	"context"
	"fmt"

	"github.com/routemesh/routemesh/core"
)

// Request is the normalized model input. Instructions carries the system
// prompt, History the prior conversation (oldest first) and Input the user
// text for this turn. History messages authored by the responding agent
// itself must carry Metadata["role"] = "assistant"; providers treat every
// other message as a user turn.
type Request struct {
	Instructions string         `json:"instructions"`
	History      []core.Message `json:"history,omitempty"`
	Input        string         `json:"input"`
}

// IsAssistant reports whether a history message is an assistant turn per the
// Request.History convention.
func IsAssistant(msg core.Message) bool {
	if msg.Metadata == nil {
		return false
	}
	role, _ := msg.Metadata["role"].(string)
	return role == "assistant"
}

// Response is a completed (non-streaming) model reply.
type Response struct {
	Text  string          `json:"text"`
	Model string          `json:"model"`
	Usage core.TokenUsage `json:"usage"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the interface providers implement. Complete is a suspension
// point: implementations must honor ctx cancellation and deadlines. Errors
// are transport/provider failures; the router's analyzer and synthesizer
// convert them into degraded-but-non-fatal results.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Responses are keyed by exact input text; unknown inputs get a generic
// echo reply. An optional error can be scripted per input.
type MockModel struct {
	info      Info
	responses map[string]string
	errors    map[string]error
	usage     core.TokenUsage
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
		errors:    make(map[string]error),
		usage:     core.TokenUsage{InputTokens: 10, OutputTokens: 20},
	}
}

// AddResponse registers a deterministic canned completion for an input.
func (m *MockModel) AddResponse(input, response string) { m.responses[input] = response }

// AddError scripts a provider error for an input.
func (m *MockModel) AddError(input string, err error) { m.errors[input] = err }

// SetUsage overrides the token usage reported with every completion.
func (m *MockModel) SetUsage(usage core.TokenUsage) { m.usage = usage }

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if err, ok := m.errors[req.Input]; ok {
		return nil, err
	}
	text, ok := m.responses[req.Input]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", req.Input)
	}
	return &Response{Text: text, Model: m.info.Name, Usage: m.usage}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
