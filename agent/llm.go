package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/routemesh/routemesh/auth"
	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/logging"
	"github.com/routemesh/routemesh/model"
	"github.com/routemesh/routemesh/storage"
)

// LLMOptions configures an LLMAgent.
type LLMOptions struct {
	// SystemPrompt is sent as instructions on every completion.
	SystemPrompt string
	// HistoryWindow bounds how many prior messages are replayed to the
	// model. Zero disables history.
	HistoryWindow int
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// LLMAgent is a model-backed agent. Every received message is persisted,
// answered through the configured model with the conversation history as
// context, and the reply persisted in turn. Token usage from the provider is
// surfaced on the response so the executor can account for it.
type LLMAgent struct {
	BaseAgent
	model   model.Model
	store   storage.Store
	prompt  string
	history int
}

// NewLLMAgent constructs an LLM-backed agent.
func NewLLMAgent(config Config, m model.Model, store storage.Store, optFns ...func(o *LLMOptions)) *LLMAgent {
	opts := LLMOptions{HistoryWindow: 20}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LLMAgent{
		BaseAgent: NewBaseAgent(config, opts.Logger),
		model:     m,
		store:     store,
		prompt:    opts.SystemPrompt,
		history:   opts.HistoryWindow,
	}
}

// ReceiveMessage implements core.Agent. It checks the caller's
// send_messages permission, persists the inbound message, completes through
// the model with bounded conversation history and persists the reply.
func (a *LLMAgent) ReceiveMessage(ctx context.Context, caller auth.CallerContext, content, senderID, conversationID string) (*core.Response, error) {
	if err := caller.Require(auth.PermSendMessages, "receive_message"); err != nil {
		return nil, err
	}
	if conversationID == "" {
		conversationID = storage.DefaultConversation
	}

	inbound := core.NewMessage(senderID, a.ID(), content)
	inbound.Metadata = map[string]any{
		"conversation_id": conversationID,
		"caller_id":       caller.CallerID,
	}
	if err := a.store.SaveMessage(ctx, inbound); err != nil {
		return nil, fmt.Errorf("save inbound message: %w", err)
	}

	history, err := a.conversationHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	resp, err := a.model.Complete(ctx, model.Request{
		Instructions: a.prompt,
		History:      history,
		Input:        content,
	})
	if err != nil {
		return nil, fmt.Errorf("agent %s model call: %w", a.ID(), err)
	}

	outbound := core.NewMessage(a.ID(), senderID, resp.Text)
	outbound.Metadata = map[string]any{
		"conversation_id": conversationID,
		"role":            "assistant",
		"model":           resp.Model,
	}
	if err := a.store.SaveMessage(ctx, outbound); err != nil {
		return nil, fmt.Errorf("save outbound message: %w", err)
	}

	a.Logger().Debug("agent %s answered (in=%d out=%d tokens)", a.ID(), resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return &core.Response{
		Content:   resp.Text,
		AgentID:   a.ID(),
		Timestamp: time.Now().UTC(),
		Usage:     resp.Usage,
		Metadata:  map[string]any{"model": resp.Model, "conversation_id": conversationID},
	}, nil
}

// conversationHistory loads the bounded tail of the conversation, excluding
// the just-saved inbound message (the model receives it as Input).
func (a *LLMAgent) conversationHistory(ctx context.Context, conversationID string) ([]core.Message, error) {
	if a.history <= 0 {
		return nil, nil
	}
	msgs, err := a.store.Messages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}
	if len(msgs) > 0 {
		msgs = msgs[:len(msgs)-1]
	}
	if len(msgs) > a.history {
		msgs = msgs[len(msgs)-a.history:]
	}
	return msgs, nil
}
