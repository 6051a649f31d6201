package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/routemesh/routemesh/auth"
	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/storage"
)

// EchoAgent repeats received messages. Deterministic; useful for tests and
// for understanding the execution flow without an LLM.
type EchoAgent struct {
	BaseAgent
	store storage.Store
}

// NewEchoAgent constructs an echo agent with the "echo" capability.
func NewEchoAgent(id string, store storage.Store) *EchoAgent {
	return &EchoAgent{
		BaseAgent: NewBaseAgent(Config{
			ID:           id,
			Name:         fmt.Sprintf("Echo Agent (%s)", id),
			Description:  "Repeats received messages",
			Capabilities: []string{"echo"},
		}, nil),
		store: store,
	}
}

// ReceiveMessage implements core.Agent.
func (a *EchoAgent) ReceiveMessage(ctx context.Context, caller auth.CallerContext, content, senderID, conversationID string) (*core.Response, error) {
	if err := caller.Require(auth.PermSendMessages, "receive_message"); err != nil {
		return nil, err
	}
	if err := saveExchange(ctx, a.store, a.ID(), senderID, content, conversationID); err != nil {
		return nil, err
	}
	return &core.Response{
		Content:   fmt.Sprintf("Echo from %s: %s", a.ID(), content),
		AgentID:   a.ID(),
		Timestamp: time.Now().UTC(),
	}, nil
}

// CounterAgent counts received messages, persisting the count as agent
// state. Demonstrates the state store without an LLM.
type CounterAgent struct {
	BaseAgent
	store storage.Store
}

// NewCounterAgent constructs a counter agent with the "count" capability.
func NewCounterAgent(id string, store storage.Store) *CounterAgent {
	return &CounterAgent{
		BaseAgent: NewBaseAgent(Config{
			ID:           id,
			Name:         fmt.Sprintf("Counter Agent (%s)", id),
			Description:  "Counts received messages",
			Capabilities: []string{"count"},
		}, nil),
		store: store,
	}
}

// ReceiveMessage implements core.Agent.
func (a *CounterAgent) ReceiveMessage(ctx context.Context, caller auth.CallerContext, content, senderID, conversationID string) (*core.Response, error) {
	if err := caller.Require(auth.PermSendMessages, "receive_message"); err != nil {
		return nil, err
	}
	state, err := a.store.AgentState(ctx, a.ID())
	if err != nil {
		return nil, fmt.Errorf("load counter state: %w", err)
	}
	count := 0
	if v, ok := state["count"].(float64); ok { // JSON round-trip yields float64
		count = int(v)
	} else if v, ok := state["count"].(int); ok {
		count = v
	}
	count++
	state["count"] = count
	if err := a.store.SaveAgentState(ctx, a.ID(), state); err != nil {
		return nil, fmt.Errorf("save counter state: %w", err)
	}
	return &core.Response{
		Content:   fmt.Sprintf("Message #%d received", count),
		AgentID:   a.ID(),
		Timestamp: time.Now().UTC(),
	}, nil
}

// CalculatorAgent evaluates simple binary arithmetic expressions of the form
// "a <op> b" with op one of + - * /. Deterministic; serves the
// "calculation" capability in demos and tests.
type CalculatorAgent struct {
	BaseAgent
	store storage.Store
}

// NewCalculatorAgent constructs a calculator agent.
func NewCalculatorAgent(id string, store storage.Store) *CalculatorAgent {
	return &CalculatorAgent{
		BaseAgent: NewBaseAgent(Config{
			ID:           id,
			Name:         fmt.Sprintf("Calculator Agent (%s)", id),
			Description:  "Evaluates simple arithmetic expressions",
			Capabilities: []string{"calculation"},
		}, nil),
		store: store,
	}
}

// ReceiveMessage implements core.Agent.
func (a *CalculatorAgent) ReceiveMessage(ctx context.Context, caller auth.CallerContext, content, senderID, conversationID string) (*core.Response, error) {
	if err := caller.Require(auth.PermSendMessages, "receive_message"); err != nil {
		return nil, err
	}
	if err := saveExchange(ctx, a.store, a.ID(), senderID, content, conversationID); err != nil {
		return nil, err
	}
	result, err := evaluate(content)
	if err != nil {
		return nil, err
	}
	return &core.Response{
		Content:   strconv.FormatFloat(result, 'f', -1, 64),
		AgentID:   a.ID(),
		Timestamp: time.Now().UTC(),
	}, nil
}

func evaluate(expr string) (float64, error) {
	for _, op := range []string{"+", "-", "*", "/"} {
		// Split on the operator from the right so negative left operands
		// like "-3 + 2" still parse.
		idx := strings.LastIndex(expr, op)
		if idx <= 0 {
			continue
		}
		left, errL := strconv.ParseFloat(strings.TrimSpace(expr[:idx]), 64)
		right, errR := strconv.ParseFloat(strings.TrimSpace(expr[idx+1:]), 64)
		if errL != nil || errR != nil {
			continue
		}
		switch op {
		case "+":
			return left + right, nil
		case "-":
			return left - right, nil
		case "*":
			return left * right, nil
		case "/":
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return left / right, nil
		}
	}
	return 0, fmt.Errorf("unsupported expression %q", expr)
}

// saveExchange persists the inbound message for deterministic agents so
// their conversations stay observable like LLM ones.
func saveExchange(ctx context.Context, store storage.Store, agentID, senderID, content, conversationID string) error {
	if store == nil {
		return nil
	}
	if conversationID == "" {
		conversationID = storage.DefaultConversation
	}
	msg := core.NewMessage(senderID, agentID, content)
	msg.Metadata = map[string]any{"conversation_id": conversationID}
	if err := store.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("save inbound message: %w", err)
	}
	return nil
}
