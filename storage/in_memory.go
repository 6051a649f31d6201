package storage

import (
	"context"
	"sync"
	"time"

	"github.com/routemesh/routemesh/core"
)

// InMemoryStore is a volatile Store keeping conversations and agent state in
// process-local maps. It is safe for concurrent access and best suited for
// tests and demos. Returned slices and maps are copies so callers cannot
// mutate internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*ConversationLog
	states        map[string]map[string]any
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]*ConversationLog),
		states:        make(map[string]map[string]any),
	}
}

// SaveMessage implements Store.
func (s *InMemoryStore) SaveMessage(_ context.Context, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.conversationLocked(ConversationOf(msg))
	log.Messages = append(log.Messages, msg)
	return nil
}

// Messages implements Store.
func (s *InMemoryStore) Messages(_ context.Context, conversationID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.conversations[conversationID]
	if !ok {
		return []core.Message{}, nil
	}
	msgs := make([]core.Message, len(log.Messages))
	copy(msgs, log.Messages)
	return msgs, nil
}

// AgentState implements Store.
func (s *InMemoryStore) AgentState(_ context.Context, agentID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[agentID]
	if !ok {
		return map[string]any{}, nil
	}
	clone := make(map[string]any, len(state))
	for k, v := range state {
		clone[k] = v
	}
	return clone, nil
}

// SaveAgentState implements Store.
func (s *InMemoryStore) SaveAgentState(_ context.Context, agentID string, state map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := make(map[string]any, len(state))
	for k, v := range state {
		clone[k] = v
	}
	s.states[agentID] = clone
	return nil
}

// CreateConversation implements Store.
func (s *InMemoryStore) CreateConversation(_ context.Context, participants []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := core.NewShortID()
	log := s.conversationLocked(id)
	log.Participants = append(log.Participants, participants...)
	return id, nil
}

// Conversation implements Store.
func (s *InMemoryStore) Conversation(_ context.Context, conversationID string) (*ConversationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.conversations[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *log
	clone.Messages = make([]core.Message, len(log.Messages))
	copy(clone.Messages, log.Messages)
	clone.Participants = make([]string, len(log.Participants))
	copy(clone.Participants, log.Participants)
	return &clone, nil
}

// conversationLocked returns the conversation log, creating it lazily.
// Caller must hold the write lock.
func (s *InMemoryStore) conversationLocked(id string) *ConversationLog {
	log, ok := s.conversations[id]
	if !ok {
		log = &ConversationLog{ID: id, CreatedAt: time.Now().UTC()}
		s.conversations[id] = log
	}
	return log
}
