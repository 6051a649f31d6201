package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/routemesh/routemesh/core"
)

// FileStore persists conversations and agent state as JSON files under a
// base directory:
//
//	<base>/conversations/<conversation-id>.json
//	<base>/state/<agent-id>.json
//
// Writes rewrite the whole file; the store targets demos and small local
// deployments, not high-volume logs. A single mutex serializes access since
// file rewrites are not atomic.
type FileStore struct {
	mu   sync.Mutex
	base string
}

// NewFileStore creates the directory layout under base and returns the store.
func NewFileStore(base string) (*FileStore, error) {
	for _, dir := range []string{base, filepath.Join(base, "conversations"), filepath.Join(base, "state")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &FileStore{base: base}, nil
}

func (s *FileStore) conversationPath(id string) string {
	return filepath.Join(s.base, "conversations", id+".json")
}

func (s *FileStore) statePath(agentID string) string {
	return filepath.Join(s.base, "state", agentID+".json")
}

// SaveMessage implements Store.
func (s *FileStore) SaveMessage(_ context.Context, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ConversationOf(msg)
	log, err := s.readConversation(id)
	if err != nil {
		log = &ConversationLog{ID: id, CreatedAt: time.Now().UTC()}
	}
	log.Messages = append(log.Messages, msg)
	return s.writeJSON(s.conversationPath(id), log)
}

// Messages implements Store.
func (s *FileStore) Messages(_ context.Context, conversationID string) ([]core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, err := s.readConversation(conversationID)
	if err != nil {
		return []core.Message{}, nil
	}
	return log.Messages, nil
}

// AgentState implements Store.
func (s *FileStore) AgentState(_ context.Context, agentID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.statePath(agentID))
	if err != nil {
		return map[string]any{}, nil
	}
	var state map[string]any
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode agent state %q: %w", agentID, err)
	}
	return state, nil
}

// SaveAgentState implements Store.
func (s *FileStore) SaveAgentState(_ context.Context, agentID string, state map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(s.statePath(agentID), state)
}

// CreateConversation implements Store.
func (s *FileStore) CreateConversation(_ context.Context, participants []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := core.NewShortID()
	log := &ConversationLog{ID: id, Participants: participants, CreatedAt: time.Now().UTC()}
	if err := s.writeJSON(s.conversationPath(id), log); err != nil {
		return "", err
	}
	return id, nil
}

// Conversation implements Store.
func (s *FileStore) Conversation(_ context.Context, conversationID string) (*ConversationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readConversation(conversationID)
}

func (s *FileStore) readConversation(id string) (*ConversationLog, error) {
	data, err := os.ReadFile(s.conversationPath(id))
	if err != nil {
		return nil, ErrNotFound
	}
	var log ConversationLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decode conversation %q: %w", id, err)
	}
	return &log, nil
}

func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
