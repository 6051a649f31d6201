// Package sqlite provides a storage.Store backed by a SQLite database via
// the pure-Go modernc.org/sqlite driver, so no cgo toolchain is required.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/routemesh/routemesh/core"
	"github.com/routemesh/routemesh/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	participants TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	receiver TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	seq INTEGER PRIMARY KEY AUTOINCREMENT
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
CREATE TABLE IF NOT EXISTS agent_state (
	agent_id TEXT PRIMARY KEY,
	state TEXT NOT NULL DEFAULT '{}'
);
`

// Store implements storage.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveMessage implements storage.Store.
func (s *Store) SaveMessage(ctx context.Context, msg core.Message) error {
	conversationID := storage.ConversationOf(msg)
	if err := s.ensureConversation(ctx, conversationID, nil); err != nil {
		return err
	}
	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("encode message metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender, receiver, content, timestamp, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, conversationID, msg.Sender, msg.Receiver, msg.Content, msg.Timestamp, string(metadata))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Messages implements storage.Store.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender, receiver, content, timestamp, metadata
		 FROM messages WHERE conversation_id = ? ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []core.Message{}
	for rows.Next() {
		var msg core.Message
		var metadata string
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Receiver, &msg.Content, &msg.Timestamp, &metadata); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if metadata != "" && metadata != "null" {
			if err := json.Unmarshal([]byte(metadata), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// AgentState implements storage.Store.
func (s *Store) AgentState(ctx context.Context, agentID string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM agent_state WHERE agent_id = ?`, agentID).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query agent state: %w", err)
	}
	state := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode agent state %q: %w", agentID, err)
	}
	return state, nil
}

// SaveAgentState implements storage.Store.
func (s *Store) SaveAgentState(ctx context.Context, agentID string, state map[string]any) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode agent state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agent_state (agent_id, state) VALUES (?, ?)
		 ON CONFLICT(agent_id) DO UPDATE SET state = excluded.state`,
		agentID, string(raw))
	if err != nil {
		return fmt.Errorf("upsert agent state: %w", err)
	}
	return nil
}

// CreateConversation implements storage.Store.
func (s *Store) CreateConversation(ctx context.Context, participants []string) (string, error) {
	id := core.NewShortID()
	if err := s.ensureConversation(ctx, id, participants); err != nil {
		return "", err
	}
	return id, nil
}

// Conversation implements storage.Store.
func (s *Store) Conversation(ctx context.Context, conversationID string) (*storage.ConversationLog, error) {
	var participantsRaw string
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT participants, created_at FROM conversations WHERE id = ?`, conversationID).
		Scan(&participantsRaw, &createdAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	log := &storage.ConversationLog{ID: conversationID, CreatedAt: createdAt}
	if err := json.Unmarshal([]byte(participantsRaw), &log.Participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	msgs, err := s.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	log.Messages = msgs
	return log, nil
}

func (s *Store) ensureConversation(ctx context.Context, id string, participants []string) error {
	if participants == nil {
		participants = []string{}
	}
	raw, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("encode participants: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, participants, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensure conversation: %w", err)
	}
	return nil
}
