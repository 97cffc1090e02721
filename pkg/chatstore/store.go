// Package chatstore persists dashboard chat sessions in SQLite.
package chatstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

// Store implements dashboard.SessionStore on a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
	mu  sync.Mutex
}

var _ dashboard.SessionStore = (*Store)(nil)

// Open creates the database file (and its directory) when missing and
// applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("chatstore: database path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("chatstore: create database directory: %w", err)
		}
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("chatstore: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("chatstore: ping database: %w", err)
	}
	store := &Store{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		filter_key TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_updated ON chat_sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("chatstore: create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSession loads a session, or nil when the id is unknown.
func (s *Store) GetSession(ctx context.Context, id string) (*dashboard.ChatSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filter_key, messages_json, created_at, updated_at
		FROM chat_sessions WHERE id = ?`, id)

	var session dashboard.ChatSession
	var messages string
	var createdAt, updatedAt int64
	err := row.Scan(&session.ID, &session.FilterKey, &messages, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chatstore: scan session %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(messages), &session.Messages); err != nil {
		return nil, fmt.Errorf("chatstore: decode messages of %s: %w", id, err)
	}
	session.CreatedAt = time.UnixMilli(createdAt).UTC()
	session.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &session, nil
}

// SaveSession inserts or replaces the session.
func (s *Store) SaveSession(ctx context.Context, session *dashboard.ChatSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("chatstore: session id is required")
	}
	messages, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("chatstore: encode messages: %w", err)
	}
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO chat_sessions (id, filter_key, messages_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		filter_key = excluded.filter_key,
		messages_json = excluded.messages_json,
		updated_at = excluded.updated_at`,
		session.ID, session.FilterKey, string(messages), createdAt.UnixMilli(), updatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("chatstore: save session %s: %w", session.ID, err)
	}
	return nil
}

// DeleteSession removes the session. Unknown ids are not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("chatstore: delete session %s: %w", id, err)
	}
	return nil
}

// CleanupExpired deletes sessions idle for longer than ttl and returns how
// many were removed.
func (s *Store) CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-ttl).UnixMilli()
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("chatstore: cleanup expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("chatstore: cleanup expired sessions: %w", err)
	}
	return n, nil
}
