// Package store provides SQLite-backed persistence for conversation
// transcripts. Event memory is deliberately not persisted: it is rebuilt
// from the calendar on every turn, so storing it would only serve stale
// ordinals.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/arman-dogru/baklava-bot/internal/types"
)

// Store provides access to the transcript database
type Store struct {
	db *sql.DB
}

// New creates a Store and runs migrations
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		channel TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// EnsureSession records a session if it does not exist yet. Channel is a
// free-form label for where the conversation happens (cli, a Discord
// channel ID, an HTTP client identifier).
func (s *Store) EnsureSession(ctx context.Context, sessionID, channel string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, channel, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		sessionID, channel, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

// AppendMessage stores one transcript entry
func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg types.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, sender, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), sessionID, string(msg.Sender), msg.Text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// History returns a session's transcript in insertion order
func (s *Store) History(ctx context.Context, sessionID string) ([]types.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, text FROM messages WHERE session_id = ? ORDER BY created_at, id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []types.ChatMessage
	for rows.Next() {
		var sender, text string
		if err := rows.Scan(&sender, &text); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		history = append(history, types.ChatMessage{
			Sender: types.Sender(sender),
			Text:   text,
		})
	}
	return history, rows.Err()
}

// SessionForChannel returns the most recent session ID recorded for a
// channel, or "" if none exists.
func (s *Store) SessionForChannel(ctx context.Context, channel string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE channel = ? ORDER BY created_at DESC LIMIT 1`,
		channel).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session for channel: %w", err)
	}
	return id, nil
}
