package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arman-dogru/baklava-bot/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTranscriptRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.EnsureSession(ctx, "s1", "cli"); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	// Idempotent
	if err := s.EnsureSession(ctx, "s1", "cli"); err != nil {
		t.Fatalf("EnsureSession (repeat): %v", err)
	}

	msgs := []types.ChatMessage{
		{Sender: types.SenderUser, Text: "Cancel the gym event"},
		{Sender: types.SenderBot, Text: "Done, it's cancelled."},
	}
	for _, m := range msgs {
		if err := s.AppendMessage(ctx, "s1", m); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	history, err := s.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d messages, want 2", len(history))
	}
	for i, want := range msgs {
		if history[i] != want {
			t.Errorf("history[%d] = %+v, want %+v", i, history[i], want)
		}
	}
}

func TestHistoryEmptyForUnknownSession(t *testing.T) {
	s := newTestStore(t)

	history, err := s.History(context.Background(), "missing")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history = %v, want empty", history)
	}
}

func TestSessionForChannel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SessionForChannel(ctx, "discord-123")
	if err != nil {
		t.Fatalf("SessionForChannel: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty for unknown channel", id)
	}

	if err := s.EnsureSession(ctx, "s1", "discord-123"); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}

	id, err = s.SessionForChannel(ctx, "discord-123")
	if err != nil {
		t.Fatalf("SessionForChannel: %v", err)
	}
	if id != "s1" {
		t.Errorf("id = %q, want s1", id)
	}
}
