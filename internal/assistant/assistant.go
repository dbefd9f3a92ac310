// Package assistant ties the turn pipeline together: refresh event memory,
// classify intent, execute tasks, synthesize the reply. One Session per
// conversation; sessions never share event memory.
package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arman-dogru/baklava-bot/internal/executor"
	"github.com/arman-dogru/baklava-bot/internal/intent"
	"github.com/arman-dogru/baklava-bot/internal/logging"
	"github.com/arman-dogru/baklava-bot/internal/memory"
	"github.com/arman-dogru/baklava-bot/internal/types"
)

// Config holds assistant-wide settings
type Config struct {
	Persona     string
	TaskTimeout time.Duration
}

// Assistant handles conversation turns
type Assistant struct {
	llm        intent.Generator
	calendar   executor.CalendarService
	search     executor.SearchService
	classifier *intent.Classifier
	persona    string
	timeout    time.Duration
}

// New creates an assistant from its collaborators
func New(llm intent.Generator, cal executor.CalendarService, search executor.SearchService, cfg Config) *Assistant {
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Assistant{
		llm:        llm,
		calendar:   cal,
		search:     search,
		classifier: intent.NewClassifier(llm),
		persona:    cfg.Persona,
		timeout:    timeout,
	}
}

// Classifier exposes the intent classifier (used by tests to inject a clock)
func (a *Assistant) Classifier() *intent.Classifier {
	return a.classifier
}

// Session is one conversation's state: transcript plus event memory.
// The mutex serializes turns delivered concurrently by a front-end; two
// turns interleaving against one event memory would race refresh against
// resolution.
type Session struct {
	ID string

	mu      sync.Mutex
	history []types.ChatMessage
	memory  *memory.EventMemory
	exec    *executor.Executor
}

// NewSession creates a fresh conversation session
func (a *Assistant) NewSession() *Session {
	mem := memory.NewEventMemory()
	return &Session{
		ID:     uuid.NewString(),
		memory: mem,
		exec:   executor.New(a.calendar, a.search, mem, a.timeout),
	}
}

// History returns a copy of the session transcript
func (s *Session) History() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// Seed preloads a transcript into the session (used when resuming a stored
// conversation). Only valid before the first turn.
func (s *Session) Seed(history []types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history[:0], history...)
}

// HandleTurn processes one user message and returns the reply text. It
// always returns something presentable: every internal failure either
// degrades (classification, single tasks, memory refresh) or falls back to
// a fixed apology (reply synthesis).
func (a *Assistant) HandleTurn(ctx context.Context, s *Session, newMessage string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Rebuild event memory from the calendar so this turn's references
	// resolve against current listings. A failed refresh leaves the
	// previous turn's memory in place; the turn still proceeds.
	refreshCtx, cancel := context.WithTimeout(ctx, a.timeout)
	events, err := a.calendar.ListEvents(refreshCtx)
	cancel()
	if err != nil {
		logging.Error("assistant", "event memory refresh failed: %v", err)
	} else {
		s.memory.Refresh(events)
	}

	tasks := a.classifier.Classify(ctx, s.history, newMessage, s.memory.Snapshot())
	taskLog := s.exec.Execute(ctx, tasks)
	logging.Debug("assistant", "task results: %s", logging.Truncate(taskLog, 300))

	reply, err := a.synthesize(ctx, s.history, newMessage, taskLog)
	if err != nil {
		logging.Error("assistant", "reply synthesis failed: %v", err)
		reply = fallbackApology
	}

	s.history = append(s.history,
		types.ChatMessage{Sender: types.SenderUser, Text: newMessage},
		types.ChatMessage{Sender: types.SenderBot, Text: reply},
	)

	return reply
}
