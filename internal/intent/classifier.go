// Package intent turns free-form chat messages into an ordered list of
// structured tasks using a single model call with a required JSON output
// shape. A response we cannot parse degrades to an empty task list: the
// reply synthesizer can still answer from the bare conversation, so a
// malformed classification is never worth failing the whole turn.
package intent

import (
	"context"
	"time"

	"github.com/arman-dogru/baklava-bot/internal/logging"
	"github.com/arman-dogru/baklava-bot/internal/memory"
	"github.com/arman-dogru/baklava-bot/internal/types"
)

// Generator is the single-shot text inference contract the classifier needs
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classifier detects user intent via one LLM call per turn
type Classifier struct {
	llm Generator
	now func() time.Time // injectable for tests
}

// NewClassifier creates an intent classifier
func NewClassifier(llm Generator) *Classifier {
	return &Classifier{
		llm: llm,
		now: time.Now,
	}
}

// SetClock overrides the classifier's notion of "now" (used in tests)
func (c *Classifier) SetClock(now func() time.Time) {
	c.now = now
}

// Classify produces the ordered task list for a new user message. It never
// returns an error: inference or parse failures are logged and yield an
// empty list.
func (c *Classifier) Classify(ctx context.Context, history []types.ChatMessage, newMessage string, known []memory.KnownEvent) []types.Task {
	prompt := BuildPrompt(c.now(), known, history, newMessage)
	logging.Debug("intent", "classification prompt: %s", logging.Truncate(prompt, 200))

	raw, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		logging.Error("intent", "model call failed: %v", err)
		return nil
	}

	tasks, err := ParseTasks(raw)
	if err != nil {
		logging.Error("intent", "%v (raw response: %s)", err, logging.Truncate(raw, 200))
		return nil
	}

	logging.Info("intent", "classified %q into %d task(s)", logging.Truncate(newMessage, 50), len(tasks))
	return tasks
}
