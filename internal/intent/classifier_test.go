package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arman-dogru/baklava-bot/internal/memory"
	"github.com/arman-dogru/baklava-bot/internal/types"
)

// fakeGenerator returns a scripted response
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func TestParseTasks(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantLen   int
		wantErr   bool
		wantFunc  types.TaskFunc
		wantParam map[string]string
	}{
		{
			name:      "bare json",
			raw:       `{"tasks":[{"function":"deleteEvent","parameters":{"title":"gym"}}]}`,
			wantLen:   1,
			wantFunc:  types.TaskDeleteEvent,
			wantParam: map[string]string{"title": "gym"},
		},
		{
			name:     "fenced json block",
			raw:      "Here you go:\n```json\n{\"tasks\":[{\"function\":\"getEvents\",\"parameters\":{}}]}\n```\nDone.",
			wantLen:  1,
			wantFunc: types.TaskGetEvents,
		},
		{
			name:     "stray backticks",
			raw:      "`{\"tasks\":[{\"function\":\"plainAnswer\",\"parameters\":{\"text\":\"hi\"}}]}`",
			wantLen:  1,
			wantFunc: types.TaskPlainAnswer,
		},
		{
			name:    "not json at all",
			raw:     "not json at all",
			wantErr: true,
		},
		{
			name:    "missing tasks key",
			raw:     `{"actions":[]}`,
			wantErr: true,
		},
		{
			name:    "tasks not an array",
			raw:     `{"tasks":"deleteEvent"}`,
			wantErr: true,
		},
		{
			name:    "empty tasks",
			raw:     `{"tasks":[]}`,
			wantLen: 0,
		},
		{
			name:     "unknown function passes through",
			raw:      `{"tasks":[{"function":"orderBaklava","parameters":{}}]}`,
			wantLen:  1,
			wantFunc: types.TaskFunc("orderBaklava"),
		},
		{
			name:      "numeric parameter coerced to string",
			raw:       `{"tasks":[{"function":"createEvent","parameters":{"title":"Gym","count":3}}]}`,
			wantLen:   1,
			wantFunc:  types.TaskCreateEvent,
			wantParam: map[string]string{"title": "Gym", "count": "3"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := ParseTasks(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseTasks(%q) succeeded, want error", tc.raw)
				}
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Errorf("error is %T, want *ParseError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTasks(%q) failed: %v", tc.raw, err)
			}
			if len(tasks) != tc.wantLen {
				t.Fatalf("got %d tasks, want %d", len(tasks), tc.wantLen)
			}
			if tc.wantLen == 0 {
				return
			}
			if tasks[0].Function != tc.wantFunc {
				t.Errorf("function = %q, want %q", tasks[0].Function, tc.wantFunc)
			}
			for k, want := range tc.wantParam {
				if got := tasks[0].Param(k); got != want {
					t.Errorf("param %q = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestClassifyDegradesToEmptyOnGarbage(t *testing.T) {
	c := NewClassifier(&fakeGenerator{response: "not json at all"})
	tasks := c.Classify(context.Background(), nil, "do something", nil)
	if len(tasks) != 0 {
		t.Errorf("got %d tasks from garbage output, want 0", len(tasks))
	}
}

func TestClassifyDegradesToEmptyOnModelError(t *testing.T) {
	c := NewClassifier(&fakeGenerator{err: errors.New("model unavailable")})
	tasks := c.Classify(context.Background(), nil, "do something", nil)
	if len(tasks) != 0 {
		t.Errorf("got %d tasks on model failure, want 0", len(tasks))
	}
}

func TestClassifyPromptContents(t *testing.T) {
	gen := &fakeGenerator{response: `{"tasks":[]}`}
	c := NewClassifier(gen)
	c.SetClock(func() time.Time {
		return time.Date(2025, 3, 30, 14, 5, 0, 0, time.UTC)
	})

	known := []memory.KnownEvent{
		{EventID: "g1", Summary: "Gym", StartTime: "2025-03-30T09:00:00-04:00", Ordinal: 1},
	}
	history := []types.ChatMessage{
		{Sender: types.SenderUser, Text: "hi"},
		{Sender: types.SenderBot, Text: "hello"},
	}

	c.Classify(context.Background(), history, "Cancel the gym event", known)

	if len(gen.prompts) != 1 {
		t.Fatalf("got %d model calls, want 1", len(gen.prompts))
	}
	prompt := gen.prompts[0]

	for _, want := range []string{
		"Today's date is 2025-03-30",
		"current local time is 14:05",
		"[ID: g1]",
		`"Gym"`,
		"user: hi",
		"bot: hello",
		"user: Cancel the gym event",
		"Available intents are: createEvent, deleteEvent, updateEvent, getEvents, getEventDetails, searchWeb, plainAnswer.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"tasks":[]}`, `{"tasks":[]}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence with language", "```javascript\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "sure!\n```json\n{}\n```\nhope that helps", "{}"},
		{"backticks stripped", "`{}`", "{}"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
