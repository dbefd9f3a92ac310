// Package executor performs classified tasks against the calendar and web
// search collaborators, producing the human-readable execution log that
// feeds the reply synthesizer. Tasks run strictly in classifier order;
// a later task may depend on event memory state replaced by an earlier
// getEvents in the same batch.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arman-dogru/baklava-bot/internal/integrations/calendar"
	"github.com/arman-dogru/baklava-bot/internal/integrations/websearch"
	"github.com/arman-dogru/baklava-bot/internal/logging"
	"github.com/arman-dogru/baklava-bot/internal/memory"
	"github.com/arman-dogru/baklava-bot/internal/types"
)

// CalendarService is the calendar collaborator contract
type CalendarService interface {
	ListEvents(ctx context.Context) ([]calendar.Event, error)
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
	CreateEvent(ctx context.Context, summary, date, hhmm string) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, eventID, summary, date, hhmm string) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// SearchService is the web search collaborator contract
type SearchService interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}

// Executor runs task batches for one session
type Executor struct {
	calendar CalendarService
	search   SearchService
	memory   *memory.EventMemory
	timeout  time.Duration
}

// New creates an executor bound to one session's event memory
func New(cal CalendarService, search SearchService, mem *memory.EventMemory, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{
		calendar: cal,
		search:   search,
		memory:   mem,
		timeout:  timeout,
	}
}

// Execute runs the tasks in order and returns the execution log, one line
// per task. A failing task contributes a failure line and never aborts the
// rest of the batch. Each task's external calls share one bounded timeout
// so a hung collaborator costs a failure line, not the whole turn.
func (e *Executor) Execute(ctx context.Context, tasks []types.Task) string {
	lines := make([]string, 0, len(tasks))

	for _, task := range tasks {
		taskCtx, cancel := context.WithTimeout(ctx, e.timeout)
		line, err := e.runTask(taskCtx, task)
		cancel()

		if err != nil {
			params, _ := json.Marshal(task.Parameters)
			logging.Error("executor", "task %q failed: %v", task.Function, err)
			line = fmt.Sprintf("Error in function %q with parameters %s: %v", task.Function, params, err)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// runTask performs one task and returns its log line
func (e *Executor) runTask(ctx context.Context, task types.Task) (string, error) {
	switch task.Function {
	case types.TaskCreateEvent:
		title := task.Param("title")
		date := task.Param("date")
		hhmm := task.Param("time")
		evt, err := e.calendar.CreateEvent(ctx, title, date, hhmm)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created event %q on %s at %s: %s", title, date, hhmm, evt.ToJSON()), nil

	case types.TaskDeleteEvent:
		eventID, err := e.resolveEventID(task)
		if err != nil {
			return "", err
		}
		if err := e.calendar.DeleteEvent(ctx, eventID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted event %s", eventID), nil

	case types.TaskUpdateEvent:
		eventID, err := e.resolveEventID(task)
		if err != nil {
			return "", err
		}
		title, date, hhmm, err := e.backfillUpdate(ctx, eventID, task)
		if err != nil {
			return "", err
		}
		evt, err := e.calendar.UpdateEvent(ctx, eventID, title, date, hhmm)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Updated event %s -> summary %q, date %s time %s: %s",
			eventID, title, date, hhmm, evt.ToJSON()), nil

	case types.TaskGetEvents:
		events, err := e.calendar.ListEvents(ctx)
		if err != nil {
			return "", err
		}
		// Listing replaces event memory so later tasks in this batch
		// (and the next turn's prompt) see fresh ordinals.
		e.memory.Refresh(events)
		listing, _ := json.Marshal(events)
		return fmt.Sprintf("Fetched calendar events: %s", listing), nil

	case types.TaskGetEventDetails:
		eventID, err := e.resolveEventID(task)
		if err != nil {
			return "", err
		}
		evt, err := e.calendar.GetEvent(ctx, eventID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Fetched details for event %s: %s", eventID, evt.ToJSON()), nil

	case types.TaskSearchWeb:
		query := task.Param("query")
		results, err := e.search.Search(ctx, query)
		if err != nil {
			return "", err
		}
		payload, _ := json.Marshal(results)
		return fmt.Sprintf("Searched the web for %q: %s", query, payload), nil

	case types.TaskPlainAnswer:
		return fmt.Sprintf("Plain answer to user: %s", task.Param("text")), nil

	default:
		return fmt.Sprintf("Unknown function %q. No action taken.", task.Function), nil
	}
}
