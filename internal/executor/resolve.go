package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arman-dogru/baklava-bot/internal/types"
)

// ErrUnresolvedReference means a task needed a concrete event ID and
// neither its eventId nor its title matched anything in event memory
var ErrUnresolvedReference = errors.New("unresolved event reference")

// defaultAllDayTime is used when backfilling the time of an event whose
// existing start has no time component
const defaultAllDayTime = "09:00"

// needsEventID reports whether a task kind must carry a concrete event ID
func needsEventID(fn types.TaskFunc) bool {
	switch fn {
	case types.TaskDeleteEvent, types.TaskUpdateEvent, types.TaskGetEventDetails:
		return true
	}
	return false
}

// resolveEventID maps a task's reference to a concrete event ID. An
// eventId that is present in event memory wins; otherwise the title is
// matched as a case-insensitive fragment against known summaries.
func (e *Executor) resolveEventID(task types.Task) (string, error) {
	if id := task.Param("eventId"); id != "" {
		if _, ok := e.memory.Lookup(id); ok {
			return id, nil
		}
	}
	if title := task.Param("title"); title != "" {
		if id, ok := e.memory.FindByTitleFragment(title); ok {
			return id, nil
		}
		return "", fmt.Errorf("%w: cannot find an event matching %q", ErrUnresolvedReference, title)
	}
	if id := task.Param("eventId"); id != "" {
		return "", fmt.Errorf("%w: event %q is not in the current listing", ErrUnresolvedReference, id)
	}
	return "", fmt.Errorf("%w: no eventId or title given", ErrUnresolvedReference)
}

// backfillUpdate fills in any of title/date/time the model omitted from an
// updateEvent task, using the event's current state fetched fresh from the
// calendar (the cached projection may be stale by the time we update).
func (e *Executor) backfillUpdate(ctx context.Context, eventID string, task types.Task) (title, date, hhmm string, err error) {
	title = task.Param("title")
	date = task.Param("date")
	hhmm = task.Param("time")

	if title != "" && date != "" && hhmm != "" {
		return title, date, hhmm, nil
	}

	existing, err := e.calendar.GetEvent(ctx, eventID)
	if err != nil {
		return "", "", "", fmt.Errorf("fetch existing event: %w", err)
	}

	if title == "" {
		title = existing.Summary
		if title == "" {
			title = "Untitled event"
		}
	}

	// Start is either "YYYY-MM-DDTHH:MM:SS..." or a bare "YYYY-MM-DD"
	// for all-day events.
	datePart, timePart, timed := strings.Cut(existing.Start, "T")
	if date == "" {
		date = datePart
	}
	if hhmm == "" {
		if timed && len(timePart) >= 5 {
			hhmm = timePart[:5]
		} else {
			hhmm = defaultAllDayTime
		}
	}

	return title, date, hhmm, nil
}
