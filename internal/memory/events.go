// Package memory holds the per-session cache of recently listed calendar
// events. The cache exists so the classifier prompt can enumerate events
// and so follow-up messages can reference them by position or description.
package memory

import (
	"strings"
	"sync"

	"github.com/arman-dogru/baklava-bot/internal/integrations/calendar"
)

// KnownEvent is the lightweight projection of a listed calendar event.
// Ordinals are 1-based listing positions from the most recent refresh;
// they are display aids only and do not survive the next refresh.
type KnownEvent struct {
	EventID   string `json:"event_id"`
	Summary   string `json:"summary"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	Ordinal   int    `json:"ordinal"`
}

// EventMemory caches events between a listing and the follow-up references
// to them. One instance per conversation session; instances are never
// shared across sessions.
type EventMemory struct {
	mu    sync.RWMutex
	byID  map[string]KnownEvent
	order []string // event IDs in listing order
}

// NewEventMemory creates an empty event memory
func NewEventMemory() *EventMemory {
	return &EventMemory{
		byID: make(map[string]KnownEvent),
	}
}

// Refresh discards the previous contents and stores the given events,
// assigning ordinals 1..N in listing order. There is no merging: a stale
// projection is worse than no projection.
func (m *EventMemory) Refresh(events []calendar.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID = make(map[string]KnownEvent, len(events))
	m.order = m.order[:0]

	for i, evt := range events {
		summary := evt.Summary
		if summary == "" {
			summary = "Untitled event"
		}
		m.byID[evt.ID] = KnownEvent{
			EventID:   evt.ID,
			Summary:   summary,
			StartTime: evt.Start,
			EndTime:   evt.End,
			Ordinal:   i + 1,
		}
		m.order = append(m.order, evt.ID)
	}
}

// Lookup returns the projection for an event ID
func (m *EventMemory) Lookup(eventID string) (KnownEvent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	evt, ok := m.byID[eventID]
	return evt, ok
}

// FindByTitleFragment returns the ID of the first event (in listing order)
// whose summary contains the fragment, case-insensitively. When several
// events match, listing order decides; there is no smarter tie-break.
func (m *EventMemory) FindByTitleFragment(fragment string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(fragment)
	for _, id := range m.order {
		if strings.Contains(strings.ToLower(m.byID[id].Summary), needle) {
			return id, true
		}
	}
	return "", false
}

// Snapshot returns all known events in listing order
func (m *EventMemory) Snapshot() []KnownEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]KnownEvent, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

// Len returns the number of known events
func (m *EventMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
