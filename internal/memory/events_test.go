package memory

import (
	"testing"

	"github.com/arman-dogru/baklava-bot/internal/integrations/calendar"
)

func TestRefreshAssignsOrdinals(t *testing.T) {
	m := NewEventMemory()
	m.Refresh([]calendar.Event{
		{ID: "a", Summary: "Gym", Start: "2025-03-30T09:00:00-04:00"},
		{ID: "b", Summary: "Baklava meeting", Start: "2025-03-30T18:00:00-04:00"},
	})

	tests := []struct {
		id          string
		wantSummary string
		wantOrdinal int
	}{
		{"a", "Gym", 1},
		{"b", "Baklava meeting", 2},
	}

	for _, tc := range tests {
		evt, ok := m.Lookup(tc.id)
		if !ok {
			t.Fatalf("Lookup(%q) missing", tc.id)
		}
		if evt.Summary != tc.wantSummary {
			t.Errorf("Lookup(%q).Summary = %q, want %q", tc.id, evt.Summary, tc.wantSummary)
		}
		if evt.Ordinal != tc.wantOrdinal {
			t.Errorf("Lookup(%q).Ordinal = %d, want %d", tc.id, evt.Ordinal, tc.wantOrdinal)
		}
	}
}

func TestRefreshReplacesEverything(t *testing.T) {
	m := NewEventMemory()
	m.Refresh([]calendar.Event{{ID: "old", Summary: "Dentist"}})
	m.Refresh([]calendar.Event{{ID: "new", Summary: "Standup"}})

	if _, ok := m.Lookup("old"); ok {
		t.Error("old event survived refresh")
	}
	evt, ok := m.Lookup("new")
	if !ok || evt.Ordinal != 1 {
		t.Errorf("new event = %+v, ok=%v, want ordinal 1", evt, ok)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestFindByTitleFragment(t *testing.T) {
	m := NewEventMemory()
	m.Refresh([]calendar.Event{
		{ID: "g1", Summary: "Gym"},
		{ID: "p1", Summary: "Group meeting for pistachios"},
		{ID: "p2", Summary: "Pistachio tasting"},
	})

	tests := []struct {
		fragment string
		wantID   string
		wantOK   bool
	}{
		{"pistachio", "p1", true}, // case-insensitive substring, first in listing order wins
		{"GYM", "g1", true},
		{"meeting", "p1", true},
		{"baklava", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.fragment, func(t *testing.T) {
			id, ok := m.FindByTitleFragment(tc.fragment)
			if ok != tc.wantOK || id != tc.wantID {
				t.Errorf("FindByTitleFragment(%q) = (%q, %v), want (%q, %v)",
					tc.fragment, id, ok, tc.wantID, tc.wantOK)
			}
		})
	}
}

func TestSnapshotPreservesListingOrder(t *testing.T) {
	m := NewEventMemory()
	m.Refresh([]calendar.Event{
		{ID: "c", Summary: "Third"},
		{ID: "a", Summary: "First"},
		{ID: "b", Summary: "Second"},
	})

	snap := m.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot len = %d, want 3", len(snap))
	}
	wantIDs := []string{"c", "a", "b"}
	for i, id := range wantIDs {
		if snap[i].EventID != id {
			t.Errorf("snap[%d].EventID = %q, want %q", i, snap[i].EventID, id)
		}
		if snap[i].Ordinal != i+1 {
			t.Errorf("snap[%d].Ordinal = %d, want %d", i, snap[i].Ordinal, i+1)
		}
	}
}

func TestUntitledEventsGetPlaceholderSummary(t *testing.T) {
	m := NewEventMemory()
	m.Refresh([]calendar.Event{{ID: "x"}})

	evt, _ := m.Lookup("x")
	if evt.Summary != "Untitled event" {
		t.Errorf("Summary = %q, want %q", evt.Summary, "Untitled event")
	}
}
