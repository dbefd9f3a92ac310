package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arman-dogru/baklava-bot/internal/assistant"
	"github.com/arman-dogru/baklava-bot/internal/integrations/calendar"
	"github.com/arman-dogru/baklava-bot/internal/integrations/websearch"
)

type stubCalendar struct {
	events  []calendar.Event
	deleted []string
}

func (s *stubCalendar) ListEvents(ctx context.Context) ([]calendar.Event, error) {
	return s.events, nil
}

func (s *stubCalendar) GetEvent(ctx context.Context, id string) (*calendar.Event, error) {
	for _, evt := range s.events {
		if evt.ID == id {
			e := evt
			return &e, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *stubCalendar) CreateEvent(ctx context.Context, summary, date, hhmm string) (*calendar.Event, error) {
	return &calendar.Event{ID: "new1", Summary: summary}, nil
}

func (s *stubCalendar) UpdateEvent(ctx context.Context, id, summary, date, hhmm string) (*calendar.Event, error) {
	return &calendar.Event{ID: id, Summary: summary}, nil
}

func (s *stubCalendar) DeleteEvent(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubSearch struct{}

func (stubSearch) Search(ctx context.Context, query string) ([]websearch.Result, error) {
	return nil, nil
}

// echoLLM answers classification with no tasks and synthesis with a
// fixed reply, good enough for route-level tests
type echoLLM struct{}

func (echoLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "intent classification system") {
		return `{"tasks":[]}`, nil
	}
	return "Hello from the bot.", nil
}

func newTestServer(cal *stubCalendar) *httptest.Server {
	asst := assistant.New(echoLLM{}, cal, stubSearch{}, assistant.Config{
		Persona:     "You are Baklava Bot.",
		TaskTimeout: time.Second,
	})
	ts := httptest.NewServer(New(cal, asst).Handler())
	return ts
}

func TestListEventsRoute(t *testing.T) {
	cal := &stubCalendar{events: []calendar.Event{{ID: "g1", Summary: "Gym"}}}
	ts := newTestServer(cal)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/calendar/events")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var events []calendar.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].ID != "g1" {
		t.Errorf("events = %+v", events)
	}
}

func TestDeleteEventRoute(t *testing.T) {
	cal := &stubCalendar{events: []calendar.Event{{ID: "g1", Summary: "Gym"}}}
	ts := newTestServer(cal)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/calendar/events/g1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "g1" {
		t.Errorf("deleted = %v", cal.deleted)
	}
}

func TestChatRouteKeepsSession(t *testing.T) {
	cal := &stubCalendar{}
	ts := newTestServer(cal)
	defer ts.Close()

	post := func(body string) chatResponse {
		resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var cr chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return cr
	}

	first := post(`{"message":"hello"}`)
	if first.SessionID == "" {
		t.Fatal("no session_id returned")
	}
	if first.Reply != "Hello from the bot." {
		t.Errorf("reply = %q", first.Reply)
	}

	second := post(`{"session_id":"` + first.SessionID + `","message":"hello again"}`)
	if second.SessionID != first.SessionID {
		t.Errorf("session_id changed: %q -> %q", first.SessionID, second.SessionID)
	}
}

func TestChatRouteRejectsEmptyMessage(t *testing.T) {
	ts := newTestServer(&stubCalendar{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
