// Package server exposes the calendar proxy REST endpoints and a chat
// endpoint that runs full assistant turns.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/arman-dogru/baklava-bot/internal/assistant"
	"github.com/arman-dogru/baklava-bot/internal/executor"
	"github.com/arman-dogru/baklava-bot/internal/logging"
)

// Server handles HTTP requests for the calendar proxy and chat
type Server struct {
	calendar  executor.CalendarService
	assistant *assistant.Assistant

	mu       sync.Mutex
	sessions map[string]*assistant.Session
}

// New creates a server
func New(cal executor.CalendarService, asst *assistant.Assistant) *Server {
	return &Server{
		calendar:  cal,
		assistant: asst,
		sessions:  make(map[string]*assistant.Session),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/calendar/events", s.handleListEvents)
	mux.HandleFunc("POST /api/calendar/events", s.handleCreateEvent)
	mux.HandleFunc("GET /api/calendar/events/{eventId}", s.handleGetEvent)
	mux.HandleFunc("PATCH /api/calendar/events/{eventId}", s.handleUpdateEvent)
	mux.HandleFunc("DELETE /api/calendar/events/{eventId}", s.handleDeleteEvent)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	return withCORS(mux)
}

// withCORS allows the browser chat UI (served elsewhere) to call the API
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.calendar.ListEvents(r.Context())
	if err != nil {
		logging.Error("server", "list events: %v", err)
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	evt, err := s.calendar.GetEvent(r.Context(), r.PathValue("eventId"))
	if err != nil {
		logging.Error("server", "get event: %v", err)
		http.Error(w, "Failed to fetch event details", http.StatusInternalServerError)
		return
	}
	writeJSON(w, evt)
}

type eventRequest struct {
	Summary string `json:"summary"`
	Date    string `json:"date"` // YYYY-MM-DD
	Time    string `json:"time"` // HH:mm
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	evt, err := s.calendar.CreateEvent(r.Context(), req.Summary, req.Date, req.Time)
	if err != nil {
		logging.Error("server", "create event: %v", err)
		http.Error(w, "Failed to create event", http.StatusInternalServerError)
		return
	}
	writeJSON(w, evt)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	evt, err := s.calendar.UpdateEvent(r.Context(), r.PathValue("eventId"), req.Summary, req.Date, req.Time)
	if err != nil {
		logging.Error("server", "update event: %v", err)
		http.Error(w, "Failed to update event", http.StatusInternalServerError)
		return
	}
	writeJSON(w, evt)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.calendar.DeleteEvent(r.Context(), r.PathValue("eventId")); err != nil {
		logging.Error("server", "delete event: %v", err)
		http.Error(w, "Failed to delete event", http.StatusInternalServerError)
		return
	}
	w.Write([]byte("Event deleted successfully!"))
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// handleChat runs one assistant turn. An omitted session_id starts a new
// conversation; returning IDs lets the client keep its transcript going.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	session := s.session(req.SessionID)
	reply := s.assistant.HandleTurn(r.Context(), session, req.Message)

	writeJSON(w, chatResponse{
		SessionID: session.ID,
		Reply:     reply,
	})
}

// session returns the existing session or creates one
func (s *Server) session(id string) *assistant.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess
		}
	}
	sess := s.assistant.NewSession()
	s.sessions[sess.ID] = sess
	return sess
}

// Run serves until the context is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	logging.Info("server", "listening on %s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
