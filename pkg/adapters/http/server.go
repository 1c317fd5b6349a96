package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines what the server needs from the Arbor core.
type Engine interface {
	ports.PageEngine
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// SessionParam names the query parameter carrying the session id.
const SessionParam = "session_id"

// MaxTextLength bounds the text of a reported message.
const MaxTextLength = 4096

// Server serves pages and session feedback over HTTP.
type Server struct {
	Engine   Engine
	Streams  *StreamManager
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// ReportRequest is the body of POST /sessions/{id}/feedback.
type ReportRequest struct {
	Level domain.Level `json:"level"`
	Text  string       `json:"text"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return newServer(engine, opts...).routes()
}

func newServer(engine Engine, opts ...Option) *Server {
	server := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)
	return server
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/pages", s.ListPages)
	r.Get("/pages/{name}", s.RenderPage)
	r.Get("/pages/{name}/tree", s.InspectPage)
	r.Post("/sessions/{id}/feedback", s.Report)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrPageNotFound) {
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// ListPages handles the GET /pages request.
func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.Engine.Pages(r.Context())
	if err != nil {
		s.fail(w, "Pages", err)
		return
	}
	s.writeJSON(w, http.StatusOK, pages)
}

// RenderPage handles the GET /pages/{name} request. It runs one turn of
// the session and broadcasts the resulting view to its subscribers.
func (s *Server) RenderPage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get(SessionParam)
	if sessionID == "" {
		http.Error(w, "Missing "+SessionParam, http.StatusBadRequest)
		return
	}

	view, err := s.Engine.Render(r.Context(), sessionID, chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, "Render", err)
		return
	}

	if bytes, err := json.Marshal(view); err == nil {
		s.Streams.Broadcast(sessionID, string(bytes))
	}
	s.writeJSON(w, http.StatusOK, view)
}

// InspectPage handles the GET /pages/{name}/tree request.
func (s *Server) InspectPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.Engine.Inspect(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, "Inspect", err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// Report handles the POST /sessions/{id}/feedback request.
func (s *Server) Report(w http.ResponseWriter, r *http.Request) {
	var body ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Report: invalid request body", "error", err)
		return
	}
	text := strings.TrimSpace(body.Text)
	if text == "" || len(text) > MaxTextLength {
		http.Error(w, "Invalid text", http.StatusBadRequest)
		return
	}
	if body.Level == domain.LevelUndefined {
		body.Level = domain.LevelInfo
	}

	if err := s.Engine.Report(r.Context(), chi.URLParam(r, "id"), body.Level, text); err != nil {
		s.fail(w, "Report", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates a stream manager logging to logger, or nowhere
// when logger is nil.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of the session. Slow subscribers
// lose the message.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE). Without a session
// it streams page reloads; with one, the views rendered for it.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := r.URL.Query().Get(SessionParam)
	var (
		reloads <-chan struct{}
		views   chan string
	)
	if sessionID == "" {
		events, err := s.Engine.Watch(r.Context())
		if err != nil {
			s.fail(w, "Watch", err)
			return
		}
		reloads = events
	} else {
		ch, cancel := s.Streams.Subscribe(sessionID)
		defer cancel()
		views = ch
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-reloads:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: pages changed\n\n")
			flusher.Flush()
		case msg, ok := <-views:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: view\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
