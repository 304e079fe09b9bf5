// Package httpapi exposes the engine over HTTP: views, clock control,
// location clicks, event intake, metrics and the websocket stream.
package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/eventscope/internal/engine"
	"github.com/user/eventscope/internal/feed"
	"github.com/user/eventscope/internal/highlight"
	"github.com/user/eventscope/internal/types"
	"github.com/user/eventscope/internal/view"
)

const maxBodyBytes = 1 << 20

// Controller is the part of the engine the API drives.
type Controller interface {
	View() view.View
	Stats() engine.Stats
	Highlights() []highlight.Entry
	BeginDrag()
	Drag(ts int64) bool
	EndDrag(ts int64)
	ClickLocation(location string) (*types.Event, bool)
}

// Server is the HTTP handler for the API.
type Server struct {
	engine  Controller
	sink    types.BatchSink
	metrics http.Handler
	stream  http.Handler
	mux     *http.ServeMux
}

// NewServer creates a Server. sink, metrics and stream may be nil, in
// which case their routes answer 503.
func NewServer(eng Controller, sink types.BatchSink, metrics, stream http.Handler) *Server {
	s := &Server{
		engine:  eng,
		sink:    sink,
		metrics: metrics,
		stream:  stream,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/highlights", s.handleHighlights)
	s.mux.HandleFunc("POST /api/events", s.handleEvents)
	s.mux.HandleFunc("POST /api/clock/drag/start", s.handleDragStart)
	s.mux.HandleFunc("POST /api/clock/drag", s.handleDrag)
	s.mux.HandleFunc("POST /api/clock/drag/end", s.handleDragEnd)
	s.mux.HandleFunc("POST /api/locations/", s.handleClick)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)
	s.mux.HandleFunc("GET /ws", s.handleStream)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.View())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	entries := s.engine.Highlights()
	if entries == nil {
		entries = []highlight.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		writeError(w, http.StatusServiceUnavailable, "intake not configured")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	batch, err := feed.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.sink.Enqueue(batch); err != nil {
		slog.Warn("intake rejected batch", "size", len(batch), "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"received": len(batch)})
}

// timestampRequest is the JSON body for the drag endpoints. Timestamp is
// Unix ms.
type timestampRequest struct {
	Timestamp *int64 `json:"timestamp"`
}

func decodeTimestamp(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var req timestampRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return 0, false
	}
	if req.Timestamp == nil {
		return 0, false
	}
	return *req.Timestamp, true
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	s.engine.BeginDrag()
	writeJSON(w, http.StatusOK, s.engine.View())
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	ts, ok := decodeTimestamp(w, r)
	if !ok {
		writeError(w, http.StatusBadRequest, "timestamp is required")
		return
	}
	if !s.engine.Drag(ts) {
		writeError(w, http.StatusConflict, "clock is not being dragged")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.View())
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	ts, ok := decodeTimestamp(w, r)
	if !ok {
		writeError(w, http.StatusBadRequest, "timestamp is required")
		return
	}
	s.engine.EndDrag(ts)
	writeJSON(w, http.StatusOK, s.engine.View())
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	// Path: /api/locations/{location}/click, location path-escaped
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/api/locations/")
	escaped, ok := strings.CutSuffix(path, "/click")
	if !ok || escaped == "" || strings.Contains(escaped, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	location, err := url.PathUnescape(escaped)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid location")
		return
	}

	ev, found := s.engine.ClickLocation(location)
	if !found {
		writeError(w, http.StatusNotFound, "no events at location")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not configured")
		return
	}
	s.metrics.ServeHTTP(w, r)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.stream == nil {
		writeError(w, http.StatusServiceUnavailable, "stream not configured")
		return
	}
	s.stream.ServeHTTP(w, r)
}
