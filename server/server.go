// Package server exposes the transcript engine over HTTP: REST endpoints
// for session lifecycle and ingress, and a WebSocket stream that pushes
// each buffer snapshot to connected display surfaces.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/visual-tutor/engine/core/transcript"
	"github.com/visual-tutor/engine/engine"
	"github.com/visual-tutor/engine/ingest"
	"github.com/visual-tutor/engine/session"
)

// Server routes transport requests into the engine.
type Server struct {
	engine   *engine.Engine
	logger   *slog.Logger
	upgrader websocket.Upgrader
	srv      *http.Server
}

// New creates a Server over the given engine. A nil logger falls back to
// slog.Default.
func New(cfg *Config, eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: eng,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", s.handleStartSession)
	mux.HandleFunc("POST /v1/sessions/{id}/ready", s.handleConfirmReady)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleEndSession)
	mux.HandleFunc("GET /v1/sessions/stats", s.handleStats)
	mux.HandleFunc("POST /v1/ingress", s.handleIngress)
	mux.HandleFunc("GET /v1/items", s.handleItems)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

// Handler returns the route handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe runs the HTTP listener until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var cfg session.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid session config")
		return
	}

	if err := s.engine.StartSession(r.Context(), cfg); err != nil {
		if errors.Is(err, session.ErrSessionConflict) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	live, _ := s.engine.Session()
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": live.ID(),
		"status":     string(live.Status()),
	})
}

func (s *Server) handleConfirmReady(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.engine.ConfirmReady(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.engine.EndSession(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.SessionStats()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message_count":       stats.MessageCount,
		"math_equation_count": stats.MathEquationCount,
		"session_duration_ms": stats.SessionDuration.Milliseconds(),
	})
}

func (s *Server) handleIngress(w http.ResponseWriter, r *http.Request) {
	var batch transcript.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid ingress payload")
		return
	}

	ids, err := s.engine.AddBatch(r.Context(), batch)
	if err != nil {
		if errors.Is(err, ingest.ErrMalformedSegment) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"item_ids": ids})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items := s.engine.Items()
	if items == nil {
		items = []transcript.ContentItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
