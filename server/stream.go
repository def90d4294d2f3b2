package server

import (
	"log/slog"
	"net/http"

	"github.com/visual-tutor/engine/core/transcript"
)

// handleStream upgrades the connection and pushes the full buffer
// snapshot to the client after every change. The initial state is sent
// explicitly right after subscribing, so the client never races the
// first change.
//
// The subscription callback must not block the engine's fan-out, so it
// hands snapshots to the writer goroutine through a one-slot mailbox:
// a slow client observes the latest snapshot, not every intermediate one.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	updates := make(chan []transcript.ContentItem, 1)
	unsubscribe := s.engine.Subscribe(func(items []transcript.ContentItem) {
		offer(updates, items)
	})
	defer unsubscribe()

	// Explicit initial read, then rely on the subscription.
	offer(updates, s.engine.Items())

	// Reader goroutine: we send only, but reads drive close detection
	// and control-frame processing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case items := <-updates:
			if items == nil {
				items = []transcript.ContentItem{}
			}
			if err := conn.WriteJSON(snapshotMessage{Items: items, Count: len(items)}); err != nil {
				s.logger.DebugContext(r.Context(), "stream write failed, dropping subscriber",
					slog.String("remote", r.RemoteAddr),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}
}

type snapshotMessage struct {
	Items []transcript.ContentItem `json:"items"`
	Count int                      `json:"count"`
}

// offer places a snapshot into the one-slot mailbox, displacing a stale
// one if the writer has not caught up.
func offer(updates chan []transcript.ContentItem, items []transcript.ContentItem) {
	for {
		select {
		case updates <- items:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
	}
}
