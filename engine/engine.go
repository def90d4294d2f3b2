// Package engine composes the session gate, normalizer, buffer,
// show-then-tell coordinator, and fan-out distributor into the transcript
// distribution core.
//
// The engine initializes from configuration via New; functional options
// allow overriding the observer, logger, or clock:
//
//	e := engine.New(engine.DefaultConfig())
//	err := e.StartSession(ctx, session.Config{SessionID: "sess-1"})
//	unsubscribe := e.Subscribe(func(items []transcript.ContentItem) { ... })
//	id := e.AddTranscriptionItem(ctx, engine.Item{Type: transcript.TypeMath, Content: "x^2 = 4"})
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/visual-tutor/engine/core/transcript"
	"github.com/visual-tutor/engine/fanout"
	"github.com/visual-tutor/engine/ingest"
	"github.com/visual-tutor/engine/observability"
	"github.com/visual-tutor/engine/session"
	"github.com/visual-tutor/engine/showtell"
)

// Item is the single-item admission payload of AddTranscriptionItem.
// Speaker and Confidence are optional; absent values default to the AI
// speaker and full confidence.
type Item struct {
	Type       transcript.ContentType `json:"type"`
	Content    string                 `json:"content"`
	Speaker    transcript.Speaker     `json:"speaker,omitempty"`
	Confidence *float64               `json:"confidence,omitempty"`
}

// Option configures an Engine after config-driven initialization.
type Option func(*Engine)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger overrides the default logger used by the normalizer and
// the distributor.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the engine's time source, propagated to sessions
// and their buffers. Used by tests to drive the dedup window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is the transcript distribution core. One live session at a
// time admits content; subscribers persist across session boundaries.
// Safe for concurrent use.
type Engine struct {
	manager     *session.Manager
	normalizer  *ingest.Normalizer
	coordinator *showtell.Coordinator
	distributor *fanout.Distributor
	observer    observability.Observer
	logger      *slog.Logger
	now         func() time.Time
}

// New creates an Engine from configuration. Options applied after
// initialization can override the observer, logger, or clock.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		observer: observability.NewSlogObserver(slog.Default()),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.manager = session.NewManager(cfg.Buffer, session.WithClock(e.now))
	e.normalizer = ingest.New(e.logger)
	e.coordinator = showtell.New(cfg.ShowTell)
	e.distributor = fanout.New(e.logger)
	return e
}

// StartSession creates a new live session. Fails with ErrSessionConflict
// while another session is initializing or active.
func (e *Engine) StartSession(ctx context.Context, cfg session.Config) error {
	sess, err := e.manager.Start(cfg)
	if err != nil {
		return err
	}

	e.emit(ctx, EventSessionStart, observability.LevelInfo, "engine.StartSession", map[string]any{
		"session_id": sess.ID(),
		"student_id": cfg.StudentID,
		"topic":      cfg.Topic,
	})
	return nil
}

// ConfirmReady records the transport readiness signal for the live
// session, moving it from initializing to active. Fails with
// ErrUnknownSession if the id does not name the live session.
func (e *Engine) ConfirmReady(ctx context.Context, id string) error {
	live, ok := e.manager.Live()
	if !ok || live.ID() != id {
		return fmt.Errorf("%w: %s", session.ErrUnknownSession, id)
	}

	live.MarkActive()
	e.emit(ctx, EventSessionActive, observability.LevelInfo, "engine.ConfirmReady", map[string]any{
		"session_id": id,
	})
	return nil
}

// EndSession terminates the live session, discards its buffer contents,
// and notifies subscribers with the now-empty snapshot. The subscriber
// registry survives; display surfaces do not resubscribe between
// sessions. Fails with ErrUnknownSession on an id mismatch.
func (e *Engine) EndSession(ctx context.Context, id string) error {
	if err := e.manager.End(id); err != nil {
		return err
	}

	e.emit(ctx, EventSessionEnd, observability.LevelInfo, "engine.EndSession", map[string]any{
		"session_id": id,
	})
	e.distributor.Publish(ctx, nil)
	return nil
}

// AddTranscriptionItem admits one item into the live session's buffer.
// Returns the assigned item id, or "" on any rejection: no live session,
// malformed payload, or duplicate suppression. The empty-id signal is
// uniform; callers needing the distinction consult the event stream.
func (e *Engine) AddTranscriptionItem(ctx context.Context, item Item) string {
	batch := transcript.Batch{
		Segments: []transcript.Segment{{
			Type:       item.Type,
			Content:    item.Content,
			Confidence: item.Confidence,
		}},
		Speaker: item.Speaker,
	}

	ids, _ := e.AddBatch(ctx, batch)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// AddBatch normalizes an ingress batch, annotates show-then-tell
// metadata, and admits each surviving segment. Returns the assigned ids
// of successful admissions; suppressed duplicates and rejected segments
// yield no id. A batch without a segments array is rejected wholesale
// with ErrMalformedSegment. Subscribers are notified once per successful
// admission.
func (e *Engine) AddBatch(ctx context.Context, batch transcript.Batch) ([]string, error) {
	items, err := e.normalizer.Normalize(ctx, batch)
	if err != nil {
		e.emit(ctx, EventBatchMalformed, observability.LevelWarning, "engine.AddBatch", map[string]any{
			"speaker": string(batch.Speaker),
			"error":   err.Error(),
		})
		return nil, err
	}

	e.coordinator.Annotate(items, batch)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id := e.admit(ctx, item); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (e *Engine) admit(ctx context.Context, item transcript.ContentItem) string {
	live, ok := e.manager.Live()
	if !ok {
		e.emit(ctx, EventItemRejected, observability.LevelWarning, "engine.admit", map[string]any{
			"item_type": string(item.Type),
			"reason":    session.ErrSessionNotReady.Error(),
		})
		return ""
	}

	evictedBefore := live.Buffer().Evicted()

	id, err := live.Admit(item)
	if err != nil {
		e.emit(ctx, EventItemRejected, observability.LevelWarning, "engine.admit", map[string]any{
			"session_id": live.ID(),
			"item_type":  string(item.Type),
			"reason":     err.Error(),
		})
		return ""
	}
	if id == "" {
		// Expected duplicate suppression; never logged above verbose.
		e.emit(ctx, EventItemDuplicate, observability.LevelVerbose, "engine.admit", map[string]any{
			"session_id": live.ID(),
			"item_type":  string(item.Type),
		})
		return ""
	}

	if evicted := live.Buffer().Evicted() - evictedBefore; evicted > 0 {
		e.emit(ctx, EventItemEvicted, observability.LevelVerbose, "engine.admit", map[string]any{
			"session_id": live.ID(),
			"evicted":    evicted,
		})
	}

	e.emit(ctx, EventItemAdmitted, observability.LevelVerbose, "engine.admit", map[string]any{
		"session_id":     live.ID(),
		"item_id":        id,
		"item_type":      string(item.Type),
		"speaker":        string(item.Speaker),
		"visual_lead_ms": item.VisualLeadMs,
	})

	e.distributor.Publish(ctx, live.Buffer().Items())
	return id
}

// Items returns the ordered snapshot of the live session's buffer, or an
// empty slice when no session is live.
func (e *Engine) Items() []transcript.ContentItem {
	live, ok := e.manager.Live()
	if !ok {
		return nil
	}
	return live.Buffer().Items()
}

// LastItem returns the most recently admitted item of the live session.
func (e *Engine) LastItem() (transcript.ContentItem, bool) {
	live, ok := e.manager.Live()
	if !ok {
		return transcript.ContentItem{}, false
	}
	return live.Buffer().Last()
}

// BufferSize returns the number of items in the live session's buffer.
func (e *Engine) BufferSize() int {
	live, ok := e.manager.Live()
	if !ok {
		return 0
	}
	return live.Buffer().Len()
}

// Subscribe registers a snapshot callback and returns its unsubscribe
// handle. No delivery happens at subscribe time; call Items once for the
// initial state.
func (e *Engine) Subscribe(fn func(items []transcript.ContentItem)) (unsubscribe func()) {
	return e.distributor.Subscribe(fn)
}

// SessionStats summarizes the live session's activity. Fails with
// ErrUnknownSession when no session is live.
func (e *Engine) SessionStats() (session.Stats, error) {
	live, ok := e.manager.Live()
	if !ok {
		return session.Stats{}, fmt.Errorf("%w: no live session", session.ErrUnknownSession)
	}
	return live.Stats(), nil
}

// Session returns the live session, if any. Exposed for the transport
// layer's stats and readiness endpoints.
func (e *Engine) Session() (*session.Session, bool) {
	return e.manager.Live()
}

// Metrics returns the distributor's delivery counters.
func (e *Engine) Metrics() fanout.MetricsSnapshot {
	return e.distributor.Metrics()
}

func (e *Engine) emit(ctx context.Context, typ observability.EventType, level observability.Level, source string, data map[string]any) {
	e.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: e.now(),
		Source:    source,
		Data:      data,
	})
}
