// Package observability carries structured events out of the transcript
// engine: session lifecycle transitions, admissions, duplicate drops,
// evictions, and ingress rejections. Level values align with
// OpenTelemetry SeverityNumbers so events translate to OTel collectors
// without mapping tables.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is event severity on the OTel SeverityNumber scale.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8)
	LevelInfo    Level = 9  // OTel INFO (9-12)
	LevelWarning Level = 13 // OTel WARN (13-16)
	LevelError   Level = 17 // OTel ERROR (17-20)
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps the level onto the slog scale for log emission.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event. The engine package defines its
// constants using this type (e.g. "engine.item.admitted").
type EventType string

// Event is one observability record. Fields map onto OTel LogRecord:
// Type→EventName, Level→SeverityNumber, Timestamp→Timestamp,
// Source→InstrumentationScope, Data→Attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives engine events for logging, tracing, or metrics.
// Implementations must tolerate concurrent OnEvent calls.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// NoOpObserver discards every event.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}

// MultiObserver forwards each event to every non-nil observer, in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver over the given observers.
// Nil entries are dropped.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	kept := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			kept = append(kept, obs)
		}
	}
	return &MultiObserver{observers: kept}
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}
