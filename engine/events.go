package engine

import "github.com/visual-tutor/engine/observability"

// Engine event types emitted through the configured observer.
//
// Duplicate suppression is normal behavior, so EventItemDuplicate is
// emitted at verbose level only. EventItemRejected marks the actionable
// case: admission attempted while no session can admit.
const (
	EventSessionStart   observability.EventType = "engine.session.start"
	EventSessionActive  observability.EventType = "engine.session.active"
	EventSessionEnd     observability.EventType = "engine.session.end"
	EventItemAdmitted   observability.EventType = "engine.item.admitted"
	EventItemDuplicate  observability.EventType = "engine.item.duplicate"
	EventItemRejected   observability.EventType = "engine.item.rejected"
	EventItemEvicted    observability.EventType = "engine.item.evicted"
	EventBatchMalformed observability.EventType = "engine.batch.malformed"
)
