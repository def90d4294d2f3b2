// Package fanout broadcasts buffer snapshots to registered subscribers.
//
// Subscribers are invoked synchronously in registration order on every
// publish. A subscriber that panics is isolated: the failure is logged
// and delivery continues with the next subscriber. Unsubscribing is
// idempotent and safe to call from inside the delivery callback.
package fanout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/visual-tutor/engine/core/transcript"
)

// Callback receives the full ordered snapshot after each buffer change.
type Callback func(items []transcript.ContentItem)

type subscriber struct {
	seq int64
	fn  Callback
}

// Distributor maintains the subscriber registry and delivers snapshots.
// Safe for concurrent use.
type Distributor struct {
	subscribers map[int64]*subscriber
	order       []int64
	nextSeq     int64
	mu          sync.RWMutex

	logger  *slog.Logger
	metrics *Metrics
}

// New creates a Distributor. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{
		subscribers: make(map[int64]*subscriber),
		logger:      logger,
		metrics:     NewMetrics(),
	}
}

// Subscribe registers a callback and returns its unsubscribe handle.
// No delivery happens at subscribe time; callers read the current state
// explicitly and rely on the subscription for subsequent changes.
func (d *Distributor) Subscribe(fn Callback) (unsubscribe func()) {
	d.mu.Lock()
	seq := d.nextSeq
	d.nextSeq++
	d.subscribers[seq] = &subscriber{seq: seq, fn: fn}
	d.order = append(d.order, seq)
	d.mu.Unlock()

	d.metrics.RecordSubscriber(1)

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(seq) })
	}
}

func (d *Distributor) remove(seq int64) {
	d.mu.Lock()
	_, exists := d.subscribers[seq]
	if exists {
		delete(d.subscribers, seq)
		for i, s := range d.order {
			if s == seq {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}
	d.mu.Unlock()

	if exists {
		d.metrics.RecordSubscriber(-1)
	}
}

// Publish delivers the snapshot to every subscriber in registration
// order. The registry is snapshotted first, so callbacks may subscribe
// or unsubscribe without deadlocking; a subscriber added during delivery
// sees the next publish, not this one.
func (d *Distributor) Publish(ctx context.Context, items []transcript.ContentItem) {
	d.mu.RLock()
	targets := make([]*subscriber, 0, len(d.order))
	for _, seq := range d.order {
		targets = append(targets, d.subscribers[seq])
	}
	d.mu.RUnlock()

	for _, sub := range targets {
		d.deliver(ctx, sub, items)
	}
}

func (d *Distributor) deliver(ctx context.Context, sub *subscriber, items []transcript.ContentItem) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.RecordFailure(1)
			d.logger.ErrorContext(
				ctx,
				"subscriber callback panicked",
				slog.Int64("subscriber", sub.seq),
				slog.Any("panic", r),
			)
		}
	}()

	sub.fn(items)
	d.metrics.RecordDelivery(1)
}

// Len returns the number of registered subscribers.
func (d *Distributor) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

// Metrics returns a point-in-time counter snapshot.
func (d *Distributor) Metrics() MetricsSnapshot {
	return d.metrics.Snapshot()
}
