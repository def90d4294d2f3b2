package fanout

import "sync/atomic"

type MetricsSnapshot struct {
	Subscribers int64
	Deliveries  int64
	Failures    int64
}

type Metrics struct {
	subscribers atomic.Int64
	deliveries  atomic.Int64
	failures    atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordSubscriber(delta int) {
	m.subscribers.Add(int64(delta))
}

func (m *Metrics) RecordDelivery(delta int) {
	m.deliveries.Add(int64(delta))
}

func (m *Metrics) RecordFailure(delta int) {
	m.failures.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Subscribers: m.subscribers.Load(),
		Deliveries:  m.deliveries.Load(),
		Failures:    m.failures.Load(),
	}
}
