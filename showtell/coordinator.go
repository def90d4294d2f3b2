// Package showtell implements the show-then-tell timing contract: visual
// content becomes observable a configured interval before its audio is
// rendered. The coordinator only annotates admitted items and exposes the
// timing metadata; the external voice transport does the actual delaying.
package showtell

import (
	"time"

	"github.com/visual-tutor/engine/core/transcript"
)

const (
	defaultVisualLeadMs = 400
	// DriftTolerance is the target accuracy for the realized offset.
	// Meeting it is the playback scheduler's job; this package only
	// measures it.
	DriftTolerance = 50 * time.Millisecond
)

// Config holds show-then-tell parameters.
type Config struct {
	// VisualLeadMs is the default interval between visual admission and
	// audio emission for batches that request show-then-tell.
	VisualLeadMs int `json:"visual_lead_ms,omitempty" yaml:"visual_lead_ms,omitempty"`
}

// DefaultConfig returns the default show-then-tell configuration.
func DefaultConfig() Config {
	return Config{VisualLeadMs: defaultVisualLeadMs}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.VisualLeadMs > 0 {
		c.VisualLeadMs = source.VisualLeadMs
	}
}

// Coordinator stamps visual-lead metadata onto items headed for admission.
type Coordinator struct {
	leadMs int
}

// New creates a Coordinator from configuration.
func New(cfg Config) *Coordinator {
	def := DefaultConfig()
	def.Merge(&cfg)
	return &Coordinator{leadMs: def.VisualLeadMs}
}

// Annotate stamps the visual-lead offset on each item when the batch
// requests show-then-tell. A positive batch AudioDelayMs overrides the
// configured default. Items are modified in place before admission.
func (c *Coordinator) Annotate(items []transcript.ContentItem, batch transcript.Batch) {
	if !batch.ShowThenTell {
		return
	}

	lead := c.leadMs
	if batch.AudioDelayMs > 0 {
		lead = batch.AudioDelayMs
	}
	for i := range items {
		items[i].VisualLeadMs = lead
	}
}

// Schedule is the contract handed to the playback scheduler: the item
// became visible at VisibleAt; its audio must not play before NotBefore.
type Schedule struct {
	VisibleAt time.Time
	NotBefore time.Time
}

// ScheduleFor derives the playback schedule from an admitted item.
// Items without a visual lead may play immediately.
func ScheduleFor(item transcript.ContentItem) Schedule {
	lead := time.Duration(item.VisualLeadMs) * time.Millisecond
	return Schedule{
		VisibleAt: item.Timestamp,
		NotBefore: item.Timestamp.Add(lead),
	}
}

// Drift returns the realized-minus-intended offset for an item whose
// audio actually played at playedAt. Positive drift means the audio
// trailed longer than intended.
func Drift(item transcript.ContentItem, playedAt time.Time) time.Duration {
	return playedAt.Sub(ScheduleFor(item).NotBefore)
}

// WithinTolerance reports whether the measured drift meets the target
// accuracy.
func WithinTolerance(drift time.Duration) bool {
	if drift < 0 {
		drift = -drift
	}
	return drift <= DriftTolerance
}
