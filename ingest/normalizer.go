// Package ingest converts raw ingress batches from the voice transport
// into draft content items ready for admission. Validation here is
// structural only; math-completeness buffering and rendering concerns
// belong to the display collaborator.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/visual-tutor/engine/core/transcript"
)

// Normalizer validates and classifies ingress batches.
type Normalizer struct {
	logger *slog.Logger
}

// New creates a Normalizer. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize converts a batch into zero or more draft items. Drafts carry
// no ID or admission timestamp; the buffer assigns both.
//
// A batch without a segments array is rejected wholesale with
// ErrMalformedSegment. An individually invalid segment is skipped with a
// warning and the remaining segments still pass, so one bad segment
// cannot sink a whole batch.
func (n *Normalizer) Normalize(ctx context.Context, batch transcript.Batch) ([]transcript.ContentItem, error) {
	if batch.Segments == nil {
		return nil, fmt.Errorf("%w: batch has no segments array", ErrMalformedSegment)
	}

	speaker := batch.Speaker
	if !speaker.Valid() {
		speaker = transcript.SpeakerAI
	}

	items := make([]transcript.ContentItem, 0, len(batch.Segments))
	for i, seg := range batch.Segments {
		item, err := n.normalizeSegment(seg, speaker)
		if err != nil {
			n.logger.WarnContext(
				ctx,
				"skipping malformed segment",
				slog.Int("index", i),
				slog.String("type", string(seg.Type)),
				slog.String("error", err.Error()),
			)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (n *Normalizer) normalizeSegment(seg transcript.Segment, speaker transcript.Speaker) (transcript.ContentItem, error) {
	if !seg.Type.Valid() {
		return transcript.ContentItem{}, fmt.Errorf("%w: unrecognized type %q", ErrMalformedSegment, seg.Type)
	}
	if seg.Content == "" {
		return transcript.ContentItem{}, fmt.Errorf("%w: empty content", ErrMalformedSegment)
	}

	confidence := 1.0
	if seg.Confidence != nil {
		confidence = clamp(*seg.Confidence, 0, 1)
	}

	return transcript.ContentItem{
		Type:       seg.Type,
		Content:    seg.Content,
		Speaker:    speaker,
		Confidence: confidence,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
