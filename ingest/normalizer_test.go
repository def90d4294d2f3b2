package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/visual-tutor/engine/core/transcript"
	"github.com/visual-tutor/engine/ingest"
)

func newNormalizer() *ingest.Normalizer {
	return ingest.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func floatPtr(v float64) *float64 { return &v }

func TestNormalize_AllTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  transcript.ContentType
	}{
		{"text", transcript.TypeText},
		{"math", transcript.TypeMath},
		{"code", transcript.TypeCode},
		{"diagram", transcript.TypeDiagram},
		{"image", transcript.TypeImage},
	}

	n := newNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := transcript.Batch{
				Segments: []transcript.Segment{{Type: tt.typ, Content: "payload"}},
				Speaker:  transcript.SpeakerTeacher,
			}

			items, err := n.Normalize(context.Background(), batch)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if len(items) != 1 {
				t.Fatalf("got %d items, want 1", len(items))
			}
			if items[0].Type != tt.typ {
				t.Errorf("got type %q, want %q", items[0].Type, tt.typ)
			}
		})
	}
}

func TestNormalize_SpeakerAndConfidence(t *testing.T) {
	n := newNormalizer()
	batch := transcript.Batch{
		Segments: []transcript.Segment{
			{Type: transcript.TypeText, Content: "scored", Confidence: floatPtr(0.83)},
			{Type: transcript.TypeText, Content: "unscored"},
		},
		Speaker: transcript.SpeakerStudent,
	}

	items, err := n.Normalize(context.Background(), batch)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Speaker != transcript.SpeakerStudent {
		t.Errorf("got speaker %q, want %q", items[0].Speaker, transcript.SpeakerStudent)
	}
	if items[0].Confidence != 0.83 {
		t.Errorf("got confidence %v, want 0.83", items[0].Confidence)
	}
	if items[1].Confidence != 1.0 {
		t.Errorf("unscored segment: got confidence %v, want default 1.0", items[1].Confidence)
	}
}

func TestNormalize_ConfidenceClamped(t *testing.T) {
	n := newNormalizer()
	batch := transcript.Batch{
		Segments: []transcript.Segment{
			{Type: transcript.TypeText, Content: "too high", Confidence: floatPtr(1.7)},
			{Type: transcript.TypeText, Content: "too low", Confidence: floatPtr(-0.2)},
		},
		Speaker: transcript.SpeakerAI,
	}

	items, err := n.Normalize(context.Background(), batch)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if items[0].Confidence != 1.0 {
		t.Errorf("got confidence %v, want clamp to 1.0", items[0].Confidence)
	}
	if items[1].Confidence != 0.0 {
		t.Errorf("got confidence %v, want clamp to 0.0", items[1].Confidence)
	}
}

func TestNormalize_UnknownSpeakerDefaultsToAI(t *testing.T) {
	n := newNormalizer()
	batch := transcript.Batch{
		Segments: []transcript.Segment{{Type: transcript.TypeText, Content: "hello"}},
		Speaker:  "narrator",
	}

	items, err := n.Normalize(context.Background(), batch)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if items[0].Speaker != transcript.SpeakerAI {
		t.Errorf("got speaker %q, want default %q", items[0].Speaker, transcript.SpeakerAI)
	}
}

func TestNormalize_NilSegments(t *testing.T) {
	n := newNormalizer()

	_, err := n.Normalize(context.Background(), transcript.Batch{Speaker: transcript.SpeakerAI})
	if !errors.Is(err, ingest.ErrMalformedSegment) {
		t.Errorf("got error %v, want ErrMalformedSegment", err)
	}
}

func TestNormalize_EmptySegments(t *testing.T) {
	n := newNormalizer()
	batch := transcript.Batch{Segments: []transcript.Segment{}, Speaker: transcript.SpeakerAI}

	items, err := n.Normalize(context.Background(), batch)
	if err != nil {
		t.Fatalf("an empty segments array is valid, got error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestNormalize_SkipsInvalidSegments(t *testing.T) {
	n := newNormalizer()
	batch := transcript.Batch{
		Segments: []transcript.Segment{
			{Type: transcript.TypeText, Content: "good"},
			{Type: "video", Content: "unsupported type"},
			{Type: transcript.TypeMath, Content: ""},
			{Type: transcript.TypeMath, Content: "x^2 = 4"},
		},
		Speaker: transcript.SpeakerTeacher,
	}

	items, err := n.Normalize(context.Background(), batch)
	if err != nil {
		t.Fatalf("per-segment failures must not sink the batch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Content != "good" || items[1].Content != "x^2 = 4" {
		t.Errorf("wrong survivors: %q, %q", items[0].Content, items[1].Content)
	}
}

func TestNormalize_DraftsHaveNoIdentity(t *testing.T) {
	n := newNormalizer()
	batch := transcript.Batch{
		Segments: []transcript.Segment{{Type: transcript.TypeText, Content: "draft"}},
		Speaker:  transcript.SpeakerAI,
	}

	items, err := n.Normalize(context.Background(), batch)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if items[0].ID != "" {
		t.Error("drafts must not carry an id; the buffer assigns it at admission")
	}
	if !items[0].Timestamp.IsZero() {
		t.Error("drafts must not carry an admission timestamp")
	}
}
