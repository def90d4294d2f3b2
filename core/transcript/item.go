// Package transcript defines the content types shared across the engine:
// the ingress batch produced by the voice-transport collaborator and the
// admitted, immutable ContentItem held by the buffer.
package transcript

import "time"

// ContentType classifies a content segment for display purposes.
type ContentType string

const (
	TypeText    ContentType = "text"
	TypeMath    ContentType = "math"
	TypeCode    ContentType = "code"
	TypeDiagram ContentType = "diagram"
	TypeImage   ContentType = "image"
)

// Valid reports whether the type is one of the recognized content types.
func (t ContentType) Valid() bool {
	switch t {
	case TypeText, TypeMath, TypeCode, TypeDiagram, TypeImage:
		return true
	}
	return false
}

// Speaker identifies the origin of a content segment.
type Speaker string

const (
	SpeakerTeacher Speaker = "teacher"
	SpeakerStudent Speaker = "student"
	SpeakerAI      Speaker = "ai"
)

// Valid reports whether the speaker is one of the recognized speakers.
func (s Speaker) Valid() bool {
	switch s {
	case SpeakerTeacher, SpeakerStudent, SpeakerAI:
		return true
	}
	return false
}

// ContentItem is a normalized, admitted unit of displayable content.
// ID and Timestamp are assigned at admission, not by the producer.
// Items are immutable once admitted and are never reordered; they leave
// the buffer only through head eviction or session teardown.
//
// VisualLeadMs, when non-zero, is the show-then-tell contract: the item
// became visible at Timestamp, and its audio must not play before
// Timestamp + VisualLeadMs.
type ContentItem struct {
	ID           string      `json:"id"`
	Type         ContentType `json:"type"`
	Content      string      `json:"content"`
	Speaker      Speaker     `json:"speaker"`
	Confidence   float64     `json:"confidence"`
	Timestamp    time.Time   `json:"timestamp"`
	VisualLeadMs int         `json:"visual_lead_ms,omitempty"`
}
