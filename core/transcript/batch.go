package transcript

// Segment is one typed unit of raw content inside an ingress batch.
// Confidence is optional; absent means the producer did not score it.
type Segment struct {
	Type       ContentType `json:"type"`
	Content    string      `json:"content"`
	Confidence *float64    `json:"confidence,omitempty"`
}

// Batch is the ingress event from the voice-transport collaborator:
// one or more segments sharing a speaker and a producer timestamp.
//
// When ShowThenTell is set, admitted items from the batch carry a
// visual-lead offset so the audio path can trail the visual admission.
// AudioDelayMs overrides the default offset when positive.
type Batch struct {
	Segments     []Segment `json:"segments"`
	Speaker      Speaker   `json:"speaker"`
	Timestamp    int64     `json:"timestamp"`
	ShowThenTell bool      `json:"showThenTell,omitempty"`
	AudioDelayMs int       `json:"audioDelayMs,omitempty"`
}
