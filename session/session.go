package session

import (
	"sync"
	"time"

	"github.com/visual-tutor/engine/buffer"
	"github.com/visual-tutor/engine/core/transcript"
)

// Config holds the parameters a caller provides when starting a session.
type Config struct {
	SessionID            string `json:"session_id" yaml:"session_id"`
	StudentID            string `json:"student_id" yaml:"student_id"`
	Topic                string `json:"topic" yaml:"topic"`
	VoiceEnabled         bool   `json:"voice_enabled" yaml:"voice_enabled"`
	TranscriptionEnabled bool   `json:"transcription_enabled" yaml:"transcription_enabled"`
}

// Stats is a point-in-time summary of session activity.
type Stats struct {
	MessageCount      int           `json:"message_count"`
	MathEquationCount int           `json:"math_equation_count"`
	SessionDuration   time.Duration `json:"session_duration_ms"`
}

// Session is one logical tutoring session. It owns its buffer instance;
// a replacement session never reuses a prior session's buffer.
// Safe for concurrent use.
type Session struct {
	id     string
	config Config
	buffer buffer.Buffer
	now    func() time.Time

	status            Status
	createdAt         time.Time
	lastActivity      time.Time
	messageCount      int
	mathEquationCount int
	mu                sync.RWMutex
}

func newSession(cfg Config, buf buffer.Buffer, now func() time.Time) *Session {
	created := now()
	return &Session{
		id:           cfg.SessionID,
		config:       cfg,
		buffer:       buf,
		now:          now,
		status:       StatusInitializing,
		createdAt:    created,
		lastActivity: created,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the configuration the session was started with.
func (s *Session) Config() Config {
	return s.config
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Buffer returns the session's buffer instance.
func (s *Session) Buffer() buffer.Buffer {
	return s.buffer
}

// MarkActive records the transport readiness signal, moving the session
// from initializing to active. A no-op in any other state.
func (s *Session) MarkActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusInitializing {
		s.status = StatusActive
	}
}

// Admit authorizes and applies one admission. Returns the assigned item
// id, or ErrSessionNotReady when the lifecycle forbids admission. A
// suppressed duplicate returns ("", nil): not an error condition.
func (s *Session) Admit(item transcript.ContentItem) (string, error) {
	s.mu.Lock()
	if !s.status.CanAdmit() {
		s.mu.Unlock()
		return "", ErrSessionNotReady
	}
	s.mu.Unlock()

	id, admitted := s.buffer.Add(item)
	if !admitted {
		return "", nil
	}

	s.mu.Lock()
	s.lastActivity = s.now()
	s.messageCount++
	if item.Type == transcript.TypeMath {
		s.mathEquationCount++
	}
	s.mu.Unlock()

	return id, nil
}

// End moves the session to its terminal state and discards buffer
// contents. Idempotent.
func (s *Session) End() {
	s.mu.Lock()
	already := s.status == StatusEnded
	s.status = StatusEnded
	s.mu.Unlock()

	if !already {
		s.buffer.Clear()
	}
}

// Stats summarizes activity since session creation.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		MessageCount:      s.messageCount,
		MathEquationCount: s.mathEquationCount,
		SessionDuration:   s.now().Sub(s.createdAt),
	}
}

// LastActivity returns the time of the most recent admission, or the
// creation time if nothing was admitted yet.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}
