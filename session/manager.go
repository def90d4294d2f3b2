package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visual-tutor/engine/buffer"
)

// Manager owns the session table and enforces the single-live-session
// invariant: at most one session may be initializing or active at a
// time. Ended sessions stay in the table so late stats queries resolve.
// Safe for concurrent use.
type Manager struct {
	bufferCfg buffer.Config
	now       func() time.Time

	sessions map[string]*Session
	liveID   string
	mu       sync.RWMutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the manager's time source, propagated to the
// sessions it creates.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager whose sessions use bufferCfg for their
// buffer instances.
func NewManager(bufferCfg buffer.Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		bufferCfg: bufferCfg,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates a session in the initializing state with a fresh buffer.
// An empty SessionID is assigned a UUIDv7. Returns ErrSessionConflict
// while another session is live; callers must end it first.
func (m *Manager) Start(cfg Config) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.liveID != "" {
		return nil, fmt.Errorf("%w: %s", ErrSessionConflict, m.liveID)
	}

	if cfg.SessionID == "" {
		cfg.SessionID = uuid.Must(uuid.NewV7()).String()
	}
	if _, exists := m.sessions[cfg.SessionID]; exists {
		return nil, fmt.Errorf("%w: id %s already used", ErrSessionConflict, cfg.SessionID)
	}

	buf := buffer.New(m.bufferCfg, buffer.WithClock(m.now))
	sess := newSession(cfg, buf, m.now)

	m.sessions[cfg.SessionID] = sess
	m.liveID = cfg.SessionID
	return sess, nil
}

// End terminates the session with the given id, clearing its buffer and
// releasing the live slot. Returns ErrUnknownSession if the id does not
// name the live session.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	if m.liveID == "" || m.liveID != id {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	sess := m.sessions[id]
	m.liveID = ""
	m.mu.Unlock()

	sess.End()
	return nil
}

// Live returns the live session, if one is initializing or active.
func (m *Manager) Live() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.liveID == "" {
		return nil, false
	}
	return m.sessions[m.liveID], true
}

// Get returns any session known to the table, live or ended.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	return sess, ok
}
