package session

import "errors"

// Sentinel errors for session lifecycle operations.
var (
	// ErrSessionConflict is returned by Start while another session is
	// initializing or active. Callers must end it first.
	ErrSessionConflict = errors.New("a session is already live")
	// ErrSessionNotReady is returned on admission while no session can
	// admit content. The item is dropped, not queued.
	ErrSessionNotReady = errors.New("session not ready for admission")
	// ErrUnknownSession is returned when an operation references a
	// session id that does not match the live session.
	ErrUnknownSession = errors.New("unknown session")
)
