// Package session gates content admission behind a session lifecycle and
// scopes buffer lifetime to one logical tutoring session.
package session

// Status is the lifecycle state of a session.
//
// idle → initializing → active → ended. A session admits content while
// initializing or active; ended is terminal.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
	StatusEnded        Status = "ended"
)

// CanAdmit reports whether content admission is authorized in this state.
func (s Status) CanAdmit() bool {
	return s == StatusInitializing || s == StatusActive
}

// Live reports whether the session occupies the process's live slot.
func (s Status) Live() bool {
	return s == StatusInitializing || s == StatusActive
}
