package websession

import "fmt"

// InitError reports a driver failure while loading a session payload.
// A missing payload is not an InitError; only real backend failures are.
type InitError struct {
	SessionID string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("session %s: load failed: %v", e.SessionID, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// PersistError reports a driver failure while saving or removing a
// session payload. The core does not retry; retry policy belongs to the
// driver.
type PersistError struct {
	SessionID string
	Err       error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("session %s: persist failed: %v", e.SessionID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
