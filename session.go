package websession

import (
	"github.com/ggoodman/http-sessions-go/driver"
	"github.com/ggoodman/http-sessions-go/store"
)

// Session binds a session id and its value store to one request/response
// cycle. Instances are created by a Manager at request start, mutated by
// handler code, and persisted by Manager.Commit at request end; they are
// never shared across requests.
type Session struct {
	id    string
	fresh bool
	st    *store.Store
	drv   driver.Driver
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Fresh reports whether the id was newly generated for this request,
// i.e. the client presented no usable session id.
func (s *Session) Fresh() bool { return s.fresh }

// Put sets the value at the given dotted path.
func (s *Session) Put(path string, value any) error { return s.st.Put(path, value) }

// Get returns the value at path, or nil if absent.
func (s *Session) Get(path string) any { return s.st.Get(path) }

// GetOr returns the value at path, or fallback if absent.
func (s *Session) GetOr(path string, fallback any) any { return s.st.GetOr(path, fallback) }

// Increment adds steps to the numeric value at path.
func (s *Session) Increment(path string, steps int) error { return s.st.Increment(path, steps) }

// Decrement subtracts steps from the numeric value at path.
func (s *Session) Decrement(path string, steps int) error { return s.st.Decrement(path, steps) }

// Forget removes the value at path.
func (s *Session) Forget(path string) { s.st.Forget(path) }

// Pull returns the value at path and removes it.
func (s *Session) Pull(path string) any { return s.st.Pull(path) }

// PullOr returns the value at path and removes it, or fallback if absent.
func (s *Session) PullOr(path string, fallback any) any { return s.st.PullOr(path, fallback) }

// All returns a deep copy of the full value mapping.
func (s *Session) All() map[string]any { return s.st.All() }

// Clear resets the value store to empty.
func (s *Session) Clear() { s.st.Clear() }

// Store exposes the underlying value store.
func (s *Session) Store() *store.Store { return s.st }
