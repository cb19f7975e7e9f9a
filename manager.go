package websession

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ggoodman/http-sessions-go/driver"
	"github.com/ggoodman/http-sessions-go/store"
)

// maxIDLen bounds incoming ids so a hostile cookie cannot become an
// arbitrarily large driver key.
const maxIDLen = 256

// Manager orchestrates the session lifecycle: it resolves the session id
// from an IDTransport, binds a value store loaded through a driver, and
// persists the store at request end.
type Manager struct {
	drv     driver.Driver
	reqDrv  func(http.ResponseWriter, *http.Request) driver.Driver
	cookie  CookieConfig
	log     *slog.Logger
	newID   func() string
	metrics *managerMetrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithCookie configures the session id cookie used by Handle.
func WithCookie(cfg CookieConfig) Option {
	return func(m *Manager) { m.cookie = cfg }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithIDGenerator replaces the session id generator. The default is
// uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// WithRequestDriver configures a factory that binds a driver to each
// request/response cycle, for backends whose storage travels with the
// request (e.g. cookiedriver.Codec.For). It takes precedence over the
// fixed driver inside Handle.
func WithRequestDriver(fn func(http.ResponseWriter, *http.Request) driver.Driver) Option {
	return func(m *Manager) { m.reqDrv = fn }
}

// NewManager creates a Manager persisting through drv. drv may be nil
// only when WithRequestDriver is supplied.
func NewManager(drv driver.Driver, opts ...Option) *Manager {
	m := &Manager{
		drv:   drv,
		log:   slog.Default(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolve runs the session id state machine against the transport and
// returns the bound session: an incoming id is reused, an absent or
// invalid one is replaced by a fresh id, and the resolved id is written
// back to the client either way. The session payload is then loaded
// through the manager's driver; a missing payload yields an empty store.
func (m *Manager) Resolve(ctx context.Context, transport IDTransport) (*Session, error) {
	return m.resolve(ctx, transport, m.drv)
}

func (m *Manager) resolve(ctx context.Context, transport IDTransport, drv driver.Driver) (*Session, error) {
	id, ok := transport.ReadIncomingID()
	fresh := !ok || !validID(id)
	if fresh {
		id = m.newID()
	}

	// The resolved id always reaches the client, even when the store
	// stays empty: a client without a cookie gets one on every response.
	if err := transport.WriteOutgoingID(id); err != nil {
		return nil, &InitError{SessionID: id, Err: err}
	}

	var payload string
	if !fresh {
		var found bool
		var err error
		payload, found, err = m.observeLoad(ctx, drv, id)
		if err != nil {
			m.metrics.resolved("error")
			return nil, &InitError{SessionID: id, Err: err}
		}
		if !found {
			// The driver has no record, e.g. an expired session. Not an
			// error; the session simply starts over.
			payload = ""
		}
	}

	st, err := store.NewFromPayload(payload)
	if err != nil {
		m.metrics.resolved("error")
		return nil, err
	}

	outcome := "resumed"
	if fresh {
		outcome = "new"
	}
	m.metrics.resolved(outcome)
	m.log.DebugContext(ctx, "session resolved",
		slog.String("session_id", id),
		slog.Bool("fresh", fresh),
		slog.Int("keys", st.Len()))

	return &Session{id: id, fresh: fresh, st: st, drv: drv}, nil
}

// Commit serializes the session's value store and hands the payload to
// the driver the session was resolved against.
func (m *Manager) Commit(ctx context.Context, sess *Session) error {
	payload, err := sess.st.Payload()
	if err != nil {
		m.metrics.committed("error")
		return err
	}
	if err := m.observeSave(ctx, sess.drv, sess.id, payload); err != nil {
		m.metrics.committed("error")
		return &PersistError{SessionID: sess.id, Err: err}
	}
	m.metrics.committed("saved")
	m.log.DebugContext(ctx, "session committed",
		slog.String("session_id", sess.id),
		slog.Int("bytes", len(payload)))
	return nil
}

// Destroy removes the session's payload from its driver and clears the
// in-memory store. The client keeps its id cookie; the next request
// simply resolves to an empty session.
func (m *Manager) Destroy(ctx context.Context, sess *Session) error {
	if err := m.observeRemove(ctx, sess.drv, sess.id); err != nil {
		return &PersistError{SessionID: sess.id, Err: err}
	}
	sess.Clear()
	return nil
}

// validID accepts ids that are usable as driver keys and cookie values.
func validID(id string) bool {
	if id == "" || len(id) > maxIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c <= 0x20 || c >= 0x7f || c == ';' || c == ',' || c == '"' {
			return false
		}
	}
	return true
}
