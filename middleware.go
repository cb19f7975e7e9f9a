package websession

import (
	"context"
	"log/slog"
	"net/http"
)

type sessionCtxKey struct{}

// FromContext returns the session bound to the request by Handle, or nil
// when the request did not pass through the middleware.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return sess
}

// Handle is net/http middleware: it resolves the session on the way in,
// makes it available via FromContext, and commits it at response time.
// The commit runs just before the first byte of the response body, so
// drivers that persist through response headers (cookiedriver) work too;
// session mutations made after the handler starts writing the body are
// not persisted.
func (m *Manager) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		drv := m.drv
		if m.reqDrv != nil {
			drv = m.reqDrv(w, r)
		}

		transport := NewCookieTransport(m.cookie, w, r)
		sess, err := m.resolve(r.Context(), transport, drv)
		if err != nil {
			// A malformed payload or failing driver makes the session
			// unusable for this request.
			m.log.ErrorContext(r.Context(), "session resolve failed", slog.String("err", err.Error()))
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}

		cw := &commitWriter{
			ResponseWriter: w,
			commit: func() {
				if err := m.Commit(r.Context(), sess); err != nil {
					m.log.ErrorContext(r.Context(), "session commit failed",
						slog.String("session_id", sess.ID()),
						slog.String("err", err.Error()))
				}
			},
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
		next.ServeHTTP(cw, r.WithContext(ctx))

		// Handlers that never write still get their session persisted.
		cw.ensureCommitted()
	})
}

// commitWriter persists the session immediately before the response
// status is written, while headers can still be amended.
type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (cw *commitWriter) ensureCommitted() {
	if cw.committed {
		return
	}
	cw.committed = true
	cw.commit()
}

func (cw *commitWriter) WriteHeader(code int) {
	cw.ensureCommitted()
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *commitWriter) Write(b []byte) (int, error) {
	cw.ensureCommitted()
	return cw.ResponseWriter.Write(b)
}

// Unwrap supports http.ResponseController.
func (cw *commitWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
