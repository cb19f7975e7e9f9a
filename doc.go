// Package websession implements server-side HTTP session management: a
// per-request session id carried in a (optionally signed) cookie, and a
// typed key-value store serialized to a pluggable driver between
// requests.
//
// Layers & Roles
//
//	Manager     -> resolves the session id, binds a store, persists at request end
//	store.Store -> nested key-value container with type-preserving serialization
//	driver      -> durability (memdriver, redisdriver, filedriver, s3driver, cookiedriver)
//
// A session is resolved per request: the id from the incoming cookie is
// reused when present and valid, otherwise a fresh id is generated and
// the session is marked fresh. The resolved id is written back on every
// response. Handler code mutates the store through dotted paths; at
// request end the store serializes into a flat mapping of type-tagged
// pairs and the driver persists it under the session id.
//
// Example:
//
//	drv, _ := memdriver.New(memdriver.Config{TTL: 2 * time.Hour})
//	mgr := websession.NewManager(drv, websession.WithCookie(websession.CookieConfig{
//		Keys: [][]byte{secret},
//	}))
//	mux.Handle("/", mgr.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//		sess := websession.FromContext(r.Context())
//		if sess.Get("visits") == nil {
//			_ = sess.Put("visits", 0)
//		}
//		_ = sess.Increment("visits", 1)
//	})))
//
// Implementations of driver.Driver decide durability and expiry; the
// manager performs no retries and no cross-request locking. See the
// driver package for the persistence contract.
package websession
