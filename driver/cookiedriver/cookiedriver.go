// Package cookiedriver embeds the session payload in a response cookie
// instead of server-side storage. The payload travels base64url-encoded
// with the client, so nothing needs to be provisioned, at the cost of the
// cookie size limit and the payload being client-visible. Pair it with an
// encrypting cookie layer when the payload is sensitive.
package cookiedriver

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/ggoodman/http-sessions-go/driver"
)

// DefaultName is the payload cookie name when none is configured.
const DefaultName = "sess_data"

// Config controls the payload cookie.
type Config struct {
	// Name of the payload cookie. Default: DefaultName.
	Name string

	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite

	// MaxAge is the cookie lifetime. Zero yields a session cookie.
	MaxAge time.Duration
}

// Codec creates request-scoped drivers that read the payload from the
// incoming request and write it back on the response.
type Codec struct {
	cfg Config
}

// New creates a Codec.
func New(cfg Config) *Codec {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Codec{cfg: cfg}
}

// For binds a driver to one request/response cycle. The returned driver
// must not be used after the response is written.
func (c *Codec) For(w http.ResponseWriter, r *http.Request) driver.Driver {
	return &requestDriver{cfg: c.cfg, w: w, r: r}
}

type requestDriver struct {
	cfg Config
	w   http.ResponseWriter
	r   *http.Request
}

var _ driver.Driver = (*requestDriver)(nil)

// Load ignores the session id: the payload is wherever the client sent
// it. A cookie that fails to decode counts as absent.
func (d *requestDriver) Load(ctx context.Context, sessionID string) (string, bool, error) {
	ck, err := d.r.Cookie(d.cfg.Name)
	if err != nil || ck.Value == "" {
		return "", false, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return "", false, nil
	}
	return string(b), true, nil
}

func (d *requestDriver) Save(ctx context.Context, sessionID string, payload string) error {
	if payload == driver.EmptyPayload || payload == "" {
		// Nothing worth carrying; drop the cookie instead of shipping an
		// empty payload on every response.
		d.clear()
		return nil
	}

	ck := &http.Cookie{
		Name:     d.cfg.Name,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(payload)),
		Path:     d.cfg.Path,
		Domain:   d.cfg.Domain,
		Secure:   d.cfg.Secure,
		HttpOnly: true,
		SameSite: d.cfg.SameSite,
	}
	if d.cfg.MaxAge > 0 {
		ck.MaxAge = int(d.cfg.MaxAge.Seconds())
		ck.Expires = time.Now().Add(d.cfg.MaxAge)
	}
	http.SetCookie(d.w, ck)
	return nil
}

func (d *requestDriver) Remove(ctx context.Context, sessionID string) error {
	d.clear()
	return nil
}

func (d *requestDriver) clear() {
	// Only clear when the client actually sent the cookie; otherwise the
	// response stays cookie-free.
	if _, err := d.r.Cookie(d.cfg.Name); err != nil {
		return
	}
	http.SetCookie(d.w, &http.Cookie{
		Name:     d.cfg.Name,
		Value:    "",
		Path:     d.cfg.Path,
		Domain:   d.cfg.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   d.cfg.Secure,
		HttpOnly: true,
		SameSite: d.cfg.SameSite,
	})
}
