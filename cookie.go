package websession

import (
	"net/http"
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

// IDTransport carries the session id between the client and the server.
// The manager calls ReadIncomingID and WriteOutgoingID exactly once each
// per request.
type IDTransport interface {
	// ReadIncomingID returns the session id presented by the client, if
	// any. A syntactically unusable or unverifiable id is reported as
	// absent, not as an error.
	ReadIncomingID() (string, bool)

	// WriteOutgoingID makes id reach the client on the response.
	WriteOutgoingID(id string) error
}

// DefaultCookieName is the id cookie name when none is configured.
const DefaultCookieName = "sess_id"

// CookieConfig controls the session id cookie.
type CookieConfig struct {
	// Name of the id cookie. Default: DefaultCookieName.
	Name string

	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite

	// MaxAge is the cookie lifetime. Zero yields a session cookie.
	MaxAge time.Duration

	// Keys are HMAC keys for signing the cookie value as a compact JWS.
	// The first key signs; every key verifies, so rotation is a matter of
	// prepending a new key. With no keys the id travels unsigned.
	Keys [][]byte
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// CookieTransport is the HTTP implementation of IDTransport: the session
// id travels in a cookie, optionally signed.
type CookieTransport struct {
	cfg CookieConfig
	w   http.ResponseWriter
	r   *http.Request
}

var _ IDTransport = (*CookieTransport)(nil)

// NewCookieTransport binds a transport to one request/response cycle.
func NewCookieTransport(cfg CookieConfig, w http.ResponseWriter, r *http.Request) *CookieTransport {
	return &CookieTransport{cfg: cfg, w: w, r: r}
}

func (t *CookieTransport) ReadIncomingID() (string, bool) {
	ck, err := t.r.Cookie(t.cfg.name())
	if err != nil || ck.Value == "" {
		return "", false
	}
	if len(t.cfg.Keys) == 0 {
		return ck.Value, true
	}

	id, err := verifyCompact(ck.Value, t.cfg.Keys)
	if err != nil {
		// Tampered or signed with a retired key: treat as no session.
		return "", false
	}
	return id, true
}

func (t *CookieTransport) WriteOutgoingID(id string) error {
	value := id
	if len(t.cfg.Keys) > 0 {
		signed, err := signCompact(id, t.cfg.Keys[0])
		if err != nil {
			return err
		}
		value = signed
	}

	ck := &http.Cookie{
		Name:     t.cfg.name(),
		Value:    value,
		Path:     t.cfg.path(),
		Domain:   t.cfg.Domain,
		Secure:   t.cfg.Secure,
		HttpOnly: true,
		SameSite: t.cfg.SameSite,
	}
	if t.cfg.MaxAge > 0 {
		ck.MaxAge = int(t.cfg.MaxAge.Seconds())
		ck.Expires = time.Now().Add(t.cfg.MaxAge)
	}
	http.SetCookie(t.w, ck)
	return nil
}

func signCompact(payload string, key []byte) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: key}, nil)
	if err != nil {
		return "", err
	}
	obj, err := signer.Sign([]byte(payload))
	if err != nil {
		return "", err
	}
	return obj.CompactSerialize()
}

func verifyCompact(token string, keys [][]byte) (string, error) {
	obj, err := jose.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", err
	}
	var lastErr error
	for _, key := range keys {
		payload, err := obj.Verify(key)
		if err == nil {
			return string(payload), nil
		}
		lastErr = err
	}
	return "", lastErr
}
