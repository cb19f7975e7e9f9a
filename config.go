package websession

import (
	"fmt"
	"net/http"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is the environment-driven configuration surface. Field defaults
// come from the envdecode struct tags.
type Config struct {
	// CookieName is the session id cookie name. ENV: SESSION_COOKIE_NAME
	CookieName string `env:"SESSION_COOKIE_NAME,default=sess_id"`

	// CookiePath scopes the id cookie. ENV: SESSION_COOKIE_PATH
	CookiePath string `env:"SESSION_COOKIE_PATH,default=/"`

	// CookieDomain scopes the id cookie. ENV: SESSION_COOKIE_DOMAIN
	CookieDomain string `env:"SESSION_COOKIE_DOMAIN"`

	// CookieSecure marks the id cookie Secure. ENV: SESSION_COOKIE_SECURE
	CookieSecure bool `env:"SESSION_COOKIE_SECURE,default=false"`

	// Secret signs the id cookie when non-empty. ENV: SESSION_SECRET
	Secret string `env:"SESSION_SECRET"`

	// CookieMaxAge is the id cookie lifetime; zero yields a session
	// cookie. ENV: SESSION_COOKIE_MAX_AGE
	CookieMaxAge time.Duration `env:"SESSION_COOKIE_MAX_AGE,default=0s"`
}

// ConfigFromEnv loads Config from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode session config: %w", err)
	}
	return cfg, nil
}

// Cookie converts the configuration into the CookieConfig consumed by
// WithCookie.
func (c Config) Cookie() CookieConfig {
	cfg := CookieConfig{
		Name:     c.CookieName,
		Path:     c.CookiePath,
		Domain:   c.CookieDomain,
		Secure:   c.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   c.CookieMaxAge,
	}
	if c.Secret != "" {
		cfg.Keys = [][]byte{[]byte(c.Secret)}
	}
	return cfg
}
