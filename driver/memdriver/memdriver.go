// Package memdriver provides an in-memory session driver backed by
// github.com/hashicorp/golang-lru/v2, suitable for tests and
// single-process deployments.
package memdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ggoodman/http-sessions-go/driver"
)

var _ driver.Driver = (*Driver)(nil)

// DefaultMaxSessions bounds the cache when no size is configured.
const DefaultMaxSessions = 16384

// Config controls the in-memory driver.
type Config struct {
	// MaxSessions caps how many sessions are retained; the least recently
	// used session is evicted beyond that. Default: DefaultMaxSessions.
	MaxSessions int

	// TTL is the sliding lifetime of a session payload. Zero means no
	// expiry.
	TTL time.Duration
}

type entry struct {
	payload   string
	expiresAt time.Time
}

func (e *entry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// Driver is an in-memory driver.Driver implementation.
type Driver struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, *entry]
	ttl    time.Duration
	stopCh chan struct{}
}

// New creates an in-memory driver.
func New(cfg Config) (*Driver, error) {
	max := cfg.MaxSessions
	if max <= 0 {
		max = DefaultMaxSessions
	}
	cache, err := lru.New[string, *entry](max)
	if err != nil {
		return nil, fmt.Errorf("create LRU cache: %w", err)
	}

	d := &Driver{
		cache:  cache,
		ttl:    cfg.TTL,
		stopCh: make(chan struct{}),
	}
	if cfg.TTL > 0 {
		go d.sweepExpired()
	}
	return d, nil
}

func (d *Driver) Load(ctx context.Context, sessionID string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.cache.Get(sessionID)
	if !ok {
		return "", false, nil
	}
	if e.expired() {
		d.cache.Remove(sessionID)
		return "", false, nil
	}
	if d.ttl > 0 {
		// Sliding expiry: a read keeps the session alive.
		e.expiresAt = time.Now().Add(d.ttl)
	}
	return e.payload, true, nil
}

func (d *Driver) Save(ctx context.Context, sessionID string, payload string) error {
	e := &entry{payload: payload}
	if d.ttl > 0 {
		e.expiresAt = time.Now().Add(d.ttl)
	}

	d.mu.Lock()
	d.cache.Add(sessionID, e)
	d.mu.Unlock()
	return nil
}

func (d *Driver) Remove(ctx context.Context, sessionID string) error {
	d.mu.Lock()
	d.cache.Remove(sessionID)
	d.mu.Unlock()
	return nil
}

// Len reports how many sessions are currently retained, expired entries
// included until the next sweep.
func (d *Driver) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache.Len()
}

// Close stops the background expiry sweep and drops all sessions.
func (d *Driver) Close() error {
	select {
	case <-d.stopCh:
	default:
		close(d.stopCh)
	}
	d.mu.Lock()
	d.cache.Purge()
	d.mu.Unlock()
	return nil
}

func (d *Driver) sweepExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
		}
		d.mu.Lock()
		for _, key := range d.cache.Keys() {
			if e, ok := d.cache.Peek(key); ok && e.expired() {
				d.cache.Remove(key)
			}
		}
		d.mu.Unlock()
	}
}
