// Package redisdriver provides a Redis-backed session driver for
// deployments that need sessions shared across processes.
package redisdriver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/http-sessions-go/driver"
)

var _ driver.Driver = (*Driver)(nil)

// Config controls the Redis driver. Defaults can be loaded via envdecode.
type Config struct {
	// Client is an existing Redis client. When set, RedisAddr is ignored.
	Client *redis.Client

	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`

	// KeyPrefix for all session keys. ENV: SESSION_KEY_PREFIX
	KeyPrefix string `env:"SESSION_KEY_PREFIX,default=sess:"`

	// TTL applied to every saved payload; refreshed on each save. Zero
	// means keys never expire. ENV: SESSION_TTL
	TTL time.Duration `env:"SESSION_TTL,default=2h"`
}

// Driver is a Redis-backed driver.Driver implementation.
type Driver struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	ownClient bool
}

// New creates a Redis driver. When cfg.Client is nil a client is dialed
// against cfg.RedisAddr and verified with a ping.
func New(cfg Config) (*Driver, error) {
	client := cfg.Client
	ownClient := false
	if client == nil {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		ownClient = true
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "sess:"
	}
	return &Driver{client: client, keyPrefix: prefix, ttl: cfg.TTL, ownClient: ownClient}, nil
}

// NewFromEnv builds a Driver using envdecode to populate Config.
func NewFromEnv() (*Driver, error) {
	var cfg Config
	// Defaults are provided via struct tags.
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

// Close closes the Redis client if this driver created it.
func (d *Driver) Close() error {
	if d.ownClient {
		return d.client.Close()
	}
	return nil
}

func (d *Driver) key(sessionID string) string { return d.keyPrefix + sessionID }

func (d *Driver) Load(ctx context.Context, sessionID string) (string, bool, error) {
	val, err := d.client.Get(ctx, d.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if d.ttl > 0 {
		// Sliding expiry: a loaded session stays alive for another TTL.
		_ = d.client.Expire(ctx, d.key(sessionID), d.ttl).Err()
	}
	return val, true, nil
}

func (d *Driver) Save(ctx context.Context, sessionID string, payload string) error {
	if err := d.client.Set(ctx, d.key(sessionID), payload, d.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

func (d *Driver) Remove(ctx context.Context, sessionID string) error {
	if err := d.client.Del(ctx, d.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("remove session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the session ids currently stored under the configured key
// prefix. Intended for operational tooling, not request handling.
func (d *Driver) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := d.client.Scan(ctx, 0, d.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(d.keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	return ids, nil
}
