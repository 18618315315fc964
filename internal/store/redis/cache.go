// Package redis is a JSON result cache on Redis guarded by a circuit breaker.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

const (
	defaultTTL          = 5 * time.Minute
	defaultMaxFailures  = 5
	defaultResetTimeout = 10 * time.Second
)

// Config configures the cache.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // default expiry for Set
}

// Cache stores JSON-encoded values with an expiry. Every Redis call goes
// through the circuit breaker; a miss is not a failure.
type Cache struct {
	client *goredis.Client
	cb     *CircuitBreaker
	ttl    time.Duration
}

// New creates a Cache and pings the server.
func New(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[cache] connected to %s (ttl %v)", cfg.Addr, cfg.TTL)
	return NewWithClient(client, cfg.TTL), nil
}

// NewWithClient wraps an existing client without pinging it.
func NewWithClient(client *goredis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		client: client,
		cb:     NewCircuitBreaker(defaultMaxFailures, defaultResetTimeout),
		ttl:    ttl,
	}
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// Breaker exposes the circuit breaker so callers can observe transitions.
func (c *Cache) Breaker() *CircuitBreaker { return c.cb }

// TTL returns the default expiry.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get decodes the value stored at key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	var data []byte
	err := c.cb.Execute(func() error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if data == nil {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// Set stores value at key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores value at key with an explicit expiry.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	err = c.cb.Execute(func() error {
		return c.client.Set(ctx, key, data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.cb.Execute(func() error {
		return c.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
