package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/tabi/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the cache.
const DefaultPrefix = "tabi:bundle:"

// farFuture is the index score used when bundles never expire (2100-01-01).
const farFuture = 4102444800

// Cache implements ports.BundleCache using Redis.
//
// Each bundle is a JSON string at {prefix}{session}:b:{destination} with the configured TTL.
// A per-session ZSET at {prefix}{session}:index tracks destinations so Forget can drop them.
// The ":b:" segment keeps a destination named "index" away from the index key.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration for bundles.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Client exposes the underlying client so a Locker can share the connection pool.
func (c *Cache) Client() *backend.Client {
	return c.client
}

func (c *Cache) key(sessionID, destination string) string {
	return c.prefix + sessionID + ":b:" + destination
}

const indexSuffix = ":index"

func (c *Cache) indexKey(sessionID string) string {
	return c.prefix + sessionID + indexSuffix
}

// Ping checks connectivity. It backs the cache entry of the /health endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Put persists the bundle to Redis.
func (c *Cache) Put(ctx context.Context, sessionID, destination string, bundle *domain.ContextBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	pipe := c.client.Pipeline()

	// 1. Save JSON with TTL (0 means no expiration)
	pipe.Set(ctx, c.key(sessionID, destination), data, c.ttl)

	// 2. Add to the session index. Score = expiry time.
	score := float64(time.Now().Add(c.ttl).Unix())
	if c.ttl == 0 {
		score = farFuture
	}
	pipe.ZAdd(ctx, c.indexKey(sessionID), backend.Z{
		Score:  score,
		Member: destination,
	})
	if c.ttl > 0 {
		pipe.Expire(ctx, c.indexKey(sessionID), c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves the bundle from Redis.
func (c *Cache) Get(ctx context.Context, sessionID, destination string) (*domain.ContextBundle, error) {
	val, err := c.client.Get(ctx, c.key(sessionID, destination)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var bundle domain.ContextBundle
	if err := json.Unmarshal([]byte(val), &bundle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bundle: %w", err)
	}
	return &bundle, nil
}

// Forget removes every bundle of the session along with its index.
func (c *Cache) Forget(ctx context.Context, sessionID string) error {
	dests, err := c.client.ZRange(ctx, c.indexKey(sessionID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read session index: %w", err)
	}

	keys := make([]string, 0, len(dests)+1)
	for _, d := range dests {
		keys = append(keys, c.key(sessionID, d))
	}
	keys = append(keys, c.indexKey(sessionID))

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Flush removes the bundles of every session, walking the session indexes with SCAN.
// Lock keys share the prefix but are left alone.
func (c *Cache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*"+indexSuffix, 100).Iterator()
	for iter.Next(ctx) {
		sessionID := strings.TrimSuffix(strings.TrimPrefix(iter.Val(), c.prefix), indexSuffix)
		if err := c.Forget(ctx, sessionID); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan session indexes: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
