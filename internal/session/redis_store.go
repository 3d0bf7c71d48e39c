// Package session caches validated login sessions in Redis so repeated
// requests skip the database lookup.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/command-center/internal/application"
)

const defaultPrefix = "command-center:session:"

type cachedSession struct {
	UserID    string    `json:"user_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked,omitempty"`
}

// RedisStore implements application.SessionCache on Redis. Keys are token
// digests, never raw tokens.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: defaultPrefix}
}

func (s *RedisStore) key(digest string) string {
	return s.prefix + digest
}

// Get returns the cached session or application.ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, digest string) (application.CachedSession, error) {
	raw, err := s.client.Get(ctx, s.key(digest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return application.CachedSession{}, application.ErrCacheMiss
	}
	if err != nil {
		return application.CachedSession{}, fmt.Errorf("lookup session: %w", err)
	}

	var data cachedSession
	if err := json.Unmarshal(raw, &data); err != nil {
		return application.CachedSession{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return application.CachedSession{UserID: data.UserID, ExpiresAt: data.ExpiresAt, Revoked: data.Revoked}, nil
}

// Add stores the session for ttl unless the digest already has an entry.
// A non-positive ttl is a no-op.
func (s *RedisStore) Add(ctx context.Context, digest string, session application.CachedSession, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(cachedSession{UserID: session.UserID, ExpiresAt: session.ExpiresAt.UTC()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.SetNX(ctx, s.key(digest), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Revoke replaces any entry for digest with a revocation marker kept for ttl.
func (s *RedisStore) Revoke(ctx context.Context, digest string, ttl time.Duration) error {
	if ttl <= 0 {
		if err := s.client.Del(ctx, s.key(digest)).Err(); err != nil {
			return fmt.Errorf("evict session: %w", err)
		}
		return nil
	}
	payload, err := json.Marshal(cachedSession{Revoked: true})
	if err != nil {
		return fmt.Errorf("marshal revocation: %w", err)
	}
	if err := s.client.Set(ctx, s.key(digest), payload, ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
