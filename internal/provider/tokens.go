package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache is a keyed token store with expiry. It replaces the process
// global token variables the platform helpers used to share; clients get one
// injected and never hold tokens themselves.
type TokenCache interface {
	// Get returns the cached token, or "" when absent or expired.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

type redisTokenCache struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenCache(client *redis.Client, prefix string) TokenCache {
	return &redisTokenCache{
		client: client,
		prefix: prefix,
	}
}

func (tc *redisTokenCache) key(key string) string {
	return fmt.Sprintf("%s:%s", tc.prefix, key)
}

func (tc *redisTokenCache) Get(ctx context.Context, key string) (string, error) {
	token, err := tc.client.Get(ctx, tc.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("token cache get: %w", err)
	}
	return token, nil
}

func (tc *redisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := tc.client.Set(ctx, tc.key(key), token, ttl).Err(); err != nil {
		return fmt.Errorf("token cache set: %w", err)
	}
	return nil
}
