package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jwtguard:jwks:"

// RedisClient is the subset of redis.Cmdable used by RedisCache.
// *redis.Client and *redis.ClusterClient satisfy it.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache is a Cache backed by Redis, so several instances share one copy
// of each key set. Redis errors degrade to a network fetch.
type RedisCache struct {
	client  RedisClient
	ttl     time.Duration
	fetcher *fetcher
}

// NewRedisCache returns a RedisCache storing sets for ttl. A nil httpClient
// uses a client with a 30 second timeout.
func NewRedisCache(client RedisClient, ttl time.Duration, httpClient *http.Client) (*RedisCache, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if ttl <= 0 {
		return nil, errors.New("cache TTL must be positive")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		fetcher: &fetcher{
			client:        httpClient,
			maxRetries:    defaultMaxRetries,
			retryInterval: defaultRetryInterval,
		},
	}, nil
}

// Get returns the set cached under jwksURI or fetches and stores it.
func (c *RedisCache) Get(ctx context.Context, jwksURI string) (jwk.Set, error) {
	key := redisKeyPrefix + jwksURI

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		set, err := jwk.Parse([]byte(cached))
		if err == nil {
			return set, nil
		}
	case !errors.Is(err, redis.Nil) && ctx.Err() != nil:
		return nil, ctx.Err()
	}

	set, servedTTL, err := c.fetcher.fetch(ctx, jwksURI)
	if err != nil {
		return nil, fmt.Errorf("could not fetch JWKS: %w", err)
	}

	data, err := json.Marshal(set)
	if err != nil {
		return set, nil
	}
	// A failed write only costs a refetch.
	_ = c.client.Set(ctx, key, data, effectiveTTL(c.ttl, servedTTL)).Err()

	return set, nil
}
