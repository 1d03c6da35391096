package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setKeys = append(f.setKeys, key)
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestNewRedisCache(t *testing.T) {
	_, err := NewRedisCache(nil, time.Minute, nil)
	assert.EqualError(t, err, "redis client cannot be nil")

	_, err = NewRedisCache(newFakeRedis(), 0, nil)
	assert.EqualError(t, err, "cache TTL must be positive")

	cache, err := NewRedisCache(newFakeRedis(), time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, cache.fetcher.client.Timeout)
}

func TestRedisCache_Get(t *testing.T) {
	set := generateJWKS(t, "kid-a", "kid-b")

	t.Run("miss fetches and stores the set", func(t *testing.T) {
		server := newTestServer(t, set, set)
		client := newFakeRedis()
		cache, err := NewRedisCache(client, 10*time.Minute, server.Client())
		require.NoError(t, err)
		uri := server.URL + "/.well-known/jwks.json"

		got, err := cache.Get(context.Background(), uri)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Len())

		stored, ok := client.values[redisKeyPrefix+uri]
		require.True(t, ok)
		parsed, err := jwk.Parse([]byte(stored))
		require.NoError(t, err)
		_, ok = parsed.LookupKeyID("kid-b")
		assert.True(t, ok)
		assert.Equal(t, 10*time.Minute, client.ttls[redisKeyPrefix+uri])
	})

	t.Run("hit does not touch the network", func(t *testing.T) {
		server := newTestServer(t, set, set)
		client := newFakeRedis()
		uri := server.URL + "/.well-known/jwks.json"
		data, err := json.Marshal(set)
		require.NoError(t, err)
		client.values[redisKeyPrefix+uri] = string(data)

		cache, err := NewRedisCache(client, time.Minute, server.Client())
		require.NoError(t, err)

		got, err := cache.Get(context.Background(), uri)
		require.NoError(t, err)
		_, ok := got.LookupKeyID("kid-a")
		assert.True(t, ok)
		assert.Zero(t, server.jwksCount.Load())
	})

	t.Run("corrupt entry is replaced", func(t *testing.T) {
		server := newTestServer(t, set, set)
		client := newFakeRedis()
		uri := server.URL + "/.well-known/jwks.json"
		client.values[redisKeyPrefix+uri] = "garbage"

		cache, err := NewRedisCache(client, time.Minute, server.Client())
		require.NoError(t, err)

		_, err = cache.Get(context.Background(), uri)
		require.NoError(t, err)
		assert.Equal(t, int32(1), server.jwksCount.Load())
		assert.NotEqual(t, "garbage", client.values[redisKeyPrefix+uri])
	})

	t.Run("redis errors fall back to the network", func(t *testing.T) {
		server := newTestServer(t, set, set)
		client := newFakeRedis()
		client.getErr = errors.New("connection refused")
		client.setErr = errors.New("connection refused")
		cache, err := NewRedisCache(client, time.Minute, server.Client())
		require.NoError(t, err)

		got, err := cache.Get(context.Background(), server.URL+"/.well-known/jwks.json")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Len())
		assert.Len(t, client.setKeys, 1)
	})

	t.Run("works as the provider cache", func(t *testing.T) {
		server := newTestServer(t, set, set)
		cache, err := NewRedisCache(newFakeRedis(), time.Minute, server.Client())
		require.NoError(t, err)

		provider, err := NewCachingProvider(WithIssuerURL(mustParseURL(t, server.URL)), WithCache(cache))
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, err := provider.KeySet(context.Background())
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), server.jwksCount.Load())
		assert.Equal(t, int32(1), server.discoveryCount.Load())
	})
}
