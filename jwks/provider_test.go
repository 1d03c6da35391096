package jwks

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwtdemo/jwtguard/core"
)

func generateJWKS(t *testing.T, kids ...string) jwk.Set {
	t.Helper()
	set := jwk.NewSet()
	for _, kid := range kids {
		private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		key, err := jwk.FromRaw(private.Public())
		require.NoError(t, err)
		require.NoError(t, key.Set(jwk.KeyIDKey, kid))
		require.NoError(t, set.AddKey(key))
	}
	return set
}

type testServer struct {
	*httptest.Server
	discoveryCount atomic.Int32
	jwksCount      atomic.Int32
	customCount    atomic.Int32
	cacheControl   string
}

func newTestServer(t *testing.T, set, customSet jwk.Set) *testServer {
	t.Helper()
	ts := &testServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		ts.discoveryCount.Add(1)
		fmt.Fprintf(w, `{"issuer":%q,"jwks_uri":"%s/.well-known/jwks.json"}`, ts.URL+"/", ts.URL)
	})
	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		ts.jwksCount.Add(1)
		if ts.cacheControl != "" {
			w.Header().Set("Cache-Control", ts.cacheControl)
		}
		assert.NoError(t, json.NewEncoder(w).Encode(set))
	})
	mux.HandleFunc("/custom/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		ts.customCount.Add(1)
		assert.NoError(t, json.NewEncoder(w).Encode(customSet))
	})
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestProvider(t *testing.T) {
	set := generateJWKS(t, "kid-1", "kid-2")
	customSet := generateJWKS(t, "custom")
	server := newTestServer(t, set, customSet)
	issuerURL := mustParseURL(t, server.URL)

	t.Run("fetches the JWKS after calling the discovery endpoint", func(t *testing.T) {
		provider, err := NewProvider(WithIssuerURL(issuerURL))
		require.NoError(t, err)

		got, err := provider.KeySet(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, got.Len())
		_, ok := got.LookupKeyID("kid-2")
		assert.True(t, ok)
	})

	t.Run("skips discovery with a custom JWKS URI", func(t *testing.T) {
		before := server.discoveryCount.Load()
		provider, err := NewProvider(WithCustomJWKSURI(mustParseURL(t, server.URL+"/custom/jwks.json")))
		require.NoError(t, err)

		got, err := provider.KeySet(context.Background())
		require.NoError(t, err)
		_, ok := got.LookupKeyID("custom")
		assert.True(t, ok)
		assert.Equal(t, before, server.discoveryCount.Load())
	})

	t.Run("resolves keys by kid", func(t *testing.T) {
		provider, err := NewProvider(WithIssuerURL(issuerURL))
		require.NoError(t, err)

		got, err := provider.ResolveKey(context.Background(), core.KeySelector{KeyID: "kid-1", Algorithm: "ES256"})
		require.NoError(t, err)
		key := got.(jwk.Key)
		assert.Equal(t, "kid-1", key.KeyID())
		assert.Equal(t, "ES256", key.Algorithm().String())

		_, err = provider.ResolveKey(context.Background(), core.KeySelector{KeyID: "unknown"})
		assert.ErrorIs(t, err, ErrKeyNotFound)

		got, err = provider.ResolveKey(context.Background(), core.KeySelector{})
		require.NoError(t, err)
		assert.Implements(t, (*jwk.Set)(nil), got)
	})

	t.Run("uses the specified custom client", func(t *testing.T) {
		client := &http.Client{Timeout: time.Hour}
		provider, err := NewProvider(WithIssuerURL(issuerURL), WithCustomClient(client))
		require.NoError(t, err)
		assert.Same(t, client, provider.Client)
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		provider, err := NewProvider(WithIssuerURL(issuerURL))
		require.NoError(t, err)

		_, err = provider.KeySet(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("requires an issuer URL or JWKS URI", func(t *testing.T) {
		_, err := NewProvider()
		assert.ErrorContains(t, err, "issuer URL is required")
	})

	t.Run("option validation", func(t *testing.T) {
		testCases := []struct {
			name    string
			opt     ProviderOption
			wantErr string
		}{
			{"nil issuer", WithIssuerURL(nil), "invalid option: issuer URL cannot be nil"},
			{"nil JWKS URI", WithCustomJWKSURI(nil), "invalid option: custom JWKS URI cannot be nil"},
			{"nil client", WithCustomClient(nil), "invalid option: HTTP client cannot be nil"},
			{"zero retry interval", WithRetry(1, 0), "invalid option: retry interval must be positive"},
		}
		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				_, err := NewProvider(WithIssuerURL(issuerURL), testCase.opt)
				assert.EqualError(t, err, testCase.wantErr)
			})
		}
	})
}

func TestProvider_Retry(t *testing.T) {
	set := generateJWKS(t, "kid")

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			assert.NoError(t, json.NewEncoder(w).Encode(set))
		}))
		defer server.Close()

		provider, err := NewProvider(
			WithCustomJWKSURI(mustParseURL(t, server.URL)),
			WithRetry(3, time.Millisecond),
		)
		require.NoError(t, err)

		got, err := provider.KeySet(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, got.Len())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		provider, err := NewProvider(
			WithCustomJWKSURI(mustParseURL(t, server.URL)),
			WithRetry(2, time.Millisecond),
		)
		require.NoError(t, err)

		_, err = provider.KeySet(context.Background())
		assert.ErrorContains(t, err, "request returned status 502")
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		provider, err := NewProvider(
			WithCustomJWKSURI(mustParseURL(t, server.URL)),
			WithRetry(5, time.Millisecond),
		)
		require.NoError(t, err)

		_, err = provider.KeySet(context.Background())
		assert.ErrorContains(t, err, "request returned status 404")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("does not retry an undecodable set", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		provider, err := NewProvider(
			WithCustomJWKSURI(mustParseURL(t, server.URL)),
			WithRetry(5, time.Millisecond),
		)
		require.NoError(t, err)

		_, err = provider.KeySet(context.Background())
		assert.ErrorContains(t, err, "failed to parse JWKS")
		assert.Equal(t, int32(1), calls.Load())
	})
}

type countingCache struct {
	calls atomic.Int32
	set   jwk.Set
	err   error
}

func (c *countingCache) Get(context.Context, string) (jwk.Set, error) {
	c.calls.Add(1)
	return c.set, c.err
}

func TestCachingProvider(t *testing.T) {
	set := generateJWKS(t, "kid")
	server := newTestServer(t, set, generateJWKS(t, "custom"))
	issuerURL := mustParseURL(t, server.URL)

	t.Run("calls the API once for concurrent requests", func(t *testing.T) {
		server.discoveryCount.Store(0)
		server.jwksCount.Store(0)

		provider, err := NewCachingProvider(WithIssuerURL(issuerURL), WithCacheTTL(5*time.Minute))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := provider.ResolveKey(context.Background(), core.KeySelector{KeyID: "kid"})
				assert.NoError(t, err)
				assert.NotNil(t, got)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), server.discoveryCount.Load())
		assert.Equal(t, int32(1), server.jwksCount.Load())
	})

	t.Run("accepts both option types", func(t *testing.T) {
		client := &http.Client{Timeout: time.Minute}
		provider, err := NewCachingProvider(
			WithIssuerURL(issuerURL),
			WithCustomClient(client),
			WithCacheTTL(time.Minute),
		)
		require.NoError(t, err)
		assert.Same(t, client, provider.client)
		assert.Equal(t, time.Minute, provider.cache.(*memoryCache).refreshTTL)
	})

	t.Run("zero TTL falls back to 15 minutes", func(t *testing.T) {
		provider, err := NewCachingProvider(WithIssuerURL(issuerURL), WithCacheTTL(0))
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, provider.cache.(*memoryCache).refreshTTL)
	})

	t.Run("custom JWKS URI skips discovery", func(t *testing.T) {
		server.discoveryCount.Store(0)
		provider, err := NewCachingProvider(WithCustomJWKSURI(mustParseURL(t, server.URL+"/custom/jwks.json")))
		require.NoError(t, err)

		got, err := provider.ResolveKey(context.Background(), core.KeySelector{})
		require.NoError(t, err)
		assert.Equal(t, "custom", got.(jwk.Key).KeyID())
		assert.Zero(t, server.discoveryCount.Load())
	})

	t.Run("uses a custom cache", func(t *testing.T) {
		cache := &countingCache{set: set}
		provider, err := NewCachingProvider(
			WithCustomJWKSURI(mustParseURL(t, server.URL+"/custom/jwks.json")),
			WithCache(cache),
		)
		require.NoError(t, err)

		got, err := provider.KeySet(context.Background())
		require.NoError(t, err)
		assert.Equal(t, set, got)
		assert.Equal(t, int32(1), cache.calls.Load())
	})

	t.Run("surfaces cache errors", func(t *testing.T) {
		cacheErr := fmt.Errorf("cache unavailable")
		provider, err := NewCachingProvider(
			WithCustomJWKSURI(mustParseURL(t, server.URL)),
			WithCache(&countingCache{err: cacheErr}),
		)
		require.NoError(t, err)

		_, err = provider.ResolveKey(context.Background(), core.KeySelector{})
		assert.ErrorIs(t, err, cacheErr)
	})

	t.Run("retries discovery after a failure", func(t *testing.T) {
		var fail atomic.Bool
		fail.Store(true)
		var discovery *httptest.Server
		discovery = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fail.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprintf(w, `{"issuer":%q,"jwks_uri":"%s/.well-known/jwks.json"}`, discovery.URL, server.URL)
		}))
		defer discovery.Close()

		provider, err := NewCachingProvider(WithIssuerURL(mustParseURL(t, discovery.URL)))
		require.NoError(t, err)

		_, err = provider.KeySet(context.Background())
		assert.ErrorContains(t, err, "failed to discover JWKS URI")

		fail.Store(false)
		got, err := provider.KeySet(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, got.Len())
	})

	t.Run("option errors", func(t *testing.T) {
		testCases := []struct {
			name    string
			opts    []any
			wantErr string
		}{
			{"missing issuer", nil, "issuer URL is required (use WithIssuerURL or WithCustomJWKSURI)"},
			{"invalid option type", []any{"nope"}, "invalid option type: string (must be ProviderOption or CachingProviderOption)"},
			{"negative TTL", []any{WithIssuerURL(issuerURL), WithCacheTTL(-time.Second)}, "invalid option: cache TTL cannot be negative"},
			{"nil cache", []any{WithIssuerURL(issuerURL), WithCache(nil)}, "invalid option: cache cannot be nil"},
			{"provider option error", []any{WithCustomClient(nil)}, "invalid option: HTTP client cannot be nil"},
		}
		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				_, err := NewCachingProvider(testCase.opts...)
				assert.EqualError(t, err, testCase.wantErr)
			})
		}
	})
}

func TestParseCacheControl(t *testing.T) {
	testCases := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"max-age=3600", time.Hour},
		{"public, max-age=600, must-revalidate", 10 * time.Minute},
		{"max-age=abc", 0},
		{"max-age=-5", 0},
		{"max-age=0", 0},
		{"max-age=604801", 0},
		{"no-store", 0},
	}
	for _, testCase := range testCases {
		t.Run(testCase.header, func(t *testing.T) {
			assert.Equal(t, testCase.want, parseCacheControl(testCase.header))
		})
	}
}
