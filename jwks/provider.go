package jwks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/jwtdemo/jwtguard/core"
	"github.com/jwtdemo/jwtguard/internal/oidc"
	"github.com/jwtdemo/jwtguard/keys"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxRetries    = 2
	defaultRetryInterval = 250 * time.Millisecond
	maxJWKSSize          = 1 << 20
)

// ErrKeyNotFound is returned by ResolveKey when the key set holds no key for
// the selector.
var ErrKeyNotFound = keys.ErrKeyNotFound

// Cache stores key sets by JWKS URI.
type Cache interface {
	// Get returns the key set for jwksURI, fetching it when not cached.
	Get(ctx context.Context, jwksURI string) (jwk.Set, error)
}

// Provider fetches the JWKS of an issuer on every call. Most deployments want
// the CachingProvider instead.
type Provider struct {
	IssuerURL     *url.URL // Required unless CustomJWKSURI is set.
	CustomJWKSURI *url.URL // Optional.
	Client        *http.Client

	// MaxRetries bounds the retries of a failed fetch. Client errors (4xx)
	// and undecodable sets are not retried.
	MaxRetries    uint64
	RetryInterval time.Duration
}

// NewProvider builds and returns a new *Provider.
//
//	provider, err := jwks.NewProvider(
//	    jwks.WithIssuerURL(issuerURL),
//	    jwks.WithRetry(3, time.Second),
//	)
func NewProvider(opts ...ProviderOption) (*Provider, error) {
	p := &Provider{
		Client:        &http.Client{Timeout: defaultTimeout},
		MaxRetries:    defaultMaxRetries,
		RetryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if p.IssuerURL == nil && p.CustomJWKSURI == nil {
		return nil, errors.New("issuer URL is required (use WithIssuerURL or WithCustomJWKSURI)")
	}

	return p, nil
}

// KeySet discovers the JWKS URI when needed and fetches the key set.
func (p *Provider) KeySet(ctx context.Context) (jwk.Set, error) {
	jwksURI, err := p.jwksURI(ctx)
	if err != nil {
		return nil, err
	}

	set, _, err := p.fetcher().fetch(ctx, jwksURI)
	if err != nil {
		return nil, fmt.Errorf("could not fetch JWKS: %w", err)
	}
	return set, nil
}

// ResolveKey implements core.KeyResolver.
func (p *Provider) ResolveKey(ctx context.Context, selector core.KeySelector) (any, error) {
	set, err := p.KeySet(ctx)
	if err != nil {
		return nil, err
	}
	return keys.SelectFromSet(set, selector)
}

func (p *Provider) jwksURI(ctx context.Context) (string, error) {
	if p.CustomJWKSURI != nil {
		return p.CustomJWKSURI.String(), nil
	}
	return discover(ctx, p.Client, p.IssuerURL)
}

func (p *Provider) fetcher() *fetcher {
	return &fetcher{
		client:        p.Client,
		maxRetries:    p.MaxRetries,
		retryInterval: p.RetryInterval,
	}
}

func discover(ctx context.Context, client *http.Client, issuerURL *url.URL) (string, error) {
	wkEndpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL)
	if err != nil {
		return "", fmt.Errorf("failed to discover JWKS URI: %w", err)
	}
	if _, err := url.Parse(wkEndpoints.JWKSURI); err != nil {
		return "", fmt.Errorf("could not parse JWKS URI from well known endpoints: %w", err)
	}
	return wkEndpoints.JWKSURI, nil
}

// fetcher downloads key sets with bounded exponential backoff.
type fetcher struct {
	client        *http.Client
	maxRetries    uint64
	retryInterval time.Duration
}

// fetch returns the set at jwksURI and the Cache-Control max-age it was
// served with (0 when absent or out of bounds).
func (f *fetcher) fetch(ctx context.Context, jwksURI string) (jwk.Set, time.Duration, error) {
	var (
		set jwk.Set
		ttl time.Duration
	)
	operation := func() error {
		var err error
		set, ttl, err = f.fetchOnce(ctx, jwksURI)
		return err
	}
	if err := backoff.Retry(operation, f.backOff(ctx)); err != nil {
		return nil, 0, err
	}
	return set, ttl, nil
}

func (f *fetcher) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if f.retryInterval > 0 {
		b.InitialInterval = f.retryInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, f.maxRetries), ctx)
}

func (f *fetcher) fetchOnce(ctx context.Context, jwksURI string) (jwk.Set, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, backoff.Permanent(fmt.Errorf("request failed: %w", err))
		}
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("request returned status %d, expected 200", resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return nil, 0, backoff.Permanent(err)
		}
		return nil, 0, err
	}

	set, err := jwk.ParseReader(io.LimitReader(resp.Body, maxJWKSSize))
	if err != nil {
		return nil, 0, backoff.Permanent(fmt.Errorf("failed to parse JWKS: %w", err))
	}

	return set, parseCacheControl(resp.Header.Get("Cache-Control")), nil
}

// parseCacheControl extracts max-age from a Cache-Control header. Values
// outside [1s, 7d] are ignored.
func parseCacheControl(cacheControl string) time.Duration {
	const (
		maxAgePrefix = "max-age="
		minTTL       = time.Second
		maxTTL       = 7 * 24 * time.Hour
	)

	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, maxAgePrefix) {
			continue
		}
		seconds, err := strconv.ParseInt(strings.TrimPrefix(directive, maxAgePrefix), 10, 64)
		if err != nil || seconds <= 0 {
			continue
		}
		ttl := time.Duration(seconds) * time.Second
		if ttl < minTTL || ttl > maxTTL {
			return 0
		}
		return ttl
	}
	return 0
}

// effectiveTTL prefers the server's max-age when it is longer than the
// configured TTL.
func effectiveTTL(configured, served time.Duration) time.Duration {
	if served > configured {
		return served
	}
	return configured
}

// CachingProvider resolves keys from a cached JWKS. The default cache keeps
// sets in memory and refreshes them in the background.
type CachingProvider struct {
	cache     Cache
	issuerURL *url.URL
	client    *http.Client

	mu      sync.Mutex
	jwksURI string
}

// NewCachingProvider builds and returns a new CachingProvider. It accepts
// both ProviderOption and CachingProviderOption values.
//
//	provider, err := jwks.NewCachingProvider(
//	    jwks.WithIssuerURL(issuerURL),
//	    jwks.WithCacheTTL(5*time.Minute),
//	)
func NewCachingProvider(opts ...any) (*CachingProvider, error) {
	config := &cachingProviderConfig{
		provider: Provider{
			Client:        &http.Client{Timeout: defaultTimeout},
			MaxRetries:    defaultMaxRetries,
			RetryInterval: defaultRetryInterval,
		},
		cacheTTL: 15 * time.Minute,
	}

	for _, opt := range opts {
		switch v := opt.(type) {
		case CachingProviderOption:
			if err := v(config); err != nil {
				return nil, fmt.Errorf("invalid option: %w", err)
			}
		case ProviderOption:
			if err := v(&config.provider); err != nil {
				return nil, fmt.Errorf("invalid option: %w", err)
			}
		default:
			return nil, fmt.Errorf("invalid option type: %T (must be ProviderOption or CachingProviderOption)", opt)
		}
	}

	if config.provider.IssuerURL == nil && config.provider.CustomJWKSURI == nil {
		return nil, errors.New("issuer URL is required (use WithIssuerURL or WithCustomJWKSURI)")
	}

	cp := &CachingProvider{
		cache:     config.cache,
		issuerURL: config.provider.IssuerURL,
		client:    config.provider.Client,
	}
	if config.provider.CustomJWKSURI != nil {
		cp.jwksURI = config.provider.CustomJWKSURI.String()
	}
	if cp.cache == nil {
		cp.cache = newMemoryCache(config.provider.fetcher(), config.cacheTTL)
	}

	return cp, nil
}

// getJWKSURI returns the JWKS URI, discovering it on first use. A failed
// discovery is retried on the next call.
func (c *CachingProvider) getJWKSURI(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.jwksURI != "" {
		return c.jwksURI, nil
	}

	uri, err := discover(ctx, c.client, c.issuerURL)
	if err != nil {
		return "", err
	}
	c.jwksURI = uri
	return uri, nil
}

// KeySet returns the cached key set, fetching it when needed.
func (c *CachingProvider) KeySet(ctx context.Context) (jwk.Set, error) {
	jwksURI, err := c.getJWKSURI(ctx)
	if err != nil {
		return nil, err
	}
	return c.cache.Get(ctx, jwksURI)
}

// ResolveKey implements core.KeyResolver.
func (c *CachingProvider) ResolveKey(ctx context.Context, selector core.KeySelector) (any, error) {
	set, err := c.KeySet(ctx)
	if err != nil {
		return nil, err
	}
	return keys.SelectFromSet(set, selector)
}
