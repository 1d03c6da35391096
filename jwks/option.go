package jwks

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

// ProviderOption is how options for the Provider are set up.
type ProviderOption func(*Provider) error

// WithIssuerURL sets the OIDC issuer whose discovery document names the
// JWKS URI.
func WithIssuerURL(issuerURL *url.URL) ProviderOption {
	return func(p *Provider) error {
		if issuerURL == nil {
			return errors.New("issuer URL cannot be nil")
		}
		p.IssuerURL = issuerURL
		return nil
	}
}

// WithCustomJWKSURI fetches keys from jwksURI directly, skipping discovery.
func WithCustomJWKSURI(jwksURI *url.URL) ProviderOption {
	return func(p *Provider) error {
		if jwksURI == nil {
			return errors.New("custom JWKS URI cannot be nil")
		}
		p.CustomJWKSURI = jwksURI
		return nil
	}
}

// WithCustomClient sets the HTTP client. The default has a 30s timeout.
func WithCustomClient(c *http.Client) ProviderOption {
	return func(p *Provider) error {
		if c == nil {
			return errors.New("HTTP client cannot be nil")
		}
		p.Client = c
		return nil
	}
}

// WithRetry sets how many times a failed fetch is retried and the initial
// backoff interval. Zero retries disables retrying.
func WithRetry(maxRetries uint64, initialInterval time.Duration) ProviderOption {
	return func(p *Provider) error {
		if initialInterval <= 0 {
			return errors.New("retry interval must be positive")
		}
		p.MaxRetries = maxRetries
		p.RetryInterval = initialInterval
		return nil
	}
}

// CachingProviderOption configures the cache of a CachingProvider.
type CachingProviderOption func(*cachingProviderConfig) error

type cachingProviderConfig struct {
	provider Provider
	cacheTTL time.Duration
	cache    Cache
}

// WithCacheTTL sets how long a fetched set is used. Zero restores the
// 15 minute default. A longer Cache-Control max-age from the server wins.
func WithCacheTTL(ttl time.Duration) CachingProviderOption {
	return func(c *cachingProviderConfig) error {
		if ttl < 0 {
			return errors.New("cache TTL cannot be negative")
		}
		if ttl == 0 {
			ttl = 15 * time.Minute
		}
		c.cacheTTL = ttl
		return nil
	}
}

// WithCache replaces the in-memory cache, for example with a RedisCache.
func WithCache(cache Cache) CachingProviderOption {
	return func(c *cachingProviderConfig) error {
		if cache == nil {
			return errors.New("cache cannot be nil")
		}
		c.cache = cache
		return nil
	}
}
