/*
Package jwks resolves verification keys from a JSON Web Key Set published by
an issuer.

Two providers implement core.KeyResolver:

  - Provider fetches the set on every call. Useful for tests and tools.
  - CachingProvider keeps the set in a Cache (in memory by default) and
    refreshes it in the background at 80% of its TTL.

Both locate the set through OIDC discovery (".well-known/openid-configuration"
below WithIssuerURL) unless WithCustomJWKSURI names it directly. Transient
fetch failures (transport errors, 429 and 5xx) are retried with exponential
backoff; see WithRetry.

# Key selection

A selector with a KeyID returns the key with that "kid" or an error wrapping
ErrKeyNotFound. Without a KeyID a single-key set yields its key and a larger
set is returned whole, leaving the verifier to match the token's own "kid".

# Caching

The TTL set with WithCacheTTL (15 minutes by default) is extended when the
server sends a longer Cache-Control max-age, bounded to 7 days. Several
instances can share sets through Redis:

	cache, err := jwks.NewRedisCache(redis.NewClient(&redis.Options{Addr: addr}), 10*time.Minute, nil)
	if err != nil {
	    log.Fatal(err)
	}
	provider, err := jwks.NewCachingProvider(
	    jwks.WithIssuerURL(issuerURL),
	    jwks.WithCache(cache),
	)
*/
package jwks
