/*
Package core provides framework-agnostic bearer token validation that can be
used across different transport layers (HTTP, gRPC, etc.).

The Core type runs a linear pipeline and stops at the first failure:

	header ──▶ ExtractBearerToken ──▶ KeyResolver ──▶ Verifier ──▶ claims
	                 │                    │              │
	                 ▼                    ▼              ▼
	          ValidationError    KeyResolutionError   Classify ──▶ ValidationError

Transport adapters (net/http, Gin, Echo, gRPC) pass the raw header value to
ValidateHeader and map the returned error to a response.

# Error kinds

Every validation failure is a *ValidationError of exactly one Kind, and its
Error method returns a fixed message that never contains the token:

	KindMissingHeader     Authorization header is missing.
	KindMalformedHeader   Authorization does not begin Bearer prefix.
	KindExpiredToken      JWT token expired.
	KindMalformedToken    JWT token is missing. / JWT token is not valid.
	KindUnsupportedToken  JWT token has no claims.
	KindBadSignature      Bad JWT token signature.

Use errors.Is with the per-kind sentinels (ErrExpiredToken, ...) or with
ErrJWTMissing / ErrJWTInvalid. The underlying cause is kept in Details for
logging.

A resolver failure is not a validation kind. It is returned as a
*KeyResolutionError that matches ErrKeyResolution and unwraps to the
resolver's error, so context.Canceled and context.DeadlineExceeded remain
visible to the caller.

# Usage

	c, err := core.New(
	    core.WithKeyResolver(resolver),
	    core.WithVerifier(v),
	    core.WithKeySelector(core.KeySelector{KeyID: "signing-key", Algorithm: "RS256"}),
	    core.WithLogger(slog.Default()),
	)
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := c.ValidateHeader(ctx, r.Header.Get(core.AuthorizationHeader))

# Prefix handling

Only the leading "Bearer " is removed by default. WithLegacyPrefixRemoval
removes every occurrence of "Bearer " in the header instead, matching older
deployments that relied on it.

# Thread Safety

A Core holds no mutable state after New returns and may be shared by any
number of goroutines. Caching and locking belong to the KeyResolver.
*/
package core
