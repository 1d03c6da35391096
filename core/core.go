package core

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// KeySelector identifies the key material used for verification. It is
// configuration owned by the caller and is the same for every call.
type KeySelector struct {
	// KeyID selects a key from the resolver, e.g. a JWKS kid or a secret name.
	KeyID string

	// Algorithm optionally pins the signature algorithm, e.g. "RS256".
	Algorithm string
}

// KeyResolver resolves a KeySelector to public key material. Implementations
// own any caching and locking. The returned key is borrowed for the duration
// of one verification.
type KeyResolver interface {
	ResolveKey(ctx context.Context, selector KeySelector) (any, error)
}

// KeyResolverFunc adapts a function to the KeyResolver interface.
type KeyResolverFunc func(ctx context.Context, selector KeySelector) (any, error)

// ResolveKey calls f(ctx, selector).
func (f KeyResolverFunc) ResolveKey(ctx context.Context, selector KeySelector) (any, error) {
	return f(ctx, selector)
}

// Verifier checks a token's structure, signature and claims against a key and
// returns the validated claims. Failures should wrap one of ErrTokenEmpty,
// ErrTokenMalformed, ErrTokenExpired, ErrTokenUnsupported or ErrSignatureInvalid.
type Verifier interface {
	VerifyToken(ctx context.Context, token string, key any) (any, error)
}

// Logger defines an optional logging interface for the core.
// It is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Core is the framework-agnostic validation engine. It holds no mutable state
// and is safe for concurrent use.
type Core struct {
	resolver     KeyResolver
	verifier     Verifier
	selector     KeySelector
	logger       Logger
	tracer       trace.Tracer
	legacyPrefix bool
}

// ValidateHeader validates a raw Authorization header value.
//
// The steps run in order and stop at the first failure:
//   - the header must be present and begin with "Bearer "
//   - the configured KeySelector is resolved to a key
//   - the token is verified against the key
//
// On success the verifier's claims are returned. Otherwise the error is a
// *ValidationError, or a *KeyResolutionError when the resolver failed.
func (c *Core) ValidateHeader(ctx context.Context, header string) (any, error) {
	ctx, span := c.tracer.Start(ctx, "jwtguard.ValidateHeader")
	defer span.End()

	token, err := c.extract(header)
	if err != nil {
		c.finish(span, err, 0)
		return nil, err
	}

	return c.checkToken(ctx, span, token)
}

// CheckToken runs key resolution and verification on a token that has
// already been taken out of its header. An empty token fails as
// KindMalformedToken with MessageTokenMissing.
func (c *Core) CheckToken(ctx context.Context, token string) (any, error) {
	ctx, span := c.tracer.Start(ctx, "jwtguard.CheckToken")
	defer span.End()

	return c.checkToken(ctx, span, token)
}

func (c *Core) checkToken(ctx context.Context, span trace.Span, token string) (any, error) {
	start := time.Now()

	key, err := c.resolver.ResolveKey(ctx, c.selector)
	if err == nil && key == nil {
		err = errors.New("resolver returned no key")
	}
	if err != nil {
		resErr := &KeyResolutionError{Selector: c.selector, Err: err}
		c.finish(span, resErr, time.Since(start))
		return nil, resErr
	}

	claims, err := c.verifier.VerifyToken(ctx, token, key)
	if err != nil {
		verr := Classify(err)
		c.finish(span, verr, time.Since(start))
		return nil, verr
	}

	c.finish(span, nil, time.Since(start))
	return claims, nil
}

func (c *Core) extract(header string) (string, error) {
	if c.legacyPrefix {
		return extractBearerTokenLegacy(header)
	}
	return ExtractBearerToken(header)
}

// finish records the outcome on the span and the logger.
func (c *Core) finish(span trace.Span, err error, duration time.Duration) {
	result := Result(err)
	span.SetAttributes(attribute.String("jwtguard.result", result))

	if err == nil {
		span.SetStatus(codes.Ok, "")
		if c.logger != nil {
			c.logger.Debug("Token validated successfully", "duration", duration)
		}
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, result)

	if c.logger == nil {
		return
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		c.logger.Warn("Token validation failed",
			"kind", ve.Kind.String(),
			"error", ve.Details,
			"duration", duration)
		return
	}
	c.logger.Error("Key resolution failed",
		"key_id", c.selector.KeyID,
		"error", err,
		"duration", duration)
}

// Result returns a short label for the outcome of a validation, suitable
// for metrics and span attributes: "valid", a Kind code, "key_resolution"
// or "error".
func Result(err error) string {
	if err == nil {
		return "valid"
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind.String()
	}
	if errors.Is(err, ErrKeyResolution) {
		return "key_resolution"
	}
	return "error"
}
