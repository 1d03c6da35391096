package jwtguard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jwtdemo/jwtguard/core"
)

// Logger is the slog-compatible logger used across the module.
type Logger = core.Logger

// ExclusionURLHandler reports whether a request skips validation.
type ExclusionURLHandler func(r *http.Request) bool

// JWTMiddleware validates the bearer token of every request before handing
// it to the next handler.
type JWTMiddleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	headerExtractor     HeaderExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	metrics             Metrics
}

// New constructs a JWTMiddleware. WithCore is required.
//
//	middleware, err := jwtguard.New(
//	    jwtguard.WithCore(c),
//	    jwtguard.WithExclusionUrls([]string{"/healthz"}),
//	)
func New(opts ...Option) (*JWTMiddleware, error) {
	m := &JWTMiddleware{
		validateOnOptions: true,
		errorHandler:      DefaultErrorHandler,
		headerExtractor:   AuthHeaderExtractor,
		metrics:           NoopMetrics{},
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.core == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrCoreNil)
	}

	return m, nil
}

// GetClaims retrieves claims stored by the middleware.
//
//	claims, err := jwtguard.GetClaims[*validator.ValidatedClaims](r.Context())
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx)
}

// MustGetClaims is GetClaims that panics when no claims of type T exist.
func MustGetClaims[T any](ctx context.Context) T {
	claims, err := core.GetClaims[T](ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}

// Validate runs the validation pipeline for r and records the outcome. It
// is the building block of CheckJWT and of the framework adapters.
func (m *JWTMiddleware) Validate(r *http.Request) (any, error) {
	start := time.Now()
	claims, err := m.core.ValidateHeader(r.Context(), m.headerExtractor(r))
	m.metrics.ObserveValidation(core.Result(err), time.Since(start))
	return claims, err
}

// Skip reports whether r bypasses validation.
func (m *JWTMiddleware) Skip(r *http.Request) bool {
	if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
		if m.logger != nil {
			m.logger.Debug("skipping JWT validation for excluded URL",
				"method", r.Method,
				"path", r.URL.Path)
		}
		return true
	}
	if !m.validateOnOptions && r.Method == http.MethodOptions {
		if m.logger != nil {
			m.logger.Debug("skipping JWT validation for OPTIONS request")
		}
		return true
	}
	return false
}

// CheckJWT wraps next so that it only runs for requests carrying a valid
// token. The claims are stored in the request context.
func (m *JWTMiddleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.Validate(r)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("rejecting request",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path)
			}
			m.errorHandler(w, r, err)
			return
		}

		r = r.Clone(core.SetClaims(r.Context(), claims))
		next.ServeHTTP(w, r)
	})
}
