package jwtguard

import (
	"errors"
	"net/http"

	"github.com/jwtdemo/jwtguard/core"
)

// Option configures the JWTMiddleware.
type Option func(*JWTMiddleware) error

// WithCore sets the validation pipeline (REQUIRED).
func WithCore(c *core.Core) Option {
	return func(m *JWTMiddleware) error {
		if c == nil {
			return ErrCoreNil
		}
		m.core = c
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests are validated.
//
// Default: true
func WithValidateOnOptions(value bool) Option {
	return func(m *JWTMiddleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler for rejected requests.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *JWTMiddleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithHeaderExtractor sets where the credential header is read from.
//
// Default: AuthHeaderExtractor
func WithHeaderExtractor(e HeaderExtractor) Option {
	return func(m *JWTMiddleware) error {
		if e == nil {
			return ErrHeaderExtractorNil
		}
		m.headerExtractor = e
		return nil
	}
}

// WithExclusionUrls skips validation for requests whose full URL or path
// equals one of exclusions.
func WithExclusionUrls(exclusions []string) Option {
	return func(m *JWTMiddleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionUrlsEmpty
		}
		excluded := make(map[string]struct{}, len(exclusions))
		for _, exclusion := range exclusions {
			excluded[exclusion] = struct{}{}
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			if _, ok := excluded[r.URL.Path]; ok {
				return true
			}
			_, ok := excluded[r.URL.String()]
			return ok
		}
		return nil
	}
}

// WithLogger sets the logger for request level events. Pass the same logger
// to core.WithLogger to also log validation outcomes.
func WithLogger(logger Logger) Option {
	return func(m *JWTMiddleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics records every validation outcome.
//
// Default: NoopMetrics
func WithMetrics(metrics Metrics) Option {
	return func(m *JWTMiddleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrCoreNil            = errors.New("core cannot be nil (use WithCore)")
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrHeaderExtractorNil = errors.New("headerExtractor cannot be nil")
	ErrExclusionUrlsEmpty = errors.New("exclusion URLs list cannot be empty")
	ErrLoggerNil          = errors.New("logger cannot be nil")
	ErrMetricsNil         = errors.New("metrics cannot be nil")
)
