package jwtgrpc

import (
	"errors"

	"github.com/jwtdemo/jwtguard"
	"github.com/jwtdemo/jwtguard/core"
)

// Option configures the JWT interceptor.
type Option func(*JWTInterceptor) error

// WithCore sets the validation pipeline (REQUIRED).
func WithCore(c *core.Core) Option {
	return func(i *JWTInterceptor) error {
		if c == nil {
			return errors.New("core cannot be nil")
		}
		i.core = c
		return nil
	}
}

// WithLogger sets a logger for the interceptor's own events.
func WithLogger(logger jwtguard.Logger) Option {
	return func(i *JWTInterceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// WithMetrics records every validation outcome.
func WithMetrics(metrics jwtguard.Metrics) Option {
	return func(i *JWTInterceptor) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		i.metrics = metrics
		return nil
	}
}

// WithHeaderExtractor sets where the authorization value is read from.
// Default is MetadataHeaderExtractor.
func WithHeaderExtractor(extractor HeaderExtractor) Option {
	return func(i *JWTInterceptor) error {
		if extractor == nil {
			return errors.New("header extractor cannot be nil")
		}
		i.headerExtractor = extractor
		return nil
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *JWTInterceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods excludes methods, given as "/package.Service/Method",
// from validation.
func WithExcludedMethods(methods ...string) Option {
	return func(i *JWTInterceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}
