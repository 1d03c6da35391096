package core

import (
	"errors"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a new Core instance with the provided options.
//
// The Core must be configured with a KeyResolver and a Verifier.
// All other options are optional.
//
// Example:
//
//	c, err := core.New(
//	    core.WithKeyResolver(resolver),
//	    core.WithVerifier(v),
//	    core.WithKeySelector(core.KeySelector{KeyID: "signing-key"}),
//	    core.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Core, error) {
	c := &Core{
		tracer: noop.NewTracerProvider().Tracer(""),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate ensures all required fields are set.
func (c *Core) validate() error {
	if c.resolver == nil {
		return errors.New("key resolver is required but not set (use WithKeyResolver option)")
	}
	if c.verifier == nil {
		return errors.New("verifier is required but not set (use WithVerifier option)")
	}
	return nil
}

// WithKeyResolver sets the collaborator that supplies key material.
// This is a required option.
func WithKeyResolver(resolver KeyResolver) Option {
	return func(c *Core) error {
		if resolver == nil {
			return errors.New("key resolver cannot be nil")
		}
		c.resolver = resolver
		return nil
	}
}

// WithVerifier sets the token verifier. This is a required option.
func WithVerifier(verifier Verifier) Option {
	return func(c *Core) error {
		if verifier == nil {
			return errors.New("verifier cannot be nil")
		}
		c.verifier = verifier
		return nil
	}
}

// WithKeySelector sets the selector passed to the KeyResolver on every call.
// Defaults to the zero KeySelector, which single-key resolvers accept.
func WithKeySelector(selector KeySelector) Option {
	return func(c *Core) error {
		c.selector = selector
		return nil
	}
}

// WithLogger sets an optional logger for the Core.
//
// When configured, the Core logs validation outcomes with their kind and
// duration. Tokens are never logged.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer used to record one span per
// validation. Defaults to a no-op tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Core) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithLegacyPrefixRemoval strips every occurrence of "Bearer " from the
// header instead of only the leading one. This matches older deployments
// that used a whole-string replace and changes tokens which contain the
// prefix text in their body.
func WithLegacyPrefixRemoval() Option {
	return func(c *Core) error {
		c.legacyPrefix = true
		return nil
	}
}
