package jwtgin

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jwtdemo/jwtguard"
)

// Option configures the middleware.
type Option func(*config) error

// WithErrorHandler sets the handler for rejected requests. The request is
// aborted after it returns.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(c *config) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		c.errorHandler = handler
		return nil
	}
}

// WithContextKey sets the gin.Context key for the claims.
func WithContextKey(key string) Option {
	return func(c *config) error {
		if key == "" {
			return errors.New("context key cannot be empty")
		}
		c.contextKey = key
		return nil
	}
}

// WithMiddlewareOptions passes options such as jwtguard.WithMetrics or
// jwtguard.WithExclusionUrls to the underlying middleware.
func WithMiddlewareOptions(opts ...jwtguard.Option) Option {
	return func(c *config) error {
		c.middlewareOptions = append(c.middlewareOptions, opts...)
		return nil
	}
}
