// Package jwtecho adapts jwtguard to Echo.
package jwtecho

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jwtdemo/jwtguard"
	"github.com/jwtdemo/jwtguard/core"
)

// DefaultClaimsKey is the echo.Context key the claims are stored under.
const DefaultClaimsKey = "jwt"

// ErrCoreNil is returned by New when no core is given.
var ErrCoreNil = errors.New("core cannot be nil")

// ErrorHandler turns a validation error into the response. Its return value
// is handed back to Echo.
type ErrorHandler func(c echo.Context, err error) error

type config struct {
	errorHandler      ErrorHandler
	contextKey        string
	middlewareOptions []jwtguard.Option
}

// New returns an Echo middleware validating requests with c.
func New(c *core.Core, opts ...Option) (echo.MiddlewareFunc, error) {
	if c == nil {
		return nil, ErrCoreNil
	}

	cfg := &config{
		errorHandler: DefaultErrorHandler,
		contextKey:   DefaultClaimsKey,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	m, err := jwtguard.New(append(cfg.middlewareOptions, jwtguard.WithCore(c))...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			req := ec.Request()
			if m.Skip(req) {
				return next(ec)
			}

			claims, err := m.Validate(req)
			if err != nil {
				return cfg.errorHandler(ec, err)
			}

			ec.SetRequest(req.WithContext(core.SetClaims(req.Context(), claims)))
			ec.Set(cfg.contextKey, claims)
			return next(ec)
		}
	}, nil
}

// DefaultErrorHandler writes the jwtguard.ErrorResponseFor err as JSON.
func DefaultErrorHandler(c echo.Context, err error) error {
	status, resp := jwtguard.ErrorResponseFor(err)
	if status == http.StatusUnauthorized {
		c.Response().Header().Set("WWW-Authenticate", jwtguard.WWWAuthenticateInvalidToken)
	}
	return c.JSON(status, resp)
}

// GetClaims returns the claims stored by the middleware.
func GetClaims[T any](c echo.Context) (T, error) {
	return core.GetClaims[T](c.Request().Context())
}
