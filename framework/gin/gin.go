// Package jwtgin adapts jwtguard to Gin.
package jwtgin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwtdemo/jwtguard"
	"github.com/jwtdemo/jwtguard/core"
)

// DefaultClaimsKey is the gin.Context key the claims are stored under.
const DefaultClaimsKey = "jwt"

// ErrCoreNil is returned by New when no core is given.
var ErrCoreNil = errors.New("core cannot be nil")

type config struct {
	errorHandler      func(*gin.Context, error)
	contextKey        string
	middlewareOptions []jwtguard.Option
}

// New returns a Gin middleware validating requests with c. Valid claims are
// stored in the request context (see GetClaims) and under the context key.
func New(c *core.Core, opts ...Option) (gin.HandlerFunc, error) {
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

	return func(ctx *gin.Context) {
		if m.Skip(ctx.Request) {
			ctx.Next()
			return
		}

		claims, err := m.Validate(ctx.Request)
		if err != nil {
			cfg.errorHandler(ctx, err)
			ctx.Abort()
			return
		}

		ctx.Request = ctx.Request.WithContext(core.SetClaims(ctx.Request.Context(), claims))
		ctx.Set(cfg.contextKey, claims)
		ctx.Next()
	}, nil
}

// DefaultErrorHandler responds like jwtguard.DefaultErrorHandler.
func DefaultErrorHandler(ctx *gin.Context, err error) {
	status, resp := jwtguard.ErrorResponseFor(err)
	if status == http.StatusUnauthorized {
		ctx.Header("WWW-Authenticate", jwtguard.WWWAuthenticateInvalidToken)
	}
	ctx.AbortWithStatusJSON(status, resp)
}

// GetClaims returns the claims stored by the middleware.
func GetClaims[T any](ctx *gin.Context) (T, error) {
	return core.GetClaims[T](ctx.Request.Context())
}
