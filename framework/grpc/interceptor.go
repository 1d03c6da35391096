package jwtgrpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"

	"github.com/jwtdemo/jwtguard"
	"github.com/jwtdemo/jwtguard/core"
)

// JWTInterceptor validates JWTs for gRPC servers.
type JWTInterceptor struct {
	core            *core.Core
	headerExtractor HeaderExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	logger          jwtguard.Logger
	metrics         jwtguard.Metrics
}

// New creates an interceptor. WithCore is required.
func New(opts ...Option) (*JWTInterceptor, error) {
	i := &JWTInterceptor{
		headerExtractor: MetadataHeaderExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
		metrics:         jwtguard.NoopMetrics{},
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	if i.core == nil {
		return nil, errors.New("core is required, use WithCore option")
	}

	return i, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that
// validates the caller's token before invoking the handler.
func (i *JWTInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.skip(info.FullMethod) {
			return handler(ctx, req)
		}

		validatedCtx, err := i.validateRequest(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(validatedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that
// validates the caller's token once, when the stream opens.
func (i *JWTInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.skip(info.FullMethod) {
			return handler(srv, ss)
		}

		validatedCtx, err := i.validateRequest(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: validatedCtx})
	}
}

func (i *JWTInterceptor) skip(method string) bool {
	if !i.excludedMethods[method] {
		return false
	}
	if i.logger != nil {
		i.logger.Debug("skipping JWT validation for excluded method",
			"method", method)
	}
	return true
}

func (i *JWTInterceptor) validateRequest(ctx context.Context, method string) (context.Context, error) {
	header, err := i.headerExtractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Error("failed to extract token from gRPC metadata",
				"error", err,
				"method", method)
		}
		return ctx, i.errorHandler(err)
	}

	start := time.Now()
	claims, err := i.core.ValidateHeader(ctx, header)
	i.metrics.ObserveValidation(core.Result(err), time.Since(start))
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("JWT validation failed",
				"error", err,
				"method", method)
		}
		return ctx, i.errorHandler(err)
	}

	return core.SetClaims(ctx, claims), nil
}

// wrappedServerStream carries the context holding the claims.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
