package jwtgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jwtdemo/jwtguard/core"
)

// ErrorHandler converts a validation error into the error returned to the
// client.
type ErrorHandler func(error) error

// DefaultErrorHandler maps validation errors to gRPC status errors. Every
// validation kind is codes.Unauthenticated with the kind's fixed message.
// Anything else, key resolution failures included, is codes.Internal unless
// the call was canceled or ran out of time.
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	var validationErr *core.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return status.Error(codes.Unauthenticated, validationErr.Message)
	case errors.Is(err, ErrMultipleAuthHeaders):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded while verifying token")
	default:
		return status.Error(codes.Internal, "unable to verify token")
	}
}
