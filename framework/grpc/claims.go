package jwtgrpc

import (
	"context"

	"github.com/jwtdemo/jwtguard/core"
)

// GetClaims retrieves the claims stored by the interceptor.
//
//	claims, err := jwtgrpc.GetClaims[*validator.ValidatedClaims](ctx)
//	if err != nil {
//	    return nil, status.Error(codes.Internal, "failed to get claims")
//	}
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx)
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}
