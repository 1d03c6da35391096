package core

import (
	"context"
	"fmt"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	claimsKey contextKey = iota
)

// GetClaims retrieves claims from the context with type safety using generics.
//
// It returns ErrClaimsNotFound if no claims were stored and an error wrapping
// it if the stored claims are of a different type.
//
//	claims, err := core.GetClaims[*validator.ValidatedClaims](ctx)
//	if err != nil {
//	    return err
//	}
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	val := ctx.Value(claimsKey)
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: claims type assertion failed, got %T", ErrClaimsNotFound, val)
	}

	return claims, nil
}

// SetClaims stores claims in the context.
// Adapters call it after a successful validation.
func SetClaims(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(claimsKey) != nil
}
