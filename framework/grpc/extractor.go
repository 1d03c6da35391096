package jwtgrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/metadata"
)

// HeaderExtractor returns the raw authorization value of an incoming call.
// An absent value is the empty string.
type HeaderExtractor func(ctx context.Context) (string, error)

// ErrMultipleAuthHeaders indicates the call carried more than one
// authorization metadata entry.
var ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

// MetadataHeaderExtractor reads the "authorization" metadata entry. gRPC
// lowercases incoming keys, so only the lowercase key is checked.
func MetadataHeaderExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	values := md.Get("authorization")
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		return values[0], nil
	default:
		return "", ErrMultipleAuthHeaders
	}
}
