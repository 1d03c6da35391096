// Package jwtgrpc provides unary and stream server interceptors that
// validate the bearer token sent in the "authorization" metadata entry.
//
//	interceptor, err := jwtgrpc.New(
//	    jwtgrpc.WithCore(c),
//	    jwtgrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// The metadata value goes through core.Core.ValidateHeader unchanged, so the
// "Bearer " prefix rules are the same as for HTTP. Validation failures become
// codes.Unauthenticated carrying the fixed message of the failure kind; key
// resolution failures become codes.Internal.
//
// Handlers read the claims with GetClaims:
//
//	claims, err := jwtgrpc.GetClaims[*validator.ValidatedClaims](ctx)
package jwtgrpc
