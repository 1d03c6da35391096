package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for bearer validation.
var (
	// ErrJWTMissing matches a ValidationError of kind KindMissingHeader.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid matches a ValidationError of every other kind.
	ErrJWTInvalid = errors.New("jwt invalid")

	// ErrKeyResolution matches a KeyResolutionError.
	ErrKeyResolution = errors.New("key resolution failed")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")
)

// Conditions reported by a Verifier. Classify maps each one to a ValidationError.
// Verifiers wrap them with the underlying library error, e.g.
//
//	fmt.Errorf("%w: %w", core.ErrTokenExpired, err)
var (
	ErrTokenEmpty       = errors.New("token is empty")
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenUnsupported = errors.New("token is unsupported")
	ErrSignatureInvalid = errors.New("token signature is invalid")
)

// Kind is the closed set of validation failure categories.
type Kind int

const (
	KindMissingHeader Kind = iota + 1
	KindMalformedHeader
	KindExpiredToken
	KindMalformedToken
	KindUnsupportedToken
	KindBadSignature
)

// String returns a machine-readable code for the kind.
func (k Kind) String() string {
	switch k {
	case KindMissingHeader:
		return "missing_header"
	case KindMalformedHeader:
		return "malformed_header"
	case KindExpiredToken:
		return "token_expired"
	case KindMalformedToken:
		return "token_malformed"
	case KindUnsupportedToken:
		return "token_unsupported"
	case KindBadSignature:
		return "invalid_signature"
	default:
		return "unknown"
	}
}

// Fixed, caller-displayable messages.
const (
	MessageMissingHeader   = "Authorization header is missing."
	MessageMalformedHeader = "Authorization does not begin Bearer prefix."
	MessageExpiredToken    = "JWT token expired."
	MessageTokenMissing    = "JWT token is missing."
	MessageTokenInvalid    = "JWT token is not valid."
	MessageNoClaims        = "JWT token has no claims."
	MessageBadSignature    = "Bad JWT token signature."
)

// ValidationError is the single error a failed validation produces.
// Error returns only the fixed message so it is safe to show to callers;
// the underlying cause is kept in Details for logging.
type ValidationError struct {
	Kind    Kind
	Message string
	Details error
}

// Per-kind sentinels for use with errors.Is. Two ValidationErrors match
// when their kinds are equal.
var (
	ErrMissingHeader    = &ValidationError{Kind: KindMissingHeader, Message: MessageMissingHeader}
	ErrMalformedHeader  = &ValidationError{Kind: KindMalformedHeader, Message: MessageMalformedHeader}
	ErrExpiredToken     = &ValidationError{Kind: KindExpiredToken, Message: MessageExpiredToken}
	ErrMalformedToken   = &ValidationError{Kind: KindMalformedToken, Message: MessageTokenInvalid}
	ErrUnsupportedToken = &ValidationError{Kind: KindUnsupportedToken, Message: MessageNoClaims}
	ErrBadSignature     = &ValidationError{Kind: KindBadSignature, Message: MessageBadSignature}
)

// NewValidationError creates a ValidationError of the given kind.
func NewValidationError(kind Kind, message string, details error) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is reports whether target is ErrJWTMissing, ErrJWTInvalid or a
// ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrJWTMissing:
		return e.Kind == KindMissingHeader
	case ErrJWTInvalid:
		return e.Kind != KindMissingHeader
	}

	var other *ValidationError
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// KeyResolutionError is returned when the KeyResolver fails. It is passed
// through unclassified and unwraps to the resolver's own error.
type KeyResolutionError struct {
	Selector KeySelector
	Err      error
}

// Error implements the error interface.
func (e *KeyResolutionError) Error() string {
	return fmt.Sprintf("%s for key %q: %v", ErrKeyResolution, e.Selector.KeyID, e.Err)
}

// Unwrap returns the resolver's error.
func (e *KeyResolutionError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with ErrKeyResolution.
func (e *KeyResolutionError) Is(target error) bool {
	return target == ErrKeyResolution
}
