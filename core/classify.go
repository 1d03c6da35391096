package core

import "errors"

// Classify maps a verification failure to exactly one ValidationError.
// It is total: conditions it does not recognise become KindMalformedToken.
// A nil error classifies to nil.
func Classify(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}

	switch {
	case errors.Is(err, ErrTokenEmpty):
		return NewValidationError(KindMalformedToken, MessageTokenMissing, err)
	case errors.Is(err, ErrSignatureInvalid):
		return NewValidationError(KindBadSignature, MessageBadSignature, err)
	case errors.Is(err, ErrTokenExpired):
		return NewValidationError(KindExpiredToken, MessageExpiredToken, err)
	case errors.Is(err, ErrTokenUnsupported):
		return NewValidationError(KindUnsupportedToken, MessageNoClaims, err)
	default:
		return NewValidationError(KindMalformedToken, MessageTokenInvalid, err)
	}
}
