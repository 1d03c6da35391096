package validator

import (
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ValidatedClaims is the struct that will be inserted into
// the context for the user.
type ValidatedClaims struct {
	RegisteredClaims RegisteredClaims
	PrivateClaims    map[string]any
}

// RegisteredClaims represents public claim
// values (as specified in RFC 7519).
type RegisteredClaims struct {
	Issuer    string   `json:"iss,omitempty"`
	Subject   string   `json:"sub,omitempty"`
	Audience  []string `json:"aud,omitempty"`
	Expiry    int64    `json:"exp,omitempty"`
	NotBefore int64    `json:"nbf,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	ID        string   `json:"jti,omitempty"`
}

func newValidatedClaims(token jwt.Token) *ValidatedClaims {
	return &ValidatedClaims{
		RegisteredClaims: RegisteredClaims{
			Issuer:    token.Issuer(),
			Subject:   token.Subject(),
			Audience:  token.Audience(),
			Expiry:    unixTime(token.Expiration()),
			NotBefore: unixTime(token.NotBefore()),
			IssuedAt:  unixTime(token.IssuedAt()),
			ID:        token.JwtID(),
		},
		PrivateClaims: token.PrivateClaims(),
	}
}

func unixTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
