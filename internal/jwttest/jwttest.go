// Package jwttest builds signing keys, tokens and a wired core.Core for the
// adapter tests.
package jwttest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/jwtdemo/jwtguard/core"
	"github.com/jwtdemo/jwtguard/keys"
	"github.com/jwtdemo/jwtguard/validator"
)

// KeyID is the kid of the key behind Signer.Core.
const KeyID = "test-key"

// Signer holds an ES256 key pair.
type Signer struct {
	Private *ecdsa.PrivateKey
}

// NewSigner generates a P-256 key pair.
func NewSigner(t testing.TB) *Signer {
	t.Helper()
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("could not generate key: %v", err)
	}
	return &Signer{Private: private}
}

// Token returns a compact ES256 token for subject expiring at exp.
func (s *Signer) Token(t testing.TB, subject string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewBuilder().Subject(subject).Expiration(exp).Build()
	if err != nil {
		t.Fatalf("could not build token: %v", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256, s.Private))
	if err != nil {
		t.Fatalf("could not sign token: %v", err)
	}
	return string(signed)
}

// Core returns a core.Core that accepts tokens signed by s.
func (s *Signer) Core(t testing.TB, opts ...core.Option) *core.Core {
	t.Helper()
	public, err := jwk.FromRaw(&s.Private.PublicKey)
	if err != nil {
		t.Fatalf("could not import key: %v", err)
	}
	if err := public.Set(jwk.KeyIDKey, KeyID); err != nil {
		t.Fatalf("could not set kid: %v", err)
	}
	resolver, err := keys.NewStaticResolver(public)
	if err != nil {
		t.Fatalf("could not build resolver: %v", err)
	}
	v, err := validator.New(validator.WithAlgorithm(validator.ES256))
	if err != nil {
		t.Fatalf("could not build validator: %v", err)
	}

	c, err := core.New(append([]core.Option{
		core.WithKeyResolver(resolver),
		core.WithVerifier(v),
		core.WithKeySelector(core.KeySelector{KeyID: KeyID}),
	}, opts...)...)
	if err != nil {
		t.Fatalf("could not build core: %v", err)
	}
	return c
}
