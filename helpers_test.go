package jwtguard

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/jwtdemo/jwtguard/core"
	"github.com/jwtdemo/jwtguard/keys"
	"github.com/jwtdemo/jwtguard/validator"
)

type testKeys struct {
	signing *ecdsa.PrivateKey
	other   *ecdsa.PrivateKey
}

func newTestKeys(t *testing.T) testKeys {
	t.Helper()
	signing, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return testKeys{signing: signing, other: other}
}

func (k testKeys) core(t *testing.T, opts ...core.Option) *core.Core {
	t.Helper()
	public, err := jwk.FromRaw(&k.signing.PublicKey)
	require.NoError(t, err)
	require.NoError(t, public.Set(jwk.KeyIDKey, "test-key"))

	resolver, err := keys.NewStaticResolver(public)
	require.NoError(t, err)
	v, err := validator.New()
	require.NoError(t, err)

	c, err := core.New(append([]core.Option{
		core.WithKeyResolver(resolver),
		core.WithVerifier(v),
		core.WithKeySelector(core.KeySelector{KeyID: "test-key", Algorithm: "ES256"}),
	}, opts...)...)
	require.NoError(t, err)
	return c
}

func signToken(t *testing.T, key *ecdsa.PrivateKey, subject string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewBuilder().Subject(subject).Expiration(exp).Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256, key))
	require.NoError(t, err)
	return string(signed)
}
