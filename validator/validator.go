package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/jwtdemo/jwtguard/core"
)

// Signature algorithms
const (
	EdDSA = SignatureAlgorithm("EdDSA")
	HS256 = SignatureAlgorithm("HS256") // HMAC using SHA-256
	HS384 = SignatureAlgorithm("HS384") // HMAC using SHA-384
	HS512 = SignatureAlgorithm("HS512") // HMAC using SHA-512
	RS256 = SignatureAlgorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = SignatureAlgorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = SignatureAlgorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	ES256 = SignatureAlgorithm("ES256") // ECDSA using P-256 and SHA-256
	ES384 = SignatureAlgorithm("ES384") // ECDSA using P-384 and SHA-384
	ES512 = SignatureAlgorithm("ES512") // ECDSA using P-521 and SHA-512
	PS256 = SignatureAlgorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = SignatureAlgorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = SignatureAlgorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
)

// SignatureAlgorithm is a signature algorithm.
type SignatureAlgorithm string

var allowedSigningAlgorithms = map[SignatureAlgorithm]bool{
	EdDSA: true,
	HS256: true,
	HS384: true,
	HS512: true,
	RS256: true,
	RS384: true,
	RS512: true,
	ES256: true,
	ES384: true,
	ES512: true,
	PS256: true,
	PS384: true,
	PS512: true,
}

// ParseAlgorithm converts a configuration string such as "RS256" into a
// SignatureAlgorithm. The empty string yields the empty algorithm, which
// leaves the choice to the token header.
func ParseAlgorithm(s string) (SignatureAlgorithm, error) {
	if s == "" {
		return "", nil
	}
	alg := SignatureAlgorithm(s)
	if !allowedSigningAlgorithms[alg] {
		return "", fmt.Errorf("unsupported signature algorithm: %s", s)
	}
	return alg, nil
}

// Validator verifies compact JWS tokens using the jwx v2 package.
// It holds no per-call state and is safe for concurrent use.
type Validator struct {
	signatureAlgorithm SignatureAlgorithm // Optional.
	allowedClockSkew   time.Duration      // Optional.
	clock              func() time.Time   // Optional.
}

// New sets up a new Validator with the given options.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		clock: time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return v, nil
}

// VerifyToken verifies the token against key and returns *ValidatedClaims.
//
// key may be a jwk.Key, a jwk.Set or a raw key accepted by jwx (for example
// *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey or []byte for HMAC).
// A jwk.Key that carries an "alg" requires the token to use that algorithm.
//
// Checks run in this order and the first failure is returned: structure,
// signature, expiry, remaining time claims, claims presence. Errors wrap the
// matching core sentinel so core.Classify can map them.
func (v *Validator) VerifyToken(ctx context.Context, tokenString string, key any) (any, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, core.ErrTokenEmpty
	}

	alg, err := parseHeader(tokenString)
	if err != nil {
		return nil, err
	}

	payload, err := v.verifySignature(tokenString, alg, key)
	if err != nil {
		return nil, err
	}

	token, err := decodeClaims(payload)
	if err != nil {
		return nil, err
	}

	if err = v.validateTimes(token); err != nil {
		return nil, err
	}

	claims, err := token.AsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read claims: %w", core.ErrTokenMalformed, err)
	}
	if len(claims) == 0 {
		return nil, fmt.Errorf("%w: token has no claims", core.ErrTokenUnsupported)
	}

	return newValidatedClaims(token), nil
}

// parseHeader checks the compact serialization and returns the alg header.
func parseHeader(tokenString string) (jwa.SignatureAlgorithm, error) {
	if err := validateTokenFormat(tokenString); err != nil {
		return "", err
	}

	msg, err := jws.Parse([]byte(tokenString))
	if err != nil {
		return "", fmt.Errorf("%w: could not parse the token: %w", core.ErrTokenMalformed, err)
	}

	signatures := msg.Signatures()
	if len(signatures) != 1 {
		return "", fmt.Errorf("%w: expected one signature, got %d", core.ErrTokenMalformed, len(signatures))
	}

	alg := signatures[0].ProtectedHeaders().Algorithm()
	switch alg {
	case "":
		return "", fmt.Errorf("%w: token header has no alg", core.ErrTokenMalformed)
	case jwa.NoSignature:
		return "", fmt.Errorf("%w: unsigned tokens are not supported", core.ErrTokenUnsupported)
	}

	return alg, nil
}

func (v *Validator) verifySignature(tokenString string, alg jwa.SignatureAlgorithm, key any) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no key to verify against", core.ErrSignatureInvalid)
	}

	if v.signatureAlgorithm != "" {
		if err := validateSigningMethod(string(v.signatureAlgorithm), alg.String()); err != nil {
			return nil, fmt.Errorf("%w: signing method is invalid: %w", core.ErrSignatureInvalid, err)
		}
	}

	var opt jws.VerifyOption
	switch k := key.(type) {
	case jwk.Set:
		opt = jws.WithKeySet(k, jws.WithInferAlgorithmFromKey(true), jws.WithUseDefault(true))
	case jwk.Key:
		if keyAlg := k.Algorithm().String(); keyAlg != "" {
			if err := validateSigningMethod(keyAlg, alg.String()); err != nil {
				return nil, fmt.Errorf("%w: signing method is invalid: %w", core.ErrSignatureInvalid, err)
			}
		}
		opt = jws.WithKey(alg, k)
	default:
		opt = jws.WithKey(alg, k)
	}

	payload, err := jws.Verify([]byte(tokenString), opt)
	if err != nil {
		return nil, fmt.Errorf("%w: could not verify the token: %w", core.ErrSignatureInvalid, err)
	}
	return payload, nil
}

func validateSigningMethod(validAlg, tokenAlg string) error {
	if validAlg != tokenAlg {
		return fmt.Errorf("expected %q signing algorithm but token specified %q", validAlg, tokenAlg)
	}
	return nil
}

// decodeClaims unmarshals the verified payload into a jwt.Token. A payload
// that is not a JSON object carries no claims set at all.
func decodeClaims(payload []byte) (jwt.Token, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: payload is not a claims set", core.ErrTokenUnsupported)
	}

	token := jwt.New()
	if err := json.Unmarshal(trimmed, token); err != nil {
		return nil, fmt.Errorf("%w: could not decode token claims: %w", core.ErrTokenMalformed, err)
	}
	return token, nil
}

// validateTimes checks exp first so an expired token is always reported as
// expired, then lets jwx check nbf and iat.
func (v *Validator) validateTimes(token jwt.Token) error {
	now := v.clock()

	if exp := token.Expiration(); !exp.IsZero() && now.Add(-v.allowedClockSkew).After(exp) {
		return fmt.Errorf("%w: token expired at %s", core.ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}

	err := jwt.Validate(token,
		jwt.WithClock(jwt.ClockFunc(v.clock)),
		jwt.WithAcceptableSkew(v.allowedClockSkew),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return fmt.Errorf("%w: %w", core.ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: expected claims not validated: %w", core.ErrTokenMalformed, err)
	}
	return nil
}
