/*
Package validator verifies the signature and claims of compact JWS bearer
tokens using github.com/lestrrat-go/jwx/v2.

A Validator implements core.Verifier. It is given the key material resolved
by a core.KeyResolver and reports failures by wrapping the core condition
errors, which core.Classify turns into a *core.ValidationError:

	v, err := validator.New(
	    validator.WithAlgorithm(validator.RS256),
	    validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := v.VerifyToken(ctx, token, publicKey)

Checks run in a fixed order and only the first failure is reported:

 1. the token must be three dot-separated base64url segments with a JOSE
    header (core.ErrTokenMalformed); an empty token is core.ErrTokenEmpty
 2. "alg": "none" is rejected (core.ErrTokenUnsupported)
 3. the signature must verify with the key, using the pinned algorithm or the
    key's own "alg" when set (core.ErrSignatureInvalid)
 4. the payload must be a JSON claims set (core.ErrTokenUnsupported)
 5. "exp" must not be in the past (core.ErrTokenExpired)
 6. "nbf" and "iat" must not be in the future (core.ErrTokenMalformed)
 7. the claims set must not be empty (core.ErrTokenUnsupported)

Issuer and audience are not checked: this package answers only whether the
token is authentic and current.
*/
package validator
