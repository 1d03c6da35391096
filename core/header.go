package core

import "strings"

const (
	// AuthorizationHeader is the request header carrying the bearer token.
	AuthorizationHeader = "Authorization"

	// BearerPrefix must begin the header value, including the single space.
	BearerPrefix = "Bearer "
)

// ExtractBearerToken validates the raw Authorization header value and returns
// the token that follows the "Bearer " prefix. An absent header is the empty
// string. The prefix match is case-sensitive.
func ExtractBearerToken(header string) (string, error) {
	if err := checkBearerHeader(header); err != nil {
		return "", err
	}
	return strings.TrimPrefix(header, BearerPrefix), nil
}

// extractBearerTokenLegacy removes every occurrence of the prefix from the
// header, not only the leading one. A token containing "Bearer " in its
// body is altered by this.
func extractBearerTokenLegacy(header string) (string, error) {
	if err := checkBearerHeader(header); err != nil {
		return "", err
	}
	return strings.ReplaceAll(header, BearerPrefix, ""), nil
}

func checkBearerHeader(header string) error {
	if header == "" {
		return ErrMissingHeader
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return ErrMalformedHeader
	}
	return nil
}
