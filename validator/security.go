package validator

import (
	"fmt"
	"strings"

	"github.com/jwtdemo/jwtguard/core"
)

// maxTokenSize bounds the tokens handed to the JOSE parser. Bearer tokens
// are a few KB at most.
const maxTokenSize = 1 << 20

// validateTokenFormat rejects strings that cannot be a compact JWS before any
// decoding happens: oversized input and anything other than three
// dot-separated segments.
func validateTokenFormat(tokenString string) error {
	if len(tokenString) > maxTokenSize {
		return fmt.Errorf("%w: token exceeds maximum size (%d bytes)", core.ErrTokenMalformed, maxTokenSize)
	}
	if strings.Count(tokenString, ".") != 2 {
		return fmt.Errorf("%w: compact JWS format must have three parts", core.ErrTokenMalformed)
	}
	return nil
}
