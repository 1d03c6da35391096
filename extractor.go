package jwtguard

import (
	"net/http"

	"github.com/jwtdemo/jwtguard/core"
)

// HeaderExtractor returns the raw credential header of a request. An absent
// header is the empty string; the "Bearer " check happens in core.
type HeaderExtractor func(r *http.Request) string

// AuthHeaderExtractor reads the Authorization header.
func AuthHeaderExtractor(r *http.Request) string {
	return r.Header.Get(core.AuthorizationHeader)
}

// NamedHeaderExtractor reads the header called name, for proxies that
// forward credentials under another header.
func NamedHeaderExtractor(name string) HeaderExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(name)
	}
}

// MultiHeaderExtractor returns the first non-empty value produced by
// extractors.
func MultiHeaderExtractor(extractors ...HeaderExtractor) HeaderExtractor {
	return func(r *http.Request) string {
		for _, ex := range extractors {
			if value := ex(r); value != "" {
				return value
			}
		}
		return ""
	}
}
