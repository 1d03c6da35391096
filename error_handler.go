package jwtguard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jwtdemo/jwtguard/core"
)

var (
	// ErrJWTMissing matches errors of kind core.KindMissingHeader.
	ErrJWTMissing = core.ErrJWTMissing

	// ErrJWTInvalid matches every other validation error kind.
	ErrJWTInvalid = core.ErrJWTInvalid
)

const (
	serverErrorCode    = "server_error"
	serverErrorMessage = "Something went wrong while checking the JWT."

	// WWWAuthenticateInvalidToken is the challenge sent with 401 responses.
	WWWAuthenticateInvalidToken = `Bearer error="invalid_token"`
)

// ErrorHandler is called when a request fails validation. err is a
// *core.ValidationError for the six validation kinds, a
// *core.KeyResolutionError when no key could be resolved, or anything the
// pipeline did not anticipate. A custom handler MUST still refuse the
// request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written for a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponseFor returns the status code and body for err. Missing headers
// are 400, other validation kinds 401 and everything else 500. The body only
// ever carries fixed messages.
func ErrorResponseFor(err error) (int, ErrorResponse) {
	var validationErr *core.ValidationError
	if !errors.As(err, &validationErr) {
		return http.StatusInternalServerError, ErrorResponse{Error: serverErrorCode, Message: serverErrorMessage}
	}

	resp := ErrorResponse{Error: validationErr.Kind.String(), Message: validationErr.Message}
	if validationErr.Kind == core.KindMissingHeader {
		return http.StatusBadRequest, resp
	}
	return http.StatusUnauthorized, resp
}

// DefaultErrorHandler writes the ErrorResponseFor err as JSON.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status, resp := ErrorResponseFor(err)

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", WWWAuthenticateInvalidToken)
	}
	w.WriteHeader(status)

	body, _ := json.Marshal(resp)
	_, _ = w.Write(body)
}
