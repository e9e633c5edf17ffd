package security

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Reason identifies the category of an authentication failure.
type Reason string

const (
	ReasonInvalidHeader      Reason = "invalid_header"
	ReasonNoAuthorization    Reason = "no_authorization"
	ReasonInvalidToken       Reason = "invalid_token"
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonInvalidAPIKey      Reason = "invalid_apikey"
	ReasonRemoteRejected     Reason = "remote_token_rejected"
	ReasonInsufficientScope  Reason = "insufficient_scope"
)

// AuthError is a typed authentication or authorization failure. It carries
// the HTTP status the failure maps to and, depending on the reason, the raw
// remote introspection response or the scope sets involved.
type AuthError struct {
	Status int
	Reason Reason
	Detail string

	// Response holds the raw body returned by a remote token-info endpoint
	// when it rejected the token. Diagnostic only.
	Response []byte

	// Required and Granted are populated for insufficient_scope failures.
	Required []string
	Granted  []string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error { return e.Err }

// AsAuthError extracts an *AuthError from an error chain.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func errInvalidHeader() *AuthError {
	return &AuthError{
		Status: http.StatusBadRequest,
		Reason: ReasonInvalidHeader,
		Detail: "Invalid authorization header",
	}
}

func errNoAuthorization() *AuthError {
	return &AuthError{
		Status: http.StatusUnauthorized,
		Reason: ReasonNoAuthorization,
		Detail: "No authorization token provided",
	}
}

func errInvalidToken(cause error) *AuthError {
	return &AuthError{
		Status: http.StatusUnauthorized,
		Reason: ReasonInvalidToken,
		Detail: "Provided token is not valid",
		Err:    cause,
	}
}

func errInvalidCredentials(cause error) *AuthError {
	return &AuthError{
		Status: http.StatusUnauthorized,
		Reason: ReasonInvalidCredentials,
		Detail: "Provided authorization is not valid",
		Err:    cause,
	}
}

func errInvalidAPIKey(cause error) *AuthError {
	return &AuthError{
		Status: http.StatusUnauthorized,
		Reason: ReasonInvalidAPIKey,
		Detail: "Provided apikey is not valid",
		Err:    cause,
	}
}

func errRemoteRejected(status int, body []byte) *AuthError {
	return &AuthError{
		Status:   http.StatusUnauthorized,
		Reason:   ReasonRemoteRejected,
		Detail:   fmt.Sprintf("Token-info endpoint rejected the token (status %d)", status),
		Response: body,
	}
}

func errInsufficientScope(required, granted []string) *AuthError {
	return &AuthError{
		Status: http.StatusForbidden,
		Reason: ReasonInsufficientScope,
		Detail: fmt.Sprintf("Provided token doesn't have the required scope (required: %s)",
			strings.Join(required, " ")),
		Required: required,
		Granted:  granted,
	}
}

// ErrNotApplicable may be returned by a verification function to signal that
// the presented credential is not one it handles, letting later schemes run.
// Distinct from returning a nil TokenInfo, which means the credential was
// recognized and rejected.
var ErrNotApplicable = errors.New("credential not applicable to this scheme")

// ErrConfiguration marks security definitions that cannot be resolved to a
// verification function. It is raised while routes are being registered,
// never while a request is in flight.
var ErrConfiguration = errors.New("invalid security configuration")
