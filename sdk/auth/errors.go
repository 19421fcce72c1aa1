package auth

import (
	"errors"
	"fmt"
)

// Error codes for the credential lifecycle.
const (
	// CodeUnauthenticated: no profile is bound to the authorizer.
	CodeUnauthenticated = "unauthenticated"
	// CodeRemoteAuthFailure: a provider endpoint answered non-2xx or could
	// not be reached.
	CodeRemoteAuthFailure = "remote_auth_failure"
	// CodeMalformedResponse: a provider response lacked an expected part
	// (location header, hidden form fields, access token, endpoints).
	CodeMalformedResponse = "malformed_provider_response"
)

// Flow steps reported by authorization errors.
const (
	StepLogin         = "login"
	StepCodeExchange  = "code exchange"
	StepTokenExchange = "token exchange"
	StepDiscovery     = "discovery"
	StepSessionToken  = "session token"
	StepAuthorization = "authorization"
)

// Error is the authorization error type. Step names the flow step that
// failed and Status carries the provider's HTTP status when one was
// received, so a caller can reconstruct the failing request without
// re-running the flow.
type Error struct {
	Code    string
	Step    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Step != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s failed with status %d: %s", e.Code, e.Step, e.Status, msg)
	case e.Step != "":
		return fmt.Sprintf("%s: %s failed: %s", e.Code, e.Step, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnauthenticated reports whether err is an unauthenticated Error.
func IsUnauthenticated(err error) bool {
	return hasCode(err, CodeUnauthenticated)
}

// IsRemoteFailure reports whether err is a remote authentication Error.
func IsRemoteFailure(err error) bool {
	return hasCode(err, CodeRemoteAuthFailure)
}

// IsMalformedResponse reports whether err is a malformed provider response
// Error.
func IsMalformedResponse(err error) bool {
	return hasCode(err, CodeMalformedResponse)
}

func hasCode(err error, code string) bool {
	var authErr *Error
	return errors.As(err, &authErr) && authErr.Code == code
}
