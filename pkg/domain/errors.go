package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error surfaced by the data layer matches exactly one of
// these through errors.Is.
var (
	// ErrNetwork is returned when the remote side could not be reached.
	ErrNetwork = errors.New("network error")
	// ErrGateway is returned when the remote side answered with a failure.
	ErrGateway = errors.New("gateway error")
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAuthExpired is returned when the session token was rejected.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrVerificationFailed wraps gateway failures during reconciliation.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrUnauthorized is returned when credentials are wrong or the account
	// may not sign in.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a user is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
)

// Error carries a kind plus the user-facing details of a failure.
type Error struct {
	Kind    error
	Message string
	Status  int
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewNetworkError reports a transport failure or timeout.
func NewNetworkError(err error) *Error {
	return &Error{Kind: ErrNetwork, Message: "network error", Err: err}
}

// NewGatewayError reports a non-2xx answer from a remote service.
func NewGatewayError(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: ErrGateway, Message: message, Status: status}
}

// NewAuthExpiredError reports a 401 from a remote service.
func NewAuthExpiredError(message string) *Error {
	if message == "" {
		message = "session expired, please log in again"
	}
	return &Error{Kind: ErrAuthExpired, Message: message, Status: http.StatusUnauthorized}
}

// NewValidationError reports per-field input problems.
func NewValidationError(fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: "validation failed", Fields: fields}
}

// NewNotFoundError reports a missing entity by id or reference.
func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("%s %q not found", entity, id),
		Status:  http.StatusNotFound,
	}
}

// Message returns the user-facing message of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return err.Error()
}

// FieldErrors returns the per-field map of a validation error, if any.
func FieldErrors(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
