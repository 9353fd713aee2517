package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports the first failing rule of a form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// APIError is a failure answered by the backend. Message is the first
// structured error message of the response body and may be empty.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

// Is matches ErrAPI.
func (e *APIError) Is(target error) bool { return target == ErrAPI }

// AuthError is raised before any request when the session token is unusable.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Reason }

// Is matches ErrUnauthorized.
func (e *AuthError) Is(target error) bool { return target == ErrUnauthorized }

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

// Is matches ErrNetwork.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *NetworkError) Unwrap() error { return e.Err }

// UserMessage reduces err to the single string shown to the user:
// the validation message, the server-provided message, or fallback.
func UserMessage(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
