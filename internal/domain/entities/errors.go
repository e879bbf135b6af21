package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password, so login failures never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid covers every refresh/access token problem: malformed,
	// expired or tampered. Callers see a single session-expired condition.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidProviderToken is the single failure for third-party login:
	// provider rejection, network errors and malformed profiles all collapse
	// into it.
	ErrInvalidProviderToken = errors.New("invalid provider token")

	// ErrInvalidEmail means the submitted email does not belong to the
	// requesting user's address set.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrCodeExpired means no cached verification code exists, either because
	// the TTL elapsed or because none was ever issued.
	ErrCodeExpired = errors.New("verification code expired")

	// ErrCodeMismatch means a cached code exists but does not equal the
	// submitted one. The cached code stays valid for further attempts.
	ErrCodeMismatch = errors.New("verification code mismatch")

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries field-keyed messages for malformed or conflicting
// input. It is surfaced to the caller as a 400 with one message per field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, message := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
