package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned for malformed or missing input (400).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// AuthenticationError is returned for bad credentials or a missing/invalid token (401).
type AuthenticationError struct {
	msg string
}

func NewAuthenticationError(msg string) error {
	return &AuthenticationError{msg}
}

func (err *AuthenticationError) Error() string { return err.msg }

// AuthorizationError is returned when the caller is known but not allowed to act (403):
// wrong role, not a party to the resource, profile not approved, account blocked or parent control.
type AuthorizationError struct {
	msg string
}

func NewAuthorizationError(msg string) error {
	return &AuthorizationError{msg}
}

func (err *AuthorizationError) Error() string { return err.msg }

// NotFoundError is returned when the referenced entity is absent (404).
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{msg}
}

func (err *NotFoundError) Error() string { return err.msg }

// ConflictError is returned for duplicates and for transitions from an invalid source state (409).
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) error {
	return &ConflictError{msg}
}

func (err *ConflictError) Error() string { return err.msg }

// ErrProfileNotApproved is returned when a student or teacher acts before an admin approved their profile.
var ErrProfileNotApproved = NewAuthorizationError("profile not approved")

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func IsAuthorization(err error) bool {
	_, ok := errors.Cause(err).(*AuthorizationError)
	return ok
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
