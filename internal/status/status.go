package status

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound     = errors.New("resource: not found")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrConflict     = errors.New("resource: conflict")

	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInactiveUser       = errors.New("auth: account is disabled")
	ErrSessionRevoked     = errors.New("session: revoked or expired")
)

// Conflict errors. Every one of them matches ErrConflict with errors.Is.
var (
	ErrSlugTaken         = conflict("slug is already in use")
	ErrEmailTaken        = conflict("email is already registered")
	ErrAlreadySubscribed = conflict("email is already subscribed")
	ErrInvalidTransition = conflict("status transition is not allowed")
	ErrEventFull         = conflict("event is full")
	ErrLastAdmin         = conflict("at least one active admin is required")
	ErrSelfDelete        = conflict("you cannot delete your own account")
	ErrInUse             = conflict("resource is still referenced")
)

type conflictError struct {
	msg string
}

func conflict(msg string) error {
	return &conflictError{msg: msg}
}

func (e *conflictError) Error() string { return e.msg }

func (e *conflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError carries field level messages.
type ValidationError struct {
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	return e.Errors.Error()
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) error {
	return &ValidationError{Errors: validation.Errors{
		field: validation.NewError("validation_invalid_value", message),
	}}
}

// Validation converts the result of an ozzo validation into a ValidationError.
// Internal validator errors are returned unchanged.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		return &ValidationError{Errors: errs}
	}
	var single validation.Error
	if errors.As(err, &single) {
		return &ValidationError{Errors: validation.Errors{"value": single}}
	}
	return err
}
