package errs

import "errors"

// ValidationError indicates a malformed request: bad lecture id, missing or
// expired join token, unparseable payload.
type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) error { return &ValidationError{Msg: msg} }

func (e *ValidationError) Error() string { return e.Msg }

// AuthorizationError indicates the caller is not allowed to perform the
// action: non-enrolled student checking in, non-instructor opening a session.
type AuthorizationError struct {
	Msg string
}

func NewAuthorizationError(msg string) error { return &AuthorizationError{Msg: msg} }

func (e *AuthorizationError) Error() string { return e.Msg }

// NotFoundError indicates a missing lecture or session.
type NotFoundError struct {
	Msg string
}

func NewNotFoundError(msg string) error { return &NotFoundError{Msg: msg} }

func (e *NotFoundError) Error() string { return e.Msg }

// ConflictError surfaces a storage-level uniqueness rejection for the loser
// of a concurrent write race.
type ConflictError struct {
	Msg string
}

func NewConflictError(msg string) error { return &ConflictError{Msg: msg} }

func (e *ConflictError) Error() string { return e.Msg }

// TransientError wraps a backend or network failure. Callers must not
// auto-retry check-ins on it; the user re-initiates.
type TransientError struct {
	Msg string
	Err error
}

func NewTransientError(msg string, err error) error { return &TransientError{Msg: msg, Err: err} }

func (e *TransientError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *TransientError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuthorization(err error) bool {
	var a *AuthorizationError
	return errors.As(err, &a)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
