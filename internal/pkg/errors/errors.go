package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrExpired      = errors.New("expired")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	ErrAlreadyVerified = errors.New("email already verified")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
