package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotMember         = fmt.Errorf("%w: not a workspace member", ErrForbidden)
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrConflict          = errors.New("conflict")
	ErrTransient         = errors.New("transient storage failure")
)

// ErrAccessDenied is the only message callers outside the engine ever
// see for NotFound, Forbidden and NotMember.
var ErrAccessDenied = errors.New("not found or access denied")

func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

func IsAccessError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
