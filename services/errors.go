package services

import "errors"

var (
	// ErrInvalidInput means the request is malformed, e.g. a gift with no
	// recipients or an unknown account id in an acceptance batch.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotAuthorized means the actor has no rights over the target
	// account, gift or group.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrExpired means the invitation is past its validity.
	ErrExpired = errors.New("invitation expired")
)
