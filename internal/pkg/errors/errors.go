package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPersistence marks a failed store write on the request-fatal path.
	ErrPersistence = errors.New("persistence error")
	// ErrUnavailable marks a dependency that is down or not configured.
	ErrUnavailable = errors.New("service unavailable")
)
