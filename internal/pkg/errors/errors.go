package errors

import "errors"

var (
	// ErrNotFound is returned when a program, session, or log row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for empty names, empty messages, or malformed ids.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable marks an external dependency (model, vector store) that is not configured or not reachable.
	ErrUnavailable = errors.New("unavailable")
)
