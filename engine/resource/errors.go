package resource

import "errors"

var (
	// ErrInvalidSchema is returned when a schema tree cannot be rooted.
	ErrInvalidSchema = errors.New("invalid resource schema")
	// ErrUnknownResource is returned when a path names no schema.
	ErrUnknownResource = errors.New("unknown resource")
	// ErrNotLoaded is returned when the addressed state has not been fetched.
	ErrNotLoaded = errors.New("resource not loaded")
)
