package thunk

import "errors"

var (
	// ErrUnsupported is returned when a schema does not declare the capability a thunk needs.
	ErrUnsupported = errors.New("operation not supported by resource")
	// ErrPaginationDrift is returned when a bounded fetch-all keeps observing a changing collection.
	ErrPaginationDrift = errors.New("collection changed during pagination")
	// ErrAlreadyPolling is returned by Until when the item is already being polled.
	ErrAlreadyPolling = errors.New("item is already being polled")

	errDrift = errors.New("pagination drift")
)
