package column

import "errors"

// Sentinel errors for the copy/fill engine. Callers match with errors.Is;
// call sites wrap them with context via pkg/errors.
var (
	// ErrInvalidColumn marks a structurally malformed column, e.g. a nil
	// data buffer with a nonzero size.
	ErrInvalidColumn = errors.New("invalid column")

	// ErrTypeMismatch marks operands whose type tags disagree.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrRange marks a source or destination range outside [0, size).
	ErrRange = errors.New("range out of bounds")

	// ErrUnknownType marks an unrecognized physical type tag at dispatch.
	ErrUnknownType = errors.New("unknown data type")

	// ErrReconcile marks a failed dictionary synchronization between two
	// category-encoded columns.
	ErrReconcile = errors.New("dictionary reconciliation failed")
)
