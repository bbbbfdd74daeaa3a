package memory

import "errors"

// Allocator error taxonomy. OutOfMemory is deliberately distinct from other
// device failures so callers can react to exhaustion specifically.
var (
	ErrOutOfMemory     = errors.New("out of memory")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDevice          = errors.New("device error")
	ErrIO              = errors.New("i/o error")
)
