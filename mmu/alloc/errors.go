package alloc

import "errors"

var (
	// ErrInvalidSize indicates a request for zero or negative memory.
	ErrInvalidSize = errors.New("alloc: requested size must be positive")

	// ErrOutOfMemory indicates that no free range is large enough for the request.
	ErrOutOfMemory = errors.New("alloc: not enough memory")

	// ErrProcessNotFound indicates an identifier that does not name a live allocation.
	ErrProcessNotFound = errors.New("alloc: process not found")

	// ErrAddressOutOfRange indicates a virtual address outside [0, size) of its process.
	ErrAddressOutOfRange = errors.New("alloc: virtual address outside process address space")

	// ErrInvalidConfig indicates a non-positive total size or an unknown strategy.
	ErrInvalidConfig = errors.New("alloc: invalid configuration")
)
