package bumparena

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExhausted is returned when a request does not fit into the
	// arena's current capacity (after a growth attempt, for growable arenas).
	// It is always recoverable: the caller decides whether to fall back,
	// recreate the arena or abort.
	ErrCapacityExhausted = errors.New("capacity exhausted")

	// ErrReservationFailed is returned when the environment refuses initial or
	// additional backing memory.
	ErrReservationFailed = errors.New("reservation failed")

	// ErrInvalidRequest is returned for an alignment that is not a power of two
	// (or exceeds MaxAlign) and for sizes whose arithmetic would overflow.
	ErrInvalidRequest = errors.New("invalid allocation request")

	// ErrBorrowedClone is returned when cloning an arena over borrowed memory.
	// A clone would alias the live allocations of the original.
	ErrBorrowedClone = errors.New("cannot clone an arena over borrowed memory")

	// ErrClosed is returned when allocating from a closed arena.
	ErrClosed = errors.New("arena is closed")

	// ErrGlobalInitialized is returned when configuring the process-wide
	// authority after it served its first request.
	ErrGlobalInitialized = errors.New("global authority already initialized")
)

// AllocError describes a failed arena operation.
//
// It matches its kind (one of the sentinel errors above) with errors.Is, and
// the environment's underlying error (if any) can be reached via errors.Unwrap.
type AllocError struct {
	Op       string
	Size     uintptr
	Align    uintptr
	Offset   uintptr
	Capacity uintptr
	Kind     error
	cause    error
}

func (e *AllocError) Error() string {
	msg := fmt.Sprintf("%s: %v (size=%d align=%d offset=%d capacity=%d)",
		e.Op, e.Kind, e.Size, e.Align, e.Offset, e.Capacity)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *AllocError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.cause}
}
