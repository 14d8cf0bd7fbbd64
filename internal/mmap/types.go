package mmap

import "errors"

// AccessPattern provides hints to the kernel about how the memory will be accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessWillNeed expects data to be accessed in the near future.
	AccessWillNeed
	// AccessDontNeed expects data to not be accessed in the near future.
	// For private anonymous memory the pages read back as zero afterwards.
	AccessDontNeed
)

var (
	// ErrClosed is returned when attempting to access a closed mapping or break.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when a mapping or extension size is invalid.
	ErrInvalidSize = errors.New("mmap: invalid size")
	// ErrBreakExhausted is returned when an extension would pass the reserved range.
	ErrBreakExhausted = errors.New("mmap: break exhausted reserved range")
)
