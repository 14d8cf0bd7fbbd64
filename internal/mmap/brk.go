package mmap

import (
	"fmt"
	"sync"
	"unsafe"
)

// DefaultReserve is the virtual address range a Break reserves (1 GiB).
const DefaultReserve = 1 << 30

// Break is a process-heap style program break.
//
// On first use it reserves a contiguous range of inaccessible virtual memory.
// Extend commits the next delta bytes of that range read-write and returns the
// previous break, so every extension starts exactly where the last one ended.
// Committed memory is never decommitted until Close.
type Break struct {
	mu       sync.Mutex
	limit    int
	pageSize int
	reserved []byte
	brk      int
	release  func([]byte) error
	closed   bool
}

// NewBreak creates a Break that may grow up to limit bytes in pageSize steps.
// No memory is reserved until the first Extend.
func NewBreak(limit, pageSize int) *Break {
	if pageSize <= 0 {
		pageSize = PageSize()
	}
	if limit <= 0 {
		limit = DefaultReserve
	}
	// Round limit down to whole pages.
	limit -= limit % pageSize
	return &Break{
		limit:    limit,
		pageSize: pageSize,
	}
}

// Extend commits delta more bytes and returns the address of the previous
// break. delta must be a positive multiple of the page size.
func (b *Break) Extend(delta int) (unsafe.Pointer, error) {
	if delta <= 0 || delta%b.pageSize != 0 {
		return nil, fmt.Errorf("%w: extension of %d bytes is not a multiple of page size %d", ErrInvalidSize, delta, b.pageSize)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if delta > b.limit-b.brk {
		return nil, fmt.Errorf("%w: brk=%d delta=%d limit=%d", ErrBreakExhausted, b.brk, delta, b.limit)
	}

	if b.reserved == nil {
		data, release, err := osReserve(b.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve %d bytes of address space: %w", b.limit, err)
		}
		b.reserved = data
		b.release = release
	}

	ext := b.reserved[b.brk : b.brk+delta]
	if err := osCommit(ext); err != nil {
		return nil, fmt.Errorf("failed to commit %d bytes at break %d: %w", delta, b.brk, err)
	}
	_ = osAdvise(ext, AccessWillNeed)

	prev := unsafe.Pointer(&ext[0]) //nolint:gosec // off-heap memory owned by the break
	b.brk += delta
	return prev, nil
}

// Committed returns the number of bytes committed so far.
func (b *Break) Committed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.brk
}

// Limit returns the size of the reservable range.
func (b *Break) Limit() int {
	return b.limit
}

// PageSize returns the extension granularity.
func (b *Break) PageSize() int {
	return b.pageSize
}

// Close releases the whole reserved range. It is idempotent.
func (b *Break) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.reserved == nil {
		return nil
	}
	err := b.release(b.reserved)
	b.reserved = nil
	return err
}
