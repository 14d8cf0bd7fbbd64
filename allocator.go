package bumparena

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/bumparena/internal/align"
)

// MaxAlign is the largest alignment a request may ask for.
const MaxAlign = 4096

// Allocator is the allocation-request protocol shared by every arena and
// adapter.
//
// Allocate returns a region of exactly size bytes whose address is a multiple
// of alignment, or an error matching ErrCapacityExhausted, ErrReservationFailed,
// ErrInvalidRequest or ErrClosed. Deallocate must be passed the same region
// and alignment; arenas never reuse released memory.
type Allocator interface {
	Allocate(size, alignment uintptr) (Region, error)
	Deallocate(r Region, alignment uintptr)
}

// Extender is a heap-extension facility in the style of sbrk(2).
//
// Extend commits delta more bytes and returns the address of the previous
// break. Successive extensions must be contiguous: each one starts where the
// last one ended. A Heap refuses an extension that breaks this contract.
type Extender interface {
	Extend(delta int) (unsafe.Pointer, error)
}

// Region is an allocated range of arena memory.
//
// There is no handle besides the address: a region is valid until its arena
// is reset or closed, and must be passed back unchanged on release.
type Region struct {
	ptr  unsafe.Pointer
	size uintptr
}

// Pointer returns the start of the region. It is never nil for a region
// returned without error, including zero-size regions.
func (r Region) Pointer() unsafe.Pointer { return r.ptr }

// Addr returns the start address of the region.
func (r Region) Addr() uintptr { return uintptr(r.ptr) }

// Len returns the size of the region in bytes.
func (r Region) Len() int { return int(r.size) }

// End returns the address one past the last byte of the region.
func (r Region) End() uintptr { return uintptr(r.ptr) + r.size }

// IsNil reports whether r is the zero Region.
func (r Region) IsNil() bool { return r.ptr == nil }

// Bytes returns the region as a byte slice. The slice aliases arena memory
// and is valid only as long as the region is.
func (r Region) Bytes() []byte {
	if r.ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(r.ptr), r.size)
}

func (r Region) String() string {
	return fmt.Sprintf("{addr: %#x len: %d}", r.Addr(), r.size)
}

// Stats is a snapshot of an arena's bump state.
type Stats struct {
	Capacity    uintptr // bytes usable from the base
	Offset      uintptr // bytes committed, including alignment padding
	Allocs      uint64  // successful allocations, zero-size ones included
	Failed      uint64  // refused allocations
	Grows       uint64  // growth steps taken
	BytesWasted uint64  // alignment padding
}

// Available returns the bytes left before the next growth step (or failure).
func (s Stats) Available() uintptr {
	return s.Capacity - s.Offset
}

func validateRequest(size, alignment uintptr) error {
	if !align.IsPowerOfTwo(alignment) || alignment > MaxAlign {
		return fmt.Errorf("%w: alignment %d is not a power of two up to %d", ErrInvalidRequest, alignment, MaxAlign)
	}
	if _, ok := align.Add(size, alignment); !ok {
		return fmt.Errorf("%w: size %d overflows", ErrInvalidRequest, size)
	}
	return nil
}

// bump computes where a request lands in a region starting at base with
// offset bytes committed. The start is aligned on the absolute address so
// that bases with weaker alignment than the request still yield aligned
// pointers.
func bump(base unsafe.Pointer, offset, size, alignment uintptr) (start, end uintptr, ok bool) {
	addr, ok := align.Add(uintptr(base), offset)
	if !ok {
		return 0, 0, false
	}
	aligned, ok := align.Up(addr, alignment)
	if !ok {
		return 0, 0, false
	}
	start = aligned - uintptr(base)
	end, ok = align.Add(start, size)
	return start, end, ok
}

// zeroSized backs zero-size regions. They are never dereferenced and consume
// no arena memory, but still carry a non-nil, suitably aligned address.
var zeroSized [2 * MaxAlign]byte

func zeroSizedRegion(alignment uintptr) Region {
	base := unsafe.Pointer(&zeroSized[0])
	pad := align.Padding(uintptr(base), alignment)
	return Region{ptr: unsafe.Add(base, pad)}
}
