package bumparena

import (
	"fmt"
	"unsafe"
)

// Scoped adapts an arena to the allocation protocol of a single container or
// subsystem. It borrows the arena: closing or resetting the arena invalidates
// everything the adapter handed out.
//
// Resizing never reuses the old region, even when the arena has committed
// slack behind it, because arenas keep no per-allocation metadata. The
// container relocates its contents; GrowSlice does so for slices.
type Scoped struct {
	arena  Allocator
	logger *Logger
}

// NewScoped wraps a.
func NewScoped(a Allocator, opts ...Option) *Scoped {
	o := applyOptions(opts)
	return &Scoped{
		arena:  a,
		logger: o.logger.WithArena("scoped"),
	}
}

// Allocate forwards to the arena.
func (s *Scoped) Allocate(size, alignment uintptr) (Region, error) {
	return s.arena.Allocate(size, alignment)
}

// Deallocate forwards to the arena.
func (s *Scoped) Deallocate(r Region, alignment uintptr) {
	s.arena.Deallocate(r, alignment)
}

// Grow returns a fresh region of newSize bytes for a live region old.
// Nothing is copied and old stays live until the caller deallocates it.
// newSize must not be smaller than old.
func (s *Scoped) Grow(old Region, newSize, alignment uintptr) (Region, error) {
	if newSize < old.size {
		return Region{}, fmt.Errorf("%w: grow from %d to %d bytes", ErrInvalidRequest, old.size, newSize)
	}
	return s.resize(old, newSize, alignment)
}

// Shrink returns a fresh region of newSize bytes for a live region old.
// Nothing is copied and old stays live until the caller deallocates it.
// newSize must not be larger than old.
func (s *Scoped) Shrink(old Region, newSize, alignment uintptr) (Region, error) {
	if newSize > old.size {
		return Region{}, fmt.Errorf("%w: shrink from %d to %d bytes", ErrInvalidRequest, old.size, newSize)
	}
	return s.resize(old, newSize, alignment)
}

func (s *Scoped) resize(old Region, newSize, alignment uintptr) (Region, error) {
	r, err := s.arena.Allocate(newSize, alignment)
	if err != nil {
		return Region{}, err
	}
	s.logger.Debug("resized",
		"from", old.size,
		"to", newSize,
		"addr", r.Addr(),
	)
	return r, nil
}

// Allocator returns the wrapped arena.
func (s *Scoped) Allocator() Allocator { return s.arena }

// New allocates a zeroed T from a.
//
// T must not contain Go pointers: arena memory is invisible to the garbage
// collector, so anything referenced only from the arena may be freed.
func New[T any](a Allocator) (*T, error) {
	var zero T
	r, err := a.Allocate(unsafe.Sizeof(zero), unsafe.Alignof(zero))
	if err != nil {
		return nil, err
	}
	p := (*T)(r.ptr)
	*p = zero
	return p, nil
}

// MakeSlice allocates a zeroed slice of n elements from a.
// T must not contain Go pointers.
func MakeSlice[T any](a Allocator, n int) ([]T, error) {
	size, err := sliceSize[T](n)
	if err != nil {
		return nil, err
	}
	var zero T
	r, err := a.Allocate(size, unsafe.Alignof(zero))
	if err != nil {
		return nil, err
	}
	out := unsafe.Slice((*T)(r.ptr), n)
	clear(out)
	return out, nil
}

// GrowSlice moves old into a fresh region of n elements and returns it.
// The elements past len(old) are zeroed. old is deallocated; its bytes stay
// readable until the arena is reset, but it is no longer the container's
// storage.
func GrowSlice[T any](s *Scoped, old []T, n int) ([]T, error) {
	if n < len(old) {
		return nil, fmt.Errorf("%w: grow slice from %d to %d elements", ErrInvalidRequest, len(old), n)
	}
	size, err := sliceSize[T](n)
	if err != nil {
		return nil, err
	}

	var zero T
	prev := Region{
		ptr:  unsafe.Pointer(unsafe.SliceData(old)),
		size: uintptr(len(old)) * unsafe.Sizeof(zero),
	}
	r, err := s.Grow(prev, size, unsafe.Alignof(zero))
	if err != nil {
		return nil, err
	}

	out := unsafe.Slice((*T)(r.ptr), n)
	copied := copy(out, old)
	clear(out[copied:])
	s.Deallocate(prev, unsafe.Alignof(zero))
	return out, nil
}

func sliceSize[T any](n int) (uintptr, error) {
	var zero T
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrInvalidRequest, n)
	}
	elem := unsafe.Sizeof(zero)
	if elem != 0 && uintptr(n) > ^uintptr(0)/elem {
		return 0, fmt.Errorf("%w: %d elements of %d bytes overflow", ErrInvalidRequest, n, elem)
	}
	return uintptr(n) * elem, nil
}
