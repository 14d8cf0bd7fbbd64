package bumparena

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/bumparena/internal/conv"
	"github.com/hupe1980/bumparena/internal/mmap"
	"github.com/hupe1980/bumparena/internal/resource"
)

// backing is the memory behind a Fixed arena: either owned (reserved by the
// arena and released with it) or borrowed (supplied by the caller and never
// released by the arena).
type backing interface {
	base() unsafe.Pointer
	size() uintptr
	owned() bool
	reset()
	release() error
}

type ownedMemory struct {
	mapping *mmap.Mapping
	ctrl    *resource.Controller
}

func (m *ownedMemory) base() unsafe.Pointer {
	data := m.mapping.Bytes()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

func (m *ownedMemory) size() uintptr { return uintptr(m.mapping.Size()) }

func (m *ownedMemory) owned() bool { return true }

// reset hands the physical pages back to the OS; they read as zero on next touch.
func (m *ownedMemory) reset() { _ = m.mapping.Advise(mmap.AccessDontNeed) }

func (m *ownedMemory) release() error {
	err := m.mapping.Close()
	m.ctrl.ReleaseMemory(int64(m.mapping.Size()))
	return err
}

type borrowedMemory struct {
	buf []byte
}

func (m *borrowedMemory) base() unsafe.Pointer {
	if len(m.buf) == 0 {
		return nil
	}
	return unsafe.Pointer(&m.buf[0])
}

func (m *borrowedMemory) size() uintptr { return uintptr(len(m.buf)) }

func (m *borrowedMemory) owned() bool { return false }

func (m *borrowedMemory) reset() {}

func (m *borrowedMemory) release() error {
	m.buf = nil
	return nil
}

// Fixed is a bump arena over one contiguous region of fixed capacity.
//
// Allocation rounds the offset up to the requested alignment and advances it
// by the requested size; nothing else. The arena never grows.
//
// Individual releases are not supported: Deallocate does nothing and memory is
// never reused. The only ways to reclaim are Reset and Close.
//
// A Fixed arena has a single owner and does no locking. Callers sharing one
// must serialize access themselves (NewAuthority does this).
type Fixed struct {
	mem      backing
	ptr      unsafe.Pointer
	capacity uintptr
	offset   uintptr
	closed   bool

	allocs uint64
	failed uint64
	wasted uint64

	opts   options
	logger *Logger
}

// NewFixed creates an arena owning capacity bytes of freshly reserved,
// zero-filled memory outside the Go heap.
//
// A reservation failure is returned as ErrReservationFailed; callers should
// treat it as fatal.
func NewFixed(capacity int, opts ...Option) (*Fixed, error) {
	o := applyOptions(opts)
	logger := o.logger.WithArena("fixed")

	if capacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity %d", ErrInvalidRequest, capacity)
	}

	mem, err := reserve(capacity, o.controller())
	o.metricsCollector.RecordReserve(capacity, err)
	logger.LogReserve(capacity, err)
	if err != nil {
		return nil, err
	}

	return newFixed(mem, o, logger), nil
}

func reserve(capacity int, ctrl *resource.Controller) (*ownedMemory, error) {
	size, err := conv.IntToUintptr(capacity)
	if err != nil {
		return nil, &AllocError{Op: "reserve", Kind: ErrInvalidRequest, cause: err}
	}
	if err := ctrl.AcquireMemory(int64(capacity)); err != nil {
		return nil, &AllocError{Op: "reserve", Size: size, Kind: ErrReservationFailed, cause: err}
	}

	mapping, err := mmap.MapAnon(capacity)
	if err != nil {
		ctrl.ReleaseMemory(int64(capacity))
		return nil, &AllocError{Op: "reserve", Size: size, Kind: ErrReservationFailed, cause: err}
	}

	return &ownedMemory{mapping: mapping, ctrl: ctrl}, nil
}

// NewFixedFrom creates an arena over caller-supplied memory. It never fails,
// and the arena never releases buf.
//
// buf must not hold Go pointers that the caller relies on; the arena hands its
// bytes out for reuse.
func NewFixedFrom(buf []byte, opts ...Option) *Fixed {
	o := applyOptions(opts)
	return newFixed(&borrowedMemory{buf: buf}, o, o.logger.WithArena("fixed"))
}

func newFixed(mem backing, o options, logger *Logger) *Fixed {
	return &Fixed{
		mem:      mem,
		ptr:      mem.base(),
		capacity: mem.size(),
		opts:     o,
		logger:   logger,
	}
}

// Allocate serves a request by bumping the offset.
//
// If the aligned request does not fit, it returns ErrCapacityExhausted and the
// offset is left unchanged. Zero-size requests consume nothing and return a
// non-nil aligned pointer that must not be dereferenced.
func (f *Fixed) Allocate(size, alignment uintptr) (Region, error) {
	r, err := f.allocate(size, alignment)
	f.opts.metricsCollector.RecordAlloc(size, err)
	return r, err
}

func (f *Fixed) allocate(size, alignment uintptr) (Region, error) {
	if f.closed {
		return Region{}, f.fail(size, alignment, ErrClosed, nil)
	}
	if err := validateRequest(size, alignment); err != nil {
		return Region{}, f.fail(size, alignment, ErrInvalidRequest, err)
	}
	if size == 0 {
		f.allocs++
		return zeroSizedRegion(alignment), nil
	}

	start, end, ok := bump(f.ptr, f.offset, size, alignment)
	if !ok {
		return Region{}, f.fail(size, alignment, ErrInvalidRequest, nil)
	}
	if end > f.capacity {
		f.logger.LogExhausted(size, alignment, f.offset, f.capacity)
		return Region{}, f.fail(size, alignment, ErrCapacityExhausted, nil)
	}

	f.wasted += uint64(start - f.offset)
	f.offset = end
	f.allocs++
	return Region{ptr: unsafe.Add(f.ptr, start), size: size}, nil
}

func (f *Fixed) fail(size, alignment uintptr, kind, cause error) error {
	f.failed++
	return &AllocError{
		Op:       "allocate",
		Size:     size,
		Align:    alignment,
		Offset:   f.offset,
		Capacity: f.capacity,
		Kind:     kind,
		cause:    cause,
	}
}

// Deallocate does nothing. Released memory is never reused; reclaim the whole
// arena with Reset or Close instead.
func (f *Fixed) Deallocate(r Region, alignment uintptr) {
	f.opts.metricsCollector.RecordDealloc(r.size)
}

// Clone returns an independent arena of the same capacity with nothing
// allocated. It is a fresh arena, not a snapshot: no contents are copied.
//
// Arenas over borrowed memory cannot be cloned, because the clone would hand
// out the original's live allocations again; Clone returns ErrBorrowedClone.
func (f *Fixed) Clone() (*Fixed, error) {
	if !f.mem.owned() {
		return nil, ErrBorrowedClone
	}
	if f.closed {
		return nil, ErrClosed
	}

	capacity, err := conv.UintptrToInt(f.capacity)
	if err != nil {
		return nil, err
	}
	mem, err := reserve(capacity, f.ownedController())
	f.opts.metricsCollector.RecordReserve(capacity, err)
	f.logger.LogReserve(capacity, err)
	if err != nil {
		return nil, err
	}
	return newFixed(mem, f.opts, f.logger), nil
}

// ownedController shares the memory budget between an arena and its clones.
func (f *Fixed) ownedController() *resource.Controller {
	if m, ok := f.mem.(*ownedMemory); ok {
		return m.ctrl
	}
	return nil
}

// Reset discards every allocation and moves the offset back to zero.
// All regions handed out before Reset become invalid.
func (f *Fixed) Reset() {
	if f.closed {
		return
	}
	f.offset = 0
	f.wasted = 0
	f.mem.reset()
}

// Close releases owned memory; borrowed memory is left untouched.
// Further allocations fail with ErrClosed. Close is idempotent.
func (f *Fixed) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	err := f.mem.release()
	f.logger.LogRelease(f.capacity, f.mem.owned(), err)
	f.ptr = nil
	if err != nil {
		return fmt.Errorf("release arena memory: %w", err)
	}
	return nil
}

// Owned reports whether the arena reserved its memory itself.
func (f *Fixed) Owned() bool { return f.mem.owned() }

// Offset returns the number of committed bytes.
func (f *Fixed) Offset() uintptr { return f.offset }

// Capacity returns the total usable bytes.
func (f *Fixed) Capacity() uintptr { return f.capacity }

// Stats returns a snapshot of the arena state.
func (f *Fixed) Stats() Stats {
	return Stats{
		Capacity:    f.capacity,
		Offset:      f.offset,
		Allocs:      f.allocs,
		Failed:      f.failed,
		BytesWasted: f.wasted,
	}
}
