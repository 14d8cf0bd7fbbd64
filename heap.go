package bumparena

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/hupe1980/bumparena/internal/align"
	"github.com/hupe1980/bumparena/internal/conv"
	"github.com/hupe1980/bumparena/internal/mmap"
	"github.com/hupe1980/bumparena/internal/resource"
)

var errNonContiguous = errors.New("extension is not contiguous with the arena")

// extent is the committed backing memory of a Heap. It is immutable; a growth
// step publishes a new, larger extent with the same base.
type extent struct {
	base     unsafe.Pointer
	capacity uintptr
}

// Heap is a growable bump arena in the style of the classic process heap.
//
// It starts empty and extends its backing memory through an Extender
// (by default a program break over reserved address space) the first time a
// request does not fit. Each growth step covers the shortfall rounded up to
// the page size. The arena never shrinks.
//
// Heap is safe for concurrent use. The offset is a single atomic word: a
// request commits by compare-and-swap from the offset it read to its end,
// validated against an extent snapshot. Because extents only grow and keep
// their base, a request that fits a snapshot also fits every later extent, so
// the compare-and-swap alone decides and commits. Growth steps are serialized
// by a mutex that allocations never take on the fast path.
//
// Deallocate does nothing; memory is never reused.
type Heap struct {
	_      cpu.CacheLinePad
	offset atomic.Uintptr
	_      cpu.CacheLinePad

	ext atomic.Pointer[extent]

	mu           sync.Mutex // serializes growth steps
	extender     Extender
	ownsExtender bool
	pageSize     uintptr
	ctrl         *resource.Controller
	closed       atomic.Bool

	allocs atomic.Uint64
	failed atomic.Uint64
	grows  atomic.Uint64
	wasted atomic.Uint64

	opts   options
	logger *Logger
}

// NewHeap creates an empty heap arena. It reserves nothing and never fails.
func NewHeap(opts ...Option) *Heap {
	o := applyOptions(opts)

	pageSize := o.pageSize
	if pageSize <= 0 || !align.IsPowerOfTwo(uintptr(pageSize)) {
		pageSize = mmap.PageSize()
	}
	if o.extender == nil {
		// The break commits whole OS pages.
		pageSize = max(pageSize, mmap.PageSize())
	}

	h := &Heap{
		extender: o.extender,
		pageSize: uintptr(pageSize),
		ctrl:     o.controller(),
		opts:     o,
		logger:   o.logger.WithArena("heap"),
	}
	if h.extender == nil {
		h.extender = mmap.NewBreak(o.reserveLimit, pageSize)
		h.ownsExtender = true
	}
	h.ext.Store(&extent{})
	return h
}

// Allocate serves a request by bumping the shared offset, taking one growth
// step first if the request does not fit the current capacity.
//
// If the environment refuses to grow, it returns ErrCapacityExhausted (also
// matching ErrReservationFailed) and the arena is unchanged. Zero-size requests
// consume nothing and return a non-nil aligned pointer that must not be
// dereferenced.
func (h *Heap) Allocate(size, alignment uintptr) (Region, error) {
	r, err := h.allocate(size, alignment)
	h.opts.metricsCollector.RecordAlloc(size, err)
	return r, err
}

func (h *Heap) allocate(size, alignment uintptr) (Region, error) {
	if h.closed.Load() {
		return Region{}, h.fail("allocate", size, alignment, ErrClosed, nil)
	}
	if err := validateRequest(size, alignment); err != nil {
		return Region{}, h.fail("allocate", size, alignment, ErrInvalidRequest, err)
	}
	if size == 0 {
		h.allocs.Add(1)
		return zeroSizedRegion(alignment), nil
	}

	for {
		ext := h.ext.Load()
		cur := h.offset.Load()

		start, end, ok := bump(ext.base, cur, size, alignment)
		if !ok {
			return Region{}, h.fail("allocate", size, alignment, ErrInvalidRequest, nil)
		}

		if end <= ext.capacity {
			if !h.offset.CompareAndSwap(cur, end) {
				continue
			}
			h.allocs.Add(1)
			h.wasted.Add(uint64(start - cur))
			return Region{ptr: unsafe.Add(ext.base, start), size: size}, nil
		}

		if err := h.growFor(ext, end, alignment); err != nil {
			h.logger.LogExhausted(size, alignment, cur, ext.capacity)
			return Region{}, h.fail("allocate", size, alignment, ErrCapacityExhausted, err)
		}
	}
}

// growFor takes one growth step so that end fits, unless another goroutine
// already replaced seen.
//
// Before the first step the base is unknown, so end was computed as if the
// base were perfectly aligned. The step then also covers the worst-case
// padding the real base may need.
func (h *Heap) growFor(seen *extent, end, alignment uintptr) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.ext.Load()
	if cur != seen {
		return nil
	}

	shortfall := end - cur.capacity
	if cur.base == nil {
		var ok bool
		if shortfall, ok = align.Add(shortfall, alignment-1); !ok {
			return fmt.Errorf("%w: growth of %d bytes overflows", ErrInvalidRequest, end)
		}
	}
	delta, ok := align.Up(shortfall, h.pageSize)
	if !ok {
		return fmt.Errorf("%w: growth of %d bytes overflows", ErrInvalidRequest, shortfall)
	}
	return h.growLocked(cur, delta)
}

// Grow takes an explicit growth step of delta bytes rounded up to the page
// size. On failure the arena is unchanged.
func (h *Heap) Grow(delta int) error {
	if h.closed.Load() {
		return ErrClosed
	}
	d, err := conv.IntToUintptr(delta)
	if err != nil || d == 0 {
		return fmt.Errorf("%w: growth delta %d", ErrInvalidRequest, delta)
	}
	rounded, ok := align.Up(d, h.pageSize)
	if !ok {
		return fmt.Errorf("%w: growth delta %d overflows", ErrInvalidRequest, delta)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.growLocked(h.ext.Load(), rounded)
}

func (h *Heap) growLocked(cur *extent, delta uintptr) error {
	d, err := conv.UintptrToInt(delta)
	if err != nil {
		err = h.growErr(cur, delta, err)
	} else {
		err = h.extend(cur, delta, d)
	}
	h.opts.metricsCollector.RecordGrow(d, err)
	if err != nil {
		h.logger.LogGrow(d, cur.capacity, err)
		return err
	}
	h.grows.Add(1)
	h.logger.LogGrow(d, cur.capacity+delta, nil)
	return nil
}

// extend runs one growth step of delta bytes (d as an int). The memory budget is
// checked before rate tokens are spent, and a refused step hands both back.
func (h *Heap) extend(cur *extent, delta uintptr, d int) error {
	bytes, err := conv.UintptrToInt64(delta)
	if err != nil {
		return h.growErr(cur, delta, err)
	}
	capacity, ok := align.Add(cur.capacity, delta)
	if !ok {
		return h.growErr(cur, delta, errors.New("capacity overflows"))
	}

	if err := h.ctrl.AcquireMemory(bytes); err != nil {
		return h.growErr(cur, delta, err)
	}
	token, err := h.ctrl.ReserveGrowth(d)
	if err != nil {
		h.ctrl.ReleaseMemory(bytes)
		return h.growErr(cur, delta, err)
	}

	prev, err := h.extender.Extend(d)
	if err != nil {
		token.Cancel()
		h.ctrl.ReleaseMemory(bytes)
		return h.growErr(cur, delta, err)
	}

	base := cur.base
	if base == nil {
		base = prev
	} else if uintptr(prev) != uintptr(base)+cur.capacity {
		// The environment broke contiguity. Its extension cannot be handed
		// back, so it is left unused.
		token.Cancel()
		h.ctrl.ReleaseMemory(bytes)
		return h.growErr(cur, delta, fmt.Errorf("%w: got %#x, want %#x", errNonContiguous, uintptr(prev), uintptr(base)+cur.capacity))
	}

	h.ext.Store(&extent{base: base, capacity: capacity})
	return nil
}

func (h *Heap) growErr(cur *extent, delta uintptr, cause error) error {
	return &AllocError{
		Op:       "grow",
		Size:     delta,
		Offset:   h.offset.Load(),
		Capacity: cur.capacity,
		Kind:     ErrReservationFailed,
		cause:    cause,
	}
}

func (h *Heap) fail(op string, size, alignment uintptr, kind, cause error) error {
	h.failed.Add(1)
	return &AllocError{
		Op:       op,
		Size:     size,
		Align:    alignment,
		Offset:   h.offset.Load(),
		Capacity: h.ext.Load().capacity,
		Kind:     kind,
		cause:    cause,
	}
}

// Deallocate does nothing. Released memory is never reused.
func (h *Heap) Deallocate(r Region, alignment uintptr) {
	h.opts.metricsCollector.RecordDealloc(r.size)
}

// concurrent marks Heap as internally synchronized for NewAuthority.
func (h *Heap) concurrent() {}

// Close releases the backing memory if the heap created its own extender.
// It must not run concurrently with Allocate, and all regions become invalid.
// The process-wide authority never closes its heap.
func (h *Heap) Close() error {
	if h.closed.Swap(true) {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	capacity := h.ext.Load().capacity
	if bytes, err := conv.UintptrToInt64(capacity); err == nil {
		h.ctrl.ReleaseMemory(bytes)
	}

	var err error
	if c, ok := h.extender.(io.Closer); ok && h.ownsExtender {
		err = c.Close()
	}
	h.logger.LogRelease(capacity, h.ownsExtender, err)
	return err
}

// Offset returns the number of committed bytes.
func (h *Heap) Offset() uintptr { return h.offset.Load() }

// Capacity returns the bytes currently backed by the environment.
func (h *Heap) Capacity() uintptr { return h.ext.Load().capacity }

// PageSize returns the growth granularity.
func (h *Heap) PageSize() uintptr { return h.pageSize }

// Stats returns a snapshot of the arena state. Fields are read individually
// and may be mutually inconsistent under concurrent allocation.
func (h *Heap) Stats() Stats {
	return Stats{
		Capacity:    h.ext.Load().capacity,
		Offset:      h.offset.Load(),
		Allocs:      h.allocs.Load(),
		Failed:      h.failed.Load(),
		Grows:       h.grows.Load(),
		BytesWasted: h.wasted.Load(),
	}
}
