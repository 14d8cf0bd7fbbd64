// Package bumparena provides bump-pointer memory arenas for Go.
//
// An arena hands out regions by rounding an offset up to the requested
// alignment and advancing it by the requested size. Individual releases are
// accepted but never reclaim memory; whole arenas are reset or closed instead.
// Arena memory lives outside the Go heap and is invisible to the garbage
// collector, so it must only hold pointer-free data.
//
// # Arenas
//
// Fixed serves requests from one region of fixed capacity, either reserved by
// the arena or borrowed from the caller:
//
//	f, _ := bumparena.NewFixed(1 << 20)
//	defer f.Close()
//	r, err := f.Allocate(64, 8)
//
//	buf := make([]byte, 4096)
//	g := bumparena.NewFixedFrom(buf) // never releases buf
//
// A Fixed arena has a single owner and does no locking.
//
// Heap starts empty and grows in page-sized steps through an Extender, by
// default a program break over reserved address space. It is safe for
// concurrent use:
//
//	h := bumparena.NewHeap(bumparena.WithMemoryLimit(256 << 20))
//	r, err := h.Allocate(1, 1) // first request grows the heap by one page
//
// # Errors
//
// Failures are returned as *AllocError and match one of the sentinels with
// errors.Is:
//
//	if errors.Is(err, bumparena.ErrCapacityExhausted) {
//		// fall back, recreate the arena or abort
//	}
//
// A failed request never changes the arena.
//
// # Process-wide Authority
//
// Alloc and Dealloc serve the raw protocol from a lazily created process-wide
// authority, where nil signals failure. The backing is a Heap unless
// ConfigureGlobal selects another allocator before first use:
//
//	f, _ := bumparena.NewFixed(128 << 20)
//	_ = bumparena.ConfigureGlobal(f)
//	p := bumparena.Alloc(32, 16)
//
// # Scoped Allocation
//
// Scoped adapts an arena to back one container. Resizing allocates a fresh
// region and copies nothing; the generic helpers relocate contents:
//
//	s := bumparena.NewScoped(h)
//	xs, _ := bumparena.MakeSlice[uint64](s, 8)
//	xs, _ = bumparena.GrowSlice(s, xs, 16)
//
// # Observability
//
// WithLogger and WithMetricsCollector attach a structured logger and a metrics
// hook. Arenas report reservations, growth steps and releases; Observe wraps
// any allocator to report every request.
package bumparena
