package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Request returns a random allocation request with a size in [0, maxSize]
// and a power-of-two alignment in [1, maxAlign].
func (r *RNG) Request(maxSize, maxAlign uintptr) (size, align uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requestLocked(maxSize, maxAlign)
}

func (r *RNG) requestLocked(maxSize, maxAlign uintptr) (size, align uintptr) {
	size = uintptr(r.rand.Int63n(int64(maxSize) + 1))

	shifts := 0
	for a := maxAlign; a > 1; a >>= 1 {
		shifts++
	}
	align = 1 << r.rand.Intn(shifts+1)
	return size, align
}

// Requests generates n random allocation requests.
// Locks only once per call (preferred over calling Request in a loop).
func (r *RNG) Requests(n int, maxSize, maxAlign uintptr) [][2]uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][2]uintptr, n)
	for i := range out {
		size, align := r.requestLocked(maxSize, maxAlign)
		out[i] = [2]uintptr{size, align}
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, larger s skews harder towards small values.
// Useful for size distributions where most requests are small.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Span is one tracked allocation.
type Span struct {
	Addr  uintptr
	Size  uintptr
	Align uintptr
}

func (s Span) end() uintptr { return s.Addr + s.Size }

// RegionTracker records allocations and verifies that they are aligned and
// pairwise disjoint. It is safe for concurrent use.
type RegionTracker struct {
	mu    sync.Mutex
	spans []Span
}

// NewRegionTracker creates an empty tracker.
func NewRegionTracker() *RegionTracker {
	return &RegionTracker{}
}

// Track records an allocation. Zero-size allocations are only checked for
// alignment, since they occupy no memory.
func (t *RegionTracker) Track(addr, size, align uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = append(t.spans, Span{Addr: addr, Size: size, Align: align})
}

// Len returns the number of tracked allocations.
func (t *RegionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// Bytes returns the sum of all tracked sizes.
func (t *RegionTracker) Bytes() uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total uintptr
	for _, s := range t.spans {
		total += s.Size
	}
	return total
}

// Check returns an error describing the first misaligned or overlapping
// allocation, or nil.
func (t *RegionTracker) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	nonEmpty := make([]Span, 0, len(t.spans))
	for _, s := range t.spans {
		if s.Addr == 0 {
			return fmt.Errorf("nil address for size %d", s.Size)
		}
		if s.Align != 0 && s.Addr%s.Align != 0 {
			return fmt.Errorf("address %#x is not aligned to %d", s.Addr, s.Align)
		}
		if s.Size > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}

	sort.Slice(nonEmpty, func(i, j int) bool {
		return nonEmpty[i].Addr < nonEmpty[j].Addr
	})
	for i := 1; i < len(nonEmpty); i++ {
		prev, cur := nonEmpty[i-1], nonEmpty[i]
		if cur.Addr < prev.end() {
			return fmt.Errorf("[%#x, %#x) overlaps [%#x, %#x)", cur.Addr, cur.end(), prev.Addr, prev.end())
		}
	}
	return nil
}

// Fill writes a pattern derived from tag into b.
func Fill(b []byte, tag byte) {
	for i := range b {
		b[i] = tag + byte(i)
	}
}

// Verify reports whether b still holds the pattern written by Fill.
func Verify(b []byte, tag byte) bool {
	for i := range b {
		if b[i] != tag+byte(i) {
			return false
		}
	}
	return true
}
