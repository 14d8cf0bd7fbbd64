// Package mmap provides off-heap memory for arenas.
//
// # Overview
//
// Arena memory lives outside the Go garbage collector's control. This package
// is the only place that talks to the operating system about it. It offers two
// shapes of memory:
//
//   - MapAnon: a fixed-size, read-write, zero-filled anonymous mapping. Used by
//     owned fixed arenas; released with Close.
//   - Break: a program break over a reserved virtual range. Extend commits the
//     next page-granular slice of the range and returns the previous break,
//     so successive extensions are contiguous. Used by growable heap arenas.
//
// # Usage
//
//	m, err := mmap.MapAnon(1 << 20)
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
//	b := mmap.NewBreak(mmap.DefaultReserve, mmap.PageSize())
//	prev, err := b.Extend(mmap.PageSize())
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with PROT_NONE reservations,
//     mprotect(2) commits and madvise(2) hints
//   - Windows: VirtualAlloc MEM_RESERVE / MEM_COMMIT (madvise is a no-op)
//
// # Thread Safety
//
// Mapping.Close is idempotent and protected by atomic operations; callers must
// ensure no goroutines access Bytes() after Close() returns. Break serializes
// Extend and Close with a mutex.
package mmap
