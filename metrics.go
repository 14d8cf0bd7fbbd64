package bumparena

import (
	"sync/atomic"
)

// MetricsCollector defines an interface for collecting allocator metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Collectors sit on the allocation path, so implementations must be cheap
// and safe for concurrent use.
type MetricsCollector interface {
	// RecordAlloc is called after each allocation request.
	// err is nil if the request was served.
	RecordAlloc(size uintptr, err error)

	// RecordDealloc is called for each deallocation. Arenas never reuse the
	// memory, so this only counts calls.
	RecordDealloc(size uintptr)

	// RecordGrow is called after each growth step of a growable arena.
	RecordGrow(delta int, err error)

	// RecordReserve is called when an owned arena reserves its backing memory.
	RecordReserve(bytes int, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAlloc(uintptr, error) {}
func (NoopMetricsCollector) RecordDealloc(uintptr)      {}
func (NoopMetricsCollector) RecordGrow(int, error)      {}
func (NoopMetricsCollector) RecordReserve(int, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocCount    atomic.Int64
	AllocErrors   atomic.Int64
	AllocBytes    atomic.Int64
	DeallocCount  atomic.Int64
	DeallocBytes  atomic.Int64
	GrowCount     atomic.Int64
	GrowErrors    atomic.Int64
	GrowBytes     atomic.Int64
	ReserveCount  atomic.Int64
	ReserveErrors atomic.Int64
	ReservedBytes atomic.Int64
}

// RecordAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlloc(size uintptr, err error) {
	b.AllocCount.Add(1)
	if err != nil {
		b.AllocErrors.Add(1)
		return
	}
	b.AllocBytes.Add(int64(size))
}

// RecordDealloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDealloc(size uintptr) {
	b.DeallocCount.Add(1)
	b.DeallocBytes.Add(int64(size))
}

// RecordGrow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGrow(delta int, err error) {
	b.GrowCount.Add(1)
	if err != nil {
		b.GrowErrors.Add(1)
		return
	}
	b.GrowBytes.Add(int64(delta))
}

// RecordReserve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReserve(bytes int, err error) {
	b.ReserveCount.Add(1)
	if err != nil {
		b.ReserveErrors.Add(1)
		return
	}
	b.ReservedBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AllocCount:    b.AllocCount.Load(),
		AllocErrors:   b.AllocErrors.Load(),
		AllocBytes:    b.AllocBytes.Load(),
		DeallocCount:  b.DeallocCount.Load(),
		DeallocBytes:  b.DeallocBytes.Load(),
		GrowCount:     b.GrowCount.Load(),
		GrowErrors:    b.GrowErrors.Load(),
		GrowBytes:     b.GrowBytes.Load(),
		ReserveCount:  b.ReserveCount.Load(),
		ReserveErrors: b.ReserveErrors.Load(),
		ReservedBytes: b.ReservedBytes.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AllocCount    int64
	AllocErrors   int64
	AllocBytes    int64
	DeallocCount  int64
	DeallocBytes  int64
	GrowCount     int64
	GrowErrors    int64
	GrowBytes     int64
	ReserveCount  int64
	ReserveErrors int64
	ReservedBytes int64
}
