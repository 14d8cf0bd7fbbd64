// Package resource governs how much memory arenas may take from the
// environment.
//
// The Controller provides two limits:
//
//   - Memory: Track and limit bytes reserved by owned and growable arenas
//     (non-blocking, fail-fast)
//   - Growth rate: Token bucket on growth steps so a runaway allocation loop
//     cannot extend the heap break without bound in a short window
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic counters
// for usage tracking. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(1 << 20); err != nil {
//	    // ErrMemoryLimitExceeded - reported as a reservation failure
//	}
//	defer rc.ReleaseMemory(1 << 20)
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
