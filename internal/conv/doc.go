// Package conv provides safe integer type conversion utilities.
//
// These functions perform bounds checking to prevent integer overflow/underflow
// when converting between signed/unsigned and different bit-width integer types.
//
// Use cases:
//   - Converting caller-supplied capacities and growth deltas (int) to
//     address arithmetic (uintptr)
//   - Feeding byte counts into the memory budget (int64)
//
// For conversions that are provably safe by domain constraints (e.g. values
// already bounded by an arena's capacity), use direct type casts instead.
package conv
