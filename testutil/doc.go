// Package testutil provides testing utilities for bumparena.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random allocation requests and for
// verifying that allocations are aligned, disjoint and intact.
//
// # Random Requests
//
//	rng := testutil.NewRNG(seed)
//	size, align := rng.Request(256, 64)
//
// # Region Verification
//
//	tracker := testutil.NewRegionTracker()
//	tracker.Track(r.Addr(), uintptr(r.Len()), align)
//	require.NoError(t, tracker.Check())
//
// # Content Verification
//
//	testutil.Fill(r.Bytes(), 7)
//	assert.True(t, testutil.Verify(r.Bytes(), 7))
package testutil
