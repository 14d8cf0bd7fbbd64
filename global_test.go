package bumparena

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/bumparena/testutil"
)

func TestAuthority_Fixed(t *testing.T) {
	f, err := NewFixed(64)
	require.NoError(t, err)
	defer f.Close()

	a := NewAuthority(f)
	assert.NotNil(t, a.mu)

	p := a.Alloc(48, 16)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%16)
	assert.NoError(t, a.LastError())

	assert.Nil(t, a.Alloc(32, 1))
	assert.ErrorIs(t, a.LastError(), ErrCapacityExhausted)

	before := a.Stats()
	a.Dealloc(p, 48, 16)
	a.Dealloc(nil, 8, 8)
	assert.Equal(t, before.Offset, a.Stats().Offset)
	assert.Equal(t, uintptr(48), before.Offset)
}

func TestAuthority_HeapIsLockFree(t *testing.T) {
	h := newTestHeap(newSliceExtender(testPage))
	a := NewAuthority(h)

	assert.Nil(t, a.mu)
	assert.Same(t, h, a.Allocator())

	p := a.Alloc(1, 1)
	require.NotNil(t, p)
	assert.Equal(t, uintptr(testPage), a.Stats().Capacity)
}

func TestAuthority_ZeroSize(t *testing.T) {
	a := NewAuthority(NewFixedFrom(nil))

	p := a.Alloc(0, 32)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%32)

	assert.Nil(t, a.Alloc(1, 1))
}

func TestAuthority_InvalidRequest(t *testing.T) {
	a := NewAuthority(NewFixedFrom(make([]byte, 64)))

	assert.Nil(t, a.Alloc(8, 3))
	assert.ErrorIs(t, a.LastError(), ErrInvalidRequest)
}

func TestAuthority_StatsWithoutReporter(t *testing.T) {
	a := NewAuthority(NewScoped(NewFixedFrom(make([]byte, 64))))

	require.NotNil(t, a.Alloc(8, 8))
	assert.Equal(t, Stats{}, a.Stats())
}

func TestAuthority_ConcurrentFixed(t *testing.T) {
	const (
		workers = 8
		perG    = 200
	)

	f, err := NewFixed(workers * perG * 64)
	require.NoError(t, err)
	defer f.Close()

	a := NewAuthority(f)
	tracker := testutil.NewRegionTracker()

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for range perG {
				p := a.Alloc(24, 8)
				if p == nil {
					return a.LastError()
				}
				tracker.Track(uintptr(p), 24, 8)
				a.Dealloc(p, 24, 8)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, tracker.Check())
	assert.Equal(t, uint64(workers*perG), a.Stats().Allocs)
}

func TestAuthority_ConcurrentHeap(t *testing.T) {
	const (
		workers = 16
		perG    = 1000
	)

	h := NewHeap()
	defer h.Close()

	a := NewAuthority(h)
	require.Nil(t, a.mu)

	tracker := testutil.NewRegionTracker()
	rng := testutil.NewRNG(1234)

	var g errgroup.Group
	for range workers {
		reqs := rng.Requests(perG, 512, 64)
		g.Go(func() error {
			for _, req := range reqs {
				p := a.Alloc(req[0], req[1])
				if p == nil {
					return a.LastError()
				}
				tracker.Track(uintptr(p), req[0], req[1])
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, tracker.Check())
	assert.Equal(t, workers*perG, tracker.Len())
	assert.Equal(t, uint64(workers*perG), a.Stats().Allocs)
	assert.NoError(t, a.LastError())
}

func TestAuthority_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := NewAuthority(NewFixedFrom(make([]byte, 16)), WithLogger(logger))

	require.NotNil(t, a.Alloc(16, 1))
	assert.Empty(t, buf.String())

	assert.Nil(t, a.Alloc(1, 1))
	out := buf.String()
	assert.Contains(t, out, `msg="allocate failed" arena=authority size=1 align=1`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

// TestGlobal is the only test touching the process-wide authority, which
// cannot be torn down.
func TestGlobal(t *testing.T) {
	f, err := NewFixed(1 << 20)
	require.NoError(t, err)

	require.NoError(t, ConfigureGlobal(f))
	require.NoError(t, ConfigureGlobal(f))

	p := Alloc(16, 16)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%16)
	*(*uint64)(p) = 42

	assert.ErrorIs(t, ConfigureGlobal(NewHeap()), ErrGlobalInitialized)
	assert.Same(t, Global(), Global())
	assert.Same(t, f, Global().Allocator())

	q := Alloc(16, 16)
	require.NotNil(t, q)
	assert.NotEqual(t, uintptr(p), uintptr(q))

	Dealloc(p, 16, 16)
	assert.Equal(t, uintptr(32), GlobalStats().Offset)
	assert.Equal(t, uint64(42), *(*uint64)(p))

	assert.Nil(t, Alloc(2<<20, 1))
	assert.ErrorIs(t, Global().LastError(), ErrCapacityExhausted)
}
