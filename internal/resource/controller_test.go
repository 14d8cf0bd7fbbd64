package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	// Test with limit
	c := NewController(Config{MemoryLimitBytes: 100})

	// Acquire 50
	err := c.AcquireMemory(50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	// Acquire 40
	err = c.AcquireMemory(40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	err = c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Release 50
	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	// Now Acquire 20 should succeed
	err = c.AcquireMemory(20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	err := c.AcquireMemory(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
}

func TestController_NonPositive(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})

	require.NoError(t, c.AcquireMemory(0))
	require.NoError(t, c.AcquireMemory(-5))
	c.ReleaseMemory(-5)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_GrowthRate(t *testing.T) {
	c := NewController(Config{GrowthBytesPerSec: 8192})

	// The bucket starts full.
	_, err := c.ReserveGrowth(4096)
	require.NoError(t, err)
	_, err = c.ReserveGrowth(4096)
	require.NoError(t, err)

	// Burst exhausted.
	_, err = c.ReserveGrowth(4096)
	assert.ErrorIs(t, err, ErrGrowthRateExceeded)
}

func TestController_GrowthOverBurst(t *testing.T) {
	c := NewController(Config{GrowthBytesPerSec: 4096})

	_, err := c.ReserveGrowth(8192)
	assert.ErrorIs(t, err, ErrGrowthRateExceeded)

	// Nothing was spent.
	_, err = c.ReserveGrowth(4096)
	assert.NoError(t, err)
}

func TestController_CancelRestoresTokens(t *testing.T) {
	c := NewController(Config{GrowthBytesPerSec: 8192})

	token, err := c.ReserveGrowth(8192)
	require.NoError(t, err)

	_, err = c.ReserveGrowth(4096)
	require.ErrorIs(t, err, ErrGrowthRateExceeded)

	// A refused reservation does not consume, a cancelled one gives back.
	token.Cancel()
	_, err = c.ReserveGrowth(8192)
	assert.NoError(t, err)
}

func TestController_UnlimitedGrowth(t *testing.T) {
	c := NewController(Config{})
	for i := 0; i < 100; i++ {
		token, err := c.ReserveGrowth(1 << 20)
		require.NoError(t, err)
		token.Cancel() // no-op
	}
}

func TestController_NilChecks(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireMemory(10))
	token, err := c.ReserveGrowth(10)
	assert.NoError(t, err)
	token.Cancel()      // Should not panic
	c.ReleaseMemory(10) // Should not panic
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
}
