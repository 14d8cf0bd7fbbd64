package resource

import (
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

var (
	// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
	// ErrGrowthRateExceeded is returned when a growth step exceeds the configured rate.
	ErrGrowthRateExceeded = errors.New("growth rate exceeded")
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for reserved arena memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// GrowthBytesPerSec caps how fast growable arenas may extend their
	// backing memory. If 0, unlimited.
	GrowthBytesPerSec int64
}

// Controller tracks and limits memory reserved from the environment.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Growth
	growthLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.GrowthBytesPerSec > 0 {
		c.growthLimiter = rate.NewLimiter(rate.Limit(cfg.GrowthBytesPerSec), int(cfg.GrowthBytesPerSec))
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// Returns ErrMemoryLimitExceeded if limit would be exceeded.
// Non-blocking - allocation paths never wait on the budget.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// GrowthToken is a granted growth step. Cancel hands its rate tokens back
// when the step is refused further down.
type GrowthToken struct {
	r  *rate.Reservation
	at time.Time
}

// Cancel returns the tokens of a step that did not happen. It is a no-op for
// the zero token.
func (t GrowthToken) Cancel() {
	if t.r == nil {
		return
	}
	t.r.CancelAt(t.at)
}

// ReserveGrowth takes rate tokens for a growth step of the given size.
// It never blocks: a step that would have to wait is refused with
// ErrGrowthRateExceeded and spends nothing.
func (c *Controller) ReserveGrowth(bytes int) (GrowthToken, error) {
	if c == nil || c.growthLimiter == nil {
		return GrowthToken{}, nil
	}

	now := time.Now()
	r := c.growthLimiter.ReserveN(now, bytes)
	if !r.OK() {
		return GrowthToken{}, ErrGrowthRateExceeded
	}
	if r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		return GrowthToken{}, ErrGrowthRateExceeded
	}
	return GrowthToken{r: r, at: now}, nil
}
