package bumparena

import (
	"github.com/hupe1980/bumparena/internal/mmap"
	"github.com/hupe1980/bumparena/internal/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	pageSize         int
	reserveLimit     int
	memoryLimit      int64
	growthRate       int64
	extender         Extender
}

// Option configures arenas and adapters.
type Option func(*options)

// WithLogger sets the structured logger. Arenas log reservations, growth
// steps and releases. Observed allocators log individual requests, and the
// authority logs the requests it fails.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the observability hook.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(c MetricsCollector) Option {
	return func(o *options) {
		if c == nil {
			c = NoopMetricsCollector{}
		}
		o.metricsCollector = c
	}
}

// WithPageSize sets the growth granularity of a Heap.
// It must be a power of two; with the default break it is raised to at least
// the OS page size. Defaults to the OS page size.
func WithPageSize(size int) Option {
	return func(o *options) {
		o.pageSize = size
	}
}

// WithReserveLimit sets how much address space the default heap break may
// grow into. Defaults to 1 GiB.
func WithReserveLimit(bytes int) Option {
	return func(o *options) {
		o.reserveLimit = bytes
	}
}

// WithMemoryLimit caps the backing memory an arena may reserve from the
// environment. Exceeding it is reported as ErrReservationFailed.
// 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithGrowthRate caps how many bytes per second a Heap may add through growth
// steps. A step over budget is refused, never delayed. 0 means unlimited.
func WithGrowthRate(bytesPerSec int64) Option {
	return func(o *options) {
		o.growthRate = bytesPerSec
	}
}

// WithExtender replaces the heap-extension facility of a Heap.
// The Heap does not close a caller-supplied extender.
func WithExtender(e Extender) Option {
	return func(o *options) {
		o.extender = e
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		pageSize:         mmap.PageSize(),
		reserveLimit:     mmap.DefaultReserve,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *options) controller() *resource.Controller {
	if o.memoryLimit <= 0 && o.growthRate <= 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes:  o.memoryLimit,
		GrowthBytesPerSec: o.growthRate,
	})
}
