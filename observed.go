package bumparena

// Observed forwards every request to an inner allocator and reports each one
// to a MetricsCollector and a debug-level Logger.
type Observed struct {
	inner   Allocator
	metrics MetricsCollector
	logger  *Logger
}

// Observe wraps a for observation. Without WithLogger or
// WithMetricsCollector the wrapper only forwards.
//
// The wrapper records requests independently of a. Wrapping an arena that
// already reports to the same collector counts every request twice, so pass
// the wrapper a collector of its own or build the arena without one.
func Observe(a Allocator, opts ...Option) *Observed {
	o := applyOptions(opts)
	return &Observed{
		inner:   a,
		metrics: o.metricsCollector,
		logger:  o.logger.WithArena("observed"),
	}
}

// Allocate forwards to the inner allocator.
func (o *Observed) Allocate(size, alignment uintptr) (Region, error) {
	r, err := o.inner.Allocate(size, alignment)
	o.metrics.RecordAlloc(size, err)
	o.logger.LogAlloc(r, size, alignment, err)
	return r, err
}

// Deallocate forwards to the inner allocator.
func (o *Observed) Deallocate(r Region, alignment uintptr) {
	o.inner.Deallocate(r, alignment)
	o.metrics.RecordDealloc(r.size)
	o.logger.LogDealloc(r, alignment)
}

// Unwrap returns the inner allocator.
func (o *Observed) Unwrap() Allocator { return o.inner }
