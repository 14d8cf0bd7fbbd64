package bumparena

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// concurrentAllocator is implemented by allocators that synchronize
// internally and need no outer lock.
type concurrentAllocator interface {
	Allocator
	concurrent()
}

type errBox struct{ err error }

// Authority adapts an Allocator to the raw process-wide protocol: a request
// yields an address, and nil signals failure.
//
// Authority is safe for concurrent use. A *Heap is called directly; any other
// allocator is serialized behind a mutex.
type Authority struct {
	alloc   Allocator
	mu      *sync.Mutex
	lastErr atomic.Pointer[errBox]
	logger  *Logger
}

// NewAuthority wraps a.
func NewAuthority(a Allocator, opts ...Option) *Authority {
	o := applyOptions(opts)
	auth := &Authority{
		alloc:  a,
		logger: o.logger.WithArena("authority"),
	}
	if _, ok := a.(concurrentAllocator); !ok {
		auth.mu = &sync.Mutex{}
	}
	return auth
}

// Alloc returns the address of size bytes aligned to align, or nil if the
// request cannot be served. LastError reports why.
func (a *Authority) Alloc(size, align uintptr) unsafe.Pointer {
	if a.mu != nil {
		a.mu.Lock()
		defer a.mu.Unlock()
	}

	r, err := a.alloc.Allocate(size, align)
	if err != nil {
		a.lastErr.Store(&errBox{err: err})
		a.logger.LogAlloc(r, size, align, err)
		return nil
	}
	return r.ptr
}

// Dealloc releases the memory at p. Arenas never reuse memory, so this never
// changes their state; a nil p is ignored.
func (a *Authority) Dealloc(p unsafe.Pointer, size, align uintptr) {
	if p == nil {
		return
	}
	if a.mu != nil {
		a.mu.Lock()
		defer a.mu.Unlock()
	}
	a.alloc.Deallocate(Region{ptr: p, size: size}, align)
}

// LastError returns the cause of the most recent failed Alloc, or nil.
func (a *Authority) LastError() error {
	if b := a.lastErr.Load(); b != nil {
		return b.err
	}
	return nil
}

// Stats returns the state of the wrapped arena, or zero Stats if it does not
// report any.
func (a *Authority) Stats() Stats {
	s, ok := a.alloc.(interface{ Stats() Stats })
	if !ok {
		return Stats{}
	}
	if a.mu != nil {
		a.mu.Lock()
		defer a.mu.Unlock()
	}
	return s.Stats()
}

// Allocator returns the wrapped allocator.
func (a *Authority) Allocator() Allocator { return a.alloc }

var global struct {
	once sync.Once
	mu   sync.Mutex
	used bool
	next Allocator
	opts []Option
	auth *Authority
}

// ConfigureGlobal selects the allocator behind the process-wide authority.
// It must be called before the first Alloc, Dealloc, GlobalStats or Global
// call; afterwards it returns ErrGlobalInitialized. The default is a Heap.
func ConfigureGlobal(a Allocator, opts ...Option) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.used {
		return ErrGlobalInitialized
	}
	global.next = a
	global.opts = opts
	return nil
}

// Global returns the process-wide authority, creating it on first use.
// It lives until the process exits.
func Global() *Authority {
	global.once.Do(func() {
		global.mu.Lock()
		defer global.mu.Unlock()

		global.used = true
		a := global.next
		if a == nil {
			a = NewHeap(global.opts...)
		}
		global.auth = NewAuthority(a, global.opts...)
	})
	return global.auth
}

// Alloc serves a request from the process-wide authority.
func Alloc(size, align uintptr) unsafe.Pointer {
	return Global().Alloc(size, align)
}

// Dealloc releases memory to the process-wide authority.
func Dealloc(p unsafe.Pointer, size, align uintptr) {
	Global().Dealloc(p, size, align)
}

// GlobalStats returns the state of the process-wide arena.
func GlobalStats() Stats {
	return Global().Stats()
}
