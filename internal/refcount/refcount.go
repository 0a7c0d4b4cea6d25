// Package refcount implements the atomic reference counter shared by every
// handle-like entity in the module.
package refcount

import "sync/atomic"

// Counter is an atomic reference count that runs a destroy function when
// the count drops from one to zero. The zero value is not usable; use New.
type Counter struct {
	n       atomic.Int64
	destroy func()
}

// New returns a counter holding a single reference. destroy may be nil.
func New(destroy func()) *Counter {
	c := &Counter{destroy: destroy}
	c.n.Store(1)
	return c
}

// Retain adds a reference. Retaining a destroyed counter panics.
func (c *Counter) Retain() {
	for {
		n := c.n.Load()
		if n <= 0 {
			panic("refcount: retain of destroyed object")
		}
		if c.n.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// Release drops a reference and reports whether it was the last one.
// The destroy function runs exactly once, on the releasing goroutine.
func (c *Counter) Release() bool {
	n := c.n.Add(-1)
	switch {
	case n == 0:
		if c.destroy != nil {
			c.destroy()
		}
		return true
	case n < 0:
		panic("refcount: release of destroyed object")
	}
	return false
}

// Count returns the current number of references.
func (c *Counter) Count() int64 {
	return c.n.Load()
}
