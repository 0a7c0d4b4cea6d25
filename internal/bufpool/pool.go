// Package bufpool provides size-classed reusable byte buffers for the
// temporary and proxy buffers used during colour conversion.
package bufpool

import (
	"sync"
	"sync/atomic"
)

// MemoryLimitExceededError is returned when an allocation would exceed the
// pool's memory limit.
type MemoryLimitExceededError struct {
	Requested int64
	Current   int64
	Limit     int64
}

func (e *MemoryLimitExceededError) Error() string {
	return "bufpool: memory limit exceeded"
}

// Pool manages reusable byte buffers with an optional memory limit.
// Memory use counts buffers handed out by Get and not yet returned by Put.
type Pool struct {
	pools       []*sync.Pool
	memoryUsed  int64 // atomic
	memoryLimit int64 // atomic, 0 = unlimited
	allocCount  int64 // atomic
	hitCount    int64 // atomic
	missCount   int64 // atomic
}

// bufferSizes are the discrete capacities of pooled buffers, sized for
// whole-image temporaries of common resolutions.
var bufferSizes = []int{
	4 << 10,  // 4 KB
	64 << 10, // 64 KB
	1 << 20,  // 1 MB
	4 << 20,  // 4 MB
	16 << 20, // 16 MB
	64 << 20, // 64 MB
}

var defaultPool = New(0)

// Default returns the process-wide pool.
func Default() *Pool {
	return defaultPool
}

// New creates a pool. If limit is 0, no limit is enforced.
func New(limit int64) *Pool {
	p := &Pool{
		pools:       make([]*sync.Pool, len(bufferSizes)),
		memoryLimit: limit,
	}
	for i := range bufferSizes {
		p.pools[i] = &sync.Pool{}
	}
	return p
}

// SetMemoryLimit sets the maximum memory the pool may hand out and returns
// the previous limit. 0 disables the limit.
func (p *Pool) SetMemoryLimit(limit int64) int64 {
	return atomic.SwapInt64(&p.memoryLimit, limit)
}

// MemoryLimit returns the current memory limit (0 = unlimited).
func (p *Pool) MemoryLimit() int64 {
	return atomic.LoadInt64(&p.memoryLimit)
}

// MemoryUsed returns the bytes currently handed out.
func (p *Pool) MemoryUsed() int64 {
	return atomic.LoadInt64(&p.memoryUsed)
}

// Stats returns pool statistics: (allocCount, hitCount, missCount).
func (p *Pool) Stats() (allocs, hits, misses int64) {
	return atomic.LoadInt64(&p.allocCount),
		atomic.LoadInt64(&p.hitCount),
		atomic.LoadInt64(&p.missCount)
}

// ResetStats resets the pool statistics.
func (p *Pool) ResetStats() {
	atomic.StoreInt64(&p.allocCount, 0)
	atomic.StoreInt64(&p.hitCount, 0)
	atomic.StoreInt64(&p.missCount, 0)
}

func poolIndex(size int) int {
	for i, s := range bufferSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// reserve accounts n bytes against the limit, failing if it would be exceeded.
func (p *Pool) reserve(n int64) bool {
	for {
		current := atomic.LoadInt64(&p.memoryUsed)
		limit := atomic.LoadInt64(&p.memoryLimit)
		if limit > 0 && current+n > limit {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.memoryUsed, current, current+n) {
			return true
		}
	}
}

// Get returns a zeroed buffer of exactly size bytes, or nil if the
// allocation would exceed the memory limit. Return it with Put.
func (p *Pool) Get(size int) []byte {
	atomic.AddInt64(&p.allocCount, 1)

	idx := poolIndex(size)
	if idx < 0 {
		if !p.reserve(int64(size)) {
			return nil
		}
		atomic.AddInt64(&p.missCount, 1)
		return make([]byte, size)
	}

	if !p.reserve(int64(bufferSizes[idx])) {
		return nil
	}
	buf, ok := p.pools[idx].Get().([]byte)
	if ok {
		atomic.AddInt64(&p.hitCount, 1)
	} else {
		atomic.AddInt64(&p.missCount, 1)
		buf = make([]byte, bufferSizes[idx])
	}
	buf = buf[:size]
	clear(buf)
	return buf
}

// GetWithError returns a buffer or a *MemoryLimitExceededError.
func (p *Pool) GetWithError(size int) ([]byte, error) {
	buf := p.Get(size)
	if buf == nil {
		return nil, &MemoryLimitExceededError{
			Requested: int64(size),
			Current:   atomic.LoadInt64(&p.memoryUsed),
			Limit:     atomic.LoadInt64(&p.memoryLimit),
		}
	}
	return buf, nil
}

// Put returns a buffer obtained from Get. Put(nil) is a no-op.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	bufCap := cap(buf)
	idx := poolIndex(bufCap)
	if idx >= 0 && bufCap == bufferSizes[idx] {
		atomic.AddInt64(&p.memoryUsed, -int64(bufCap))
		p.pools[idx].Put(buf[:bufCap])
		return
	}
	// direct allocations were reserved at their requested length
	atomic.AddInt64(&p.memoryUsed, -int64(len(buf)))
}
