package iccimage

import (
	"runtime"
	"sync"

	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/internal/bufpool"
	"github.com/mrjoshuak/go-iccimage/observability"
)

// Options configures a Converter. The zero value selects the default
// engine, no logging, the shared buffer pool and serial row processing.
type Options struct {
	// Engine performs profile and transform operations.
	Engine cms.Engine

	// Logger receives conversion diagnostics.
	Logger observability.Logger

	// Pool supplies temporary buffers. A pool with a memory limit makes
	// oversized conversions fail with CodeAllocationFailure.
	Pool *bufpool.Pool

	// Workers is the number of goroutines applying rows. Values above 1
	// take effect only for transforms that are safe for concurrent use.
	// A negative value means runtime.GOMAXPROCS(0).
	Workers int
}

// Converter runs colour conversions with a fixed engine and settings. It is
// safe for concurrent use on distinct images.
type Converter struct {
	engine  cms.Engine
	log     observability.Logger
	pool    *bufpool.Pool
	workers int
}

// NewConverter returns a converter configured by opts.
func NewConverter(opts Options) *Converter {
	c := &Converter{
		engine:  opts.Engine,
		log:     opts.Logger,
		pool:    opts.Pool,
		workers: opts.Workers,
	}
	if c.engine == nil {
		c.engine = defaultEngine()
	}
	if c.log == nil {
		c.log = observability.NopLogger{}
	}
	if c.pool == nil {
		c.pool = bufpool.Default()
	}
	if c.workers < 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	if c.workers == 0 {
		c.workers = 1
	}
	return c
}

var defaultConverter = sync.OnceValue(func() *Converter {
	return NewConverter(Options{})
})

// DefaultConverter returns the converter used by the package-level
// functions and Image methods.
func DefaultConverter() *Converter {
	return defaultConverter()
}

// Engine returns the converter's engine.
func (c *Converter) Engine() cms.Engine {
	return c.engine
}

// openProfile opens p in the engine, or the engine's sRGB profile for nil.
func (c *Converter) openProfile(p *ColorProfile) (cms.Profile, error) {
	if p == nil {
		return c.engine.SRGBProfile()
	}
	return c.engine.OpenProfile(p.Data())
}
