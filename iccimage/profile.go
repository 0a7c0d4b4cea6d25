package iccimage

import (
	"sync"

	"github.com/mrjoshuak/go-iccimage/internal/refcount"
)

// ColorProfile is an immutable, reference-counted ICC profile. The bytes are
// opaque to this package; only the engine interprets them.
type ColorProfile struct {
	data []byte
	ref  *refcount.Counter

	infoOnce sync.Once
	info     profileInfo
}

// NewColorProfile copies data into a new profile holding one reference.
// The bytes are not validated until an engine opens them.
func NewColorProfile(data []byte) (*ColorProfile, error) {
	if len(data) == 0 {
		return nil, newError(CodeInvalidBufferSize, nil, "empty profile data")
	}
	return wrapProfile(append([]byte(nil), data...)), nil
}

// wrapProfile takes ownership of data.
func wrapProfile(data []byte) *ColorProfile {
	p := &ColorProfile{data: data}
	p.ref = refcount.New(func() { p.data = nil })
	return p
}

// Retain adds a reference and returns p. It is a no-op on nil.
func (p *ColorProfile) Retain() *ColorProfile {
	if p != nil {
		p.ref.Retain()
	}
	return p
}

// Release drops a reference. The last release discards the bytes.
func (p *ColorProfile) Release() {
	if p != nil {
		p.ref.Release()
	}
}

// RefCount returns the current number of references.
func (p *ColorProfile) RefCount() int64 {
	if p == nil || p.ref == nil {
		return 0
	}
	return p.ref.Count()
}

// Data returns the ICC bytes. The slice must not be modified.
func (p *ColorProfile) Data() []byte {
	if p == nil {
		return nil
	}
	return p.data
}

// Size returns the length of the ICC bytes.
func (p *ColorProfile) Size() int {
	return len(p.Data())
}
