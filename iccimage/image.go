package iccimage

import (
	"math"

	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/internal/refcount"
)

// Encoding is the numeric interpretation of stored samples.
type Encoding = cms.Encoding

const (
	EncodingAuto    = cms.EncodingAuto
	EncodingUint8   = cms.EncodingUint8
	EncodingUint16  = cms.EncodingUint16
	EncodingHalf    = cms.EncodingHalf
	EncodingFloat32 = cms.EncodingFloat32
)

// Layout describes the geometry and sample format of a pixel buffer.
// Samples are interleaved and multi-byte samples are little-endian.
type Layout struct {
	Width         int
	Height        int
	Channels      int // 1 gray, 2 gray+alpha, 3 RGB, 4 RGBA
	ComponentSize int // bytes per sample: 1, 2 or 4
	Encoding      Encoding
	HDR           bool
}

// Size returns the buffer length the layout requires, or -1 if it
// overflows int.
func (l Layout) Size() int {
	n := int64(1)
	for _, f := range []int{l.Width, l.Height, l.Channels, l.ComponentSize} {
		if f <= 0 {
			return 0
		}
		if n > math.MaxInt/int64(f) {
			return -1
		}
		n *= int64(f)
	}
	return int(n)
}

// Validate checks the layout on its own.
func (l Layout) Validate() error {
	if l.Width < 1 || l.Height < 1 {
		return newError(CodeInvalidDimension, nil, "invalid dimensions %dx%d", l.Width, l.Height)
	}
	if l.Channels < 1 || l.Channels > 4 {
		return newError(CodeInvalidChannelCount, nil, "invalid channel count %d", l.Channels)
	}
	if l.ComponentSize != 1 && l.ComponentSize != 2 && l.ComponentSize != 4 {
		return newError(CodeInvalidComponentWidth, nil, "invalid component width %d", l.ComponentSize)
	}
	if l.Encoding != EncodingAuto && l.Encoding.Size() != l.ComponentSize {
		return newError(CodeInvalidComponentWidth, nil, "encoding %v does not fit %d-byte components", l.Encoding, l.ComponentSize)
	}
	if l.Size() < 0 {
		return newError(CodeInvalidDimension, nil, "image of %dx%d is too large", l.Width, l.Height)
	}
	return nil
}

func (l Layout) validateBuffer(n int) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if n != l.Size() {
		return newError(CodeInvalidBufferSize, nil, "buffer holds %d bytes, layout needs %d", n, l.Size())
	}
	return nil
}

func (l Layout) normalized() Layout {
	if l.Encoding == EncodingAuto {
		l.Encoding = cms.DefaultEncoding(l.ComponentSize)
	}
	return l
}

// Image is a reference-counted raster with an optional colour profile.
// A nil profile means sRGB.
//
// An Image must not be converted while other goroutines use it. Retain and
// Release are safe from any goroutine.
type Image struct {
	layout  Layout
	storage Storage
	profile *ColorProfile
	ref     *refcount.Counter
}

// NewImage copies data into a new image. profile may be nil; otherwise the
// image retains it.
func NewImage(data []byte, layout Layout, profile *ColorProfile) (*Image, error) {
	if err := layout.validateBuffer(len(data)); err != nil {
		return nil, err
	}
	return newImage(&Owned{buf: append([]byte(nil), data...)}, layout, profile.Retain()), nil
}

// NewImageBorrowing wraps data without copying. The caller keeps ownership
// of data, must keep it alive for the image's lifetime and must not modify
// it concurrently. Conversions write the result into data.
func NewImageBorrowing(data []byte, layout Layout, profile *ColorProfile) (*Image, error) {
	if err := layout.validateBuffer(len(data)); err != nil {
		return nil, err
	}
	return newImage(&Borrowed{buf: data}, layout, profile.Retain()), nil
}

// newImage takes over the reference held on profile.
func newImage(s Storage, layout Layout, profile *ColorProfile) *Image {
	img := &Image{layout: layout.normalized(), storage: s, profile: profile}
	img.ref = refcount.New(img.destroy)
	return img
}

func (img *Image) destroy() {
	releaseStorage(img.storage)
	img.profile.Release()
	img.profile = nil
}

// Retain adds a reference and returns img. It is a no-op on nil.
func (img *Image) Retain() *Image {
	if img != nil {
		img.ref.Retain()
	}
	return img
}

// Release drops a reference. The last release drops the pixel storage and
// releases the profile; borrowed buffers are left untouched.
func (img *Image) Release() {
	if img != nil && img.ref != nil {
		img.ref.Release()
	}
}

// RefCount returns the current number of references.
func (img *Image) RefCount() int64 {
	if img == nil || img.ref == nil {
		return 0
	}
	return img.ref.Count()
}

func (img *Image) Width() int         { return img.layout.Width }
func (img *Image) Height() int        { return img.layout.Height }
func (img *Image) Channels() int      { return img.layout.Channels }
func (img *Image) ComponentSize() int { return img.layout.ComponentSize }
func (img *Image) Encoding() Encoding { return img.layout.Encoding }
func (img *Image) IsHDR() bool        { return img.layout.HDR }
func (img *Image) Layout() Layout     { return img.layout }

// Data returns the pixel bytes. For owned images the slice must not be
// retained past the image's last release.
func (img *Image) Data() []byte {
	return storageBytes(img.storage)
}

// DataSize returns the length of the pixel buffer.
func (img *Image) DataSize() int {
	return len(img.Data())
}

// Profile returns the attached profile without adding a reference, or nil
// for sRGB. Call Retain on it to keep it beyond the image.
func (img *Image) Profile() *ColorProfile {
	return img.profile
}

// Ownership reports whether the image owns its pixel buffer.
func (img *Image) Ownership() Ownership {
	return storageOwnership(img.storage)
}

// ConvertColorProfile converts img in place to target using the default
// converter. target may be nil for sRGB.
func (img *Image) ConvertColorProfile(target *ColorProfile) error {
	return DefaultConverter().ConvertColorProfile(img, target)
}
