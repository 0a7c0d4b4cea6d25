// Package cms defines the capability interface of a colour transform engine
// and the value types shared by its implementations.
//
// An Engine opens and synthesizes ICC profiles, builds transforms between
// them for a given pixel Format, and serializes profiles back to ICC bytes.
// The bundled pure-Go engine lives in cms/gocms; a cgo binding to Little
// CMS 2 lives in cms/lcms2 behind the lcms2 build tag.
package cms

import "errors"

// Errors shared by engine implementations.
var (
	ErrUnsupportedFormat  = errors.New("cms: unsupported pixel format")
	ErrUnsupportedProfile = errors.New("cms: unsupported profile")
	ErrFormatMismatch     = errors.New("cms: pixel format does not match profile colour space")
	ErrInvalidCurve       = errors.New("cms: invalid tone curve")
	ErrTemperatureRange   = errors.New("cms: colour temperature out of range")
	ErrShortBuffer        = errors.New("cms: buffer too small")
	ErrClosed             = errors.New("cms: handle is closed")
)

// Engine is the set of operations the conversion pipeline needs from a
// colour management module. Implementations must be safe for concurrent use
// by independent callers; individual handles need not be.
type Engine interface {
	// OpenProfile parses ICC profile bytes. The engine must not retain data.
	OpenProfile(data []byte) (Profile, error)

	// SRGBProfile returns a handle to the engine's built-in sRGB profile.
	SRGBProfile() (Profile, error)

	// CreateRGBProfile synthesizes a matrix/TRC RGB profile.
	CreateRGBProfile(white CIExyY, primaries Primaries, curves [3]ToneCurve) (Profile, error)

	// LinearizeProfile derives a profile with the same colorants as p and
	// identity tone curves.
	LinearizeProfile(p Profile) (Profile, error)

	// CreateTransform builds a transform from src in srcFmt to dst in dstFmt.
	CreateTransform(src Profile, srcFmt Format, dst Profile, dstFmt Format, intent Intent, flags Flags) (Transform, error)

	// SaveProfile serializes p into canonical ICC bytes.
	SaveProfile(p Profile) ([]byte, error)
}

// Profile is an engine-owned profile handle.
type Profile interface {
	Close()
}

// Transform is an engine-owned transform handle.
type Transform interface {
	// Apply converts pixels pixels from in to out. in and out are laid out
	// in the source and destination formats of the transform.
	Apply(in, out []byte, pixels int) error
	Close()
}

// ConcurrentTransform is implemented by transforms whose Apply may be
// called from several goroutines at once on disjoint buffers.
type ConcurrentTransform interface {
	Transform
	ConcurrencySafe() bool
}

// IsConcurrencySafe reports whether t may be applied concurrently.
func IsConcurrencySafe(t Transform) bool {
	ct, ok := t.(ConcurrentTransform)
	return ok && ct.ConcurrencySafe()
}

// Intent is an ICC rendering intent.
type Intent uint32

// Rendering intents. The values match the ICC header encoding.
const (
	IntentPerceptual           Intent = 0
	IntentRelativeColorimetric Intent = 1
	IntentSaturation           Intent = 2
	IntentAbsoluteColorimetric Intent = 3
)

func (i Intent) String() string {
	switch i {
	case IntentPerceptual:
		return "perceptual"
	case IntentRelativeColorimetric:
		return "relative"
	case IntentSaturation:
		return "saturation"
	case IntentAbsoluteColorimetric:
		return "absolute"
	}
	return "unknown"
}

// Flags tune transform construction. The bit values are those of Little
// CMS 2 so they can be passed through unchanged.
type Flags uint32

const (
	FlagNoWhiteOnWhiteFixup Flags = 0x0004
	FlagNoCache             Flags = 0x0040
	FlagNoOptimize          Flags = 0x0100
	FlagHighResPrecalc      Flags = 0x0400
	FlagGamutCheck          Flags = 0x1000
	FlagNoNegatives         Flags = 0x8000
	FlagCopyAlpha           Flags = 0x04000000
)

// Has reports whether every bit of mask is set in f.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}
