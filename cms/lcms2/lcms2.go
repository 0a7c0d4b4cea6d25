//go:build lcms2 && cgo

// Package lcms2 implements cms.Engine on top of Little CMS 2 through cgo.
// Build with -tags lcms2; the library is located with pkg-config.
package lcms2

/*
#cgo pkg-config: lcms2
#include <lcms2.h>
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"runtime"
	"sync"
	"unsafe"

	"github.com/mrjoshuak/go-iccimage/cms"
)

var (
	errOpen      = errors.New("lcms2: failed to open profile")
	errCreate    = errors.New("lcms2: failed to create profile")
	errTransform = errors.New("lcms2: failed to create transform")
	errSave      = errors.New("lcms2: failed to save profile")
	errWriteTag  = errors.New("lcms2: failed to write tag")
)

// Version returns the encoded CMM version of the linked library.
func Version() int {
	return int(C.cmsGetEncodedCMMversion())
}

// Engine implements cms.Engine with Little CMS 2.
type Engine struct{}

var _ cms.Engine = (*Engine)(nil)

// New returns an Engine.
func New() *Engine {
	return &Engine{}
}

type profile struct {
	mu sync.Mutex
	h  C.cmsHPROFILE
}

func newProfile(h C.cmsHPROFILE) *profile {
	p := &profile{h: h}
	runtime.SetFinalizer(p, (*profile).Close)
	return p
}

// Close releases the lcms2 profile.
func (p *profile) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.h != nil {
		C.cmsCloseProfile(p.h)
		p.h = nil
	}
}

func handle(p cms.Profile) (*profile, error) {
	prof, ok := p.(*profile)
	if !ok || prof == nil {
		return nil, cms.ErrUnsupportedProfile
	}
	if prof.h == nil {
		return nil, cms.ErrClosed
	}
	return prof, nil
}

// OpenProfile implements cms.Engine.
func (e *Engine) OpenProfile(data []byte) (cms.Profile, error) {
	if len(data) == 0 {
		return nil, errOpen
	}
	h := C.cmsOpenProfileFromMem(unsafe.Pointer(&data[0]), C.cmsUInt32Number(len(data)))
	if h == nil {
		return nil, errOpen
	}
	return newProfile(h), nil
}

// SRGBProfile implements cms.Engine.
func (e *Engine) SRGBProfile() (cms.Profile, error) {
	h := C.cmsCreate_sRGBProfile()
	if h == nil {
		return nil, errCreate
	}
	return newProfile(h), nil
}

func buildCurve(c cms.ToneCurve) (*C.cmsToneCurve, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var params [10]C.cmsFloat64Number
	for i, v := range c.Params {
		params[i] = C.cmsFloat64Number(v)
	}
	// lcms numbers parametric types from 1
	curve := C.cmsBuildParametricToneCurve(nil, C.cmsInt32Number(c.Type+1), &params[0])
	if curve == nil {
		return nil, errCreate
	}
	return curve, nil
}

// CreateRGBProfile implements cms.Engine.
func (e *Engine) CreateRGBProfile(white cms.CIExyY, primaries cms.Primaries, curves [3]cms.ToneCurve) (cms.Profile, error) {
	var tc [3]*C.cmsToneCurve
	defer func() {
		for _, c := range tc {
			if c != nil {
				C.cmsFreeToneCurve(c)
			}
		}
	}()
	for i, c := range curves {
		curve, err := buildCurve(c)
		if err != nil {
			return nil, err
		}
		tc[i] = curve
	}

	wp := xyY(white)
	prim := C.cmsCIExyYTRIPLE{
		Red:   xyY(primaries.Red),
		Green: xyY(primaries.Green),
		Blue:  xyY(primaries.Blue),
	}
	h := C.cmsCreateRGBProfile(&wp, &prim, &tc[0])
	if h == nil {
		return nil, errCreate
	}
	return newProfile(h), nil
}

func xyY(c cms.CIExyY) C.cmsCIExyY {
	return C.cmsCIExyY{x: C.cmsFloat64Number(c.X), y: C.cmsFloat64Number(c.Y), Y: 1}
}

// LinearizeProfile implements cms.Engine. The profile is copied through its
// serialized form and its TRC tags are replaced by gamma 1.0.
func (e *Engine) LinearizeProfile(p cms.Profile) (cms.Profile, error) {
	data, err := e.SaveProfile(p)
	if err != nil {
		return nil, err
	}
	out, err := e.OpenProfile(data)
	if err != nil {
		return nil, err
	}
	h := out.(*profile).h

	lin := C.cmsBuildGamma(nil, 1.0)
	if lin == nil {
		out.Close()
		return nil, errCreate
	}
	defer C.cmsFreeToneCurve(lin)

	for _, sig := range []C.cmsTagSignature{C.cmsSigRedTRCTag, C.cmsSigGreenTRCTag, C.cmsSigBlueTRCTag, C.cmsSigGrayTRCTag} {
		if C.cmsIsTag(h, sig) == 0 {
			continue
		}
		if C.cmsWriteTag(h, sig, unsafe.Pointer(lin)) == 0 {
			out.Close()
			return nil, errWriteTag
		}
	}
	return out, nil
}

// SaveProfile implements cms.Engine.
func (e *Engine) SaveProfile(p cms.Profile) ([]byte, error) {
	prof, err := handle(p)
	if err != nil {
		return nil, err
	}
	prof.mu.Lock()
	defer prof.mu.Unlock()

	var n C.cmsUInt32Number
	if C.cmsSaveProfileToMem(prof.h, nil, &n) == 0 || n == 0 {
		return nil, errSave
	}
	buf := C.malloc(C.size_t(n))
	if buf == nil {
		return nil, errSave
	}
	defer C.free(buf)
	if C.cmsSaveProfileToMem(prof.h, buf, &n) == 0 {
		return nil, errSave
	}
	return C.GoBytes(buf, C.int(n)), nil
}

type transform struct {
	h       C.cmsHTRANSFORM
	srcSize int
	dstSize int
	nocache bool
}

// CreateTransform implements cms.Engine.
func (e *Engine) CreateTransform(src cms.Profile, srcFmt cms.Format, dst cms.Profile, dstFmt cms.Format, intent cms.Intent, flags cms.Flags) (cms.Transform, error) {
	if !srcFmt.Valid() || !dstFmt.Valid() {
		return nil, cms.ErrUnsupportedFormat
	}
	sp, err := handle(src)
	if err != nil {
		return nil, err
	}
	dp, err := handle(dst)
	if err != nil {
		return nil, err
	}
	h := C.cmsCreateTransform(sp.h, C.cmsUInt32Number(srcFmt), dp.h, C.cmsUInt32Number(dstFmt),
		C.cmsUInt32Number(intent), C.cmsUInt32Number(flags))
	runtime.KeepAlive(sp)
	runtime.KeepAlive(dp)
	if h == nil {
		return nil, errTransform
	}
	t := &transform{
		h:       h,
		srcSize: srcFmt.PixelSize(),
		dstSize: dstFmt.PixelSize(),
		nocache: flags.Has(cms.FlagNoCache),
	}
	runtime.SetFinalizer(t, (*transform).Close)
	return t, nil
}

// Apply implements cms.Transform.
func (t *transform) Apply(in, out []byte, pixels int) error {
	if t.h == nil {
		return cms.ErrClosed
	}
	if pixels == 0 {
		return nil
	}
	if pixels < 0 || len(in) < pixels*t.srcSize || len(out) < pixels*t.dstSize {
		return cms.ErrShortBuffer
	}
	C.cmsDoTransform(t.h, unsafe.Pointer(&in[0]), unsafe.Pointer(&out[0]), C.cmsUInt32Number(pixels))
	runtime.KeepAlive(t)
	return nil
}

// ConcurrencySafe reports whether the transform was built without the
// one-pixel cache, which is the only mutable transform state in lcms2.
func (t *transform) ConcurrencySafe() bool {
	return t.nocache
}

// Close releases the lcms2 transform.
func (t *transform) Close() {
	if t.h != nil {
		C.cmsDeleteTransform(t.h)
		t.h = nil
	}
}
