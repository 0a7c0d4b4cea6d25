// Package gocms is a pure-Go colour engine for matrix/TRC RGB and gray
// profiles. It implements cms.Engine and needs no cgo.
//
// Profiles described only by LUTs (most CMYK and Lab printer profiles) are
// rejected with cms.ErrUnsupportedProfile. Perceptual and saturation intents
// fall back to relative colorimetric, which is what a matrix/TRC profile
// defines for all three.
package gocms

import (
	"fmt"

	"github.com/mrjoshuak/go-iccimage/cms"
	"seehuhn.de/go/icc"
)

// Engine implements cms.Engine. The zero value is ready to use and is safe
// for concurrent use.
type Engine struct{}

var _ cms.Engine = (*Engine)(nil)

// New returns an Engine.
func New() *Engine {
	return &Engine{}
}

// OpenProfile implements cms.Engine.
func (e *Engine) OpenProfile(data []byte) (cms.Profile, error) {
	// icc.Decode takes ownership of its input
	buf := append([]byte(nil), data...)
	raw, err := icc.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("gocms: decode profile: %w", err)
	}
	return newProfile(raw)
}

// SRGBProfile implements cms.Engine.
func (e *Engine) SRGBProfile() (cms.Profile, error) {
	return e.OpenProfile(icc.SRGBv4Profile)
}

// CreateRGBProfile implements cms.Engine.
func (e *Engine) CreateRGBProfile(white cms.CIExyY, primaries cms.Primaries, curves [3]cms.ToneCurve) (cms.Profile, error) {
	raw, err := buildRGB(white, primaries, curves)
	if err != nil {
		return nil, err
	}
	return newProfile(raw)
}

// LinearizeProfile implements cms.Engine.
func (e *Engine) LinearizeProfile(p cms.Profile) (cms.Profile, error) {
	src, err := asProfile(p)
	if err != nil {
		return nil, err
	}
	return newProfile(linearize(src.raw))
}

// SaveProfile implements cms.Engine.
func (e *Engine) SaveProfile(p cms.Profile) ([]byte, error) {
	prof, err := asProfile(p)
	if err != nil {
		return nil, err
	}
	data, err := prof.raw.Encode()
	if err != nil {
		return nil, fmt.Errorf("gocms: encode profile: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty encoding", cms.ErrUnsupportedProfile)
	}
	return data, nil
}

// CreateTransform implements cms.Engine.
func (e *Engine) CreateTransform(src cms.Profile, srcFmt cms.Format, dst cms.Profile, dstFmt cms.Format, intent cms.Intent, flags cms.Flags) (cms.Transform, error) {
	sp, err := asProfile(src)
	if err != nil {
		return nil, err
	}
	dp, err := asProfile(dst)
	if err != nil {
		return nil, err
	}
	return newTransform(sp, srcFmt, dp, dstFmt, intent, flags)
}
