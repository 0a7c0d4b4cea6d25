package gocms

import (
	"fmt"
	"maps"
	"sync/atomic"

	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/internal/icctag"
	"seehuhn.de/go/icc"
)

// profile is an opened or synthesized matrix/TRC profile. It is immutable
// apart from the closed flag.
type profile struct {
	raw    *icc.Profile
	model  *icctag.Model
	closed atomic.Bool
}

func (p *profile) Close() {
	p.closed.Store(true)
}

func newProfile(raw *icc.Profile) (*profile, error) {
	switch raw.Class {
	case icc.DeviceLinkProfile, icc.AbstractProfile, icc.NamedColorProfile:
		return nil, fmt.Errorf("%w: class %v", cms.ErrUnsupportedProfile, raw.Class)
	}
	if raw.PCS != icc.CIEXYZSpace {
		return nil, fmt.Errorf("%w: PCS %v", cms.ErrUnsupportedProfile, raw.PCS)
	}
	m, err := icctag.ReadModel(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cms.ErrUnsupportedProfile, err)
	}
	return &profile{raw: raw, model: m}, nil
}

func asProfile(p cms.Profile) (*profile, error) {
	prof, ok := p.(*profile)
	if !ok || prof == nil {
		return nil, fmt.Errorf("%w: handle from another engine", cms.ErrUnsupportedProfile)
	}
	if prof.closed.Load() {
		return nil, cms.ErrClosed
	}
	return prof, nil
}

const builtinDescription = "RGB built-in"

// buildRGB synthesizes a version 4 display profile. Colorants are adapted
// to D50 with Bradford and the adaptation is recorded in a chad tag.
func buildRGB(white cms.CIExyY, primaries cms.Primaries, curves [3]cms.ToneCurve) (*icc.Profile, error) {
	if white.Y <= 0 {
		return nil, fmt.Errorf("gocms: white point y must be positive")
	}
	white.Lum = 1
	trc := [3]icctag.Parametric{}
	for i, c := range curves {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		trc[i] = icctag.Parametric{Type: c.Type, Params: c.Params}
	}

	prim := [3]cms.CIExyY{primaries.Red, primaries.Green, primaries.Blue}
	var cols [3][3]float64
	for i, p := range prim {
		if p.Y <= 0 {
			return nil, fmt.Errorf("gocms: primary %d has non-positive y", i)
		}
		p.Lum = 1
		cols[i] = p.XYZ()
	}
	pm := columns(cols)
	pmInv, err := pm.inverse()
	if err != nil {
		return nil, fmt.Errorf("gocms: primaries are collinear: %w", err)
	}
	wXYZ := vec3(white.XYZ())
	s := pmInv.apply(wXYZ)
	rgbToXYZ := pm.mul(diag(s))

	chad, err := adaptationMatrix(wXYZ, vec3(icctag.D50))
	if err != nil {
		return nil, err
	}
	adapted := chad.mul(rgbToXYZ)

	tags := map[icc.TagType][]byte{
		icctag.Description:         icctag.EncodeMLUC(builtinDescription),
		icctag.Copyright:           icctag.EncodeMLUC("No copyright, use freely"),
		icctag.MediaWhitePoint:     icctag.EncodeXYZ(icctag.D50),
		icctag.ChromaticAdaptation: icctag.EncodeMatrix(chad),
		icctag.RedColorant:         icctag.EncodeXYZ([3]float64{adapted[0][0], adapted[1][0], adapted[2][0]}),
		icctag.GreenColorant:       icctag.EncodeXYZ([3]float64{adapted[0][1], adapted[1][1], adapted[2][1]}),
		icctag.BlueColorant:        icctag.EncodeXYZ([3]float64{adapted[0][2], adapted[1][2], adapted[2][2]}),
		icctag.RedTRC:              icctag.EncodeParametric(trc[0]),
		icctag.GreenTRC:            icctag.EncodeParametric(trc[1]),
		icctag.BlueTRC:             icctag.EncodeParametric(trc[2]),
	}
	return &icc.Profile{
		Version:    icc.Version4_3_0,
		Class:      icc.DisplayDeviceProfile,
		ColorSpace: icc.RGBSpace,
		PCS:        icc.CIEXYZSpace,
		TagData:    tags,
	}, nil
}

// linearize returns a copy of raw with every TRC replaced by the identity.
func linearize(raw *icc.Profile) *icc.Profile {
	out := *raw
	out.TagData = maps.Clone(raw.TagData)
	lin := icctag.EncodeParametric(icctag.Gamma(1))
	for _, tag := range []icc.TagType{icctag.RedTRC, icctag.GreenTRC, icctag.BlueTRC, icctag.GrayTRC} {
		if _, ok := out.TagData[tag]; ok {
			out.TagData[tag] = lin
		}
	}
	if name := icctag.ReadDescription(raw); name != "" {
		out.TagData[icctag.Description] = icctag.EncodeMLUC(name + " (linear)")
	}
	return &out
}
