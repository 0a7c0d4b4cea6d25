package iccimage

import (
	"fmt"
	"strings"

	"github.com/mrjoshuak/go-iccimage/cms"
)

// Preset names a built-in colour space.
type Preset int

const (
	PresetSRGB Preset = iota
	PresetRec709
	PresetRec2020
	PresetDCIP3
	PresetDCIP3D65
)

var presetNames = map[Preset]string{
	PresetSRGB:     "srgb",
	PresetRec709:   "rec709",
	PresetRec2020:  "rec2020",
	PresetDCIP3:    "dcip3",
	PresetDCIP3D65: "dcip3d65",
}

func (p Preset) String() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Preset(%d)", int(p))
}

// ParsePreset looks up a preset by name, ignoring case, "-" and "_".
func ParsePreset(name string) (Preset, error) {
	key := strings.NewReplacer("-", "", "_", "", ".", "", " ", "").Replace(strings.ToLower(name))
	for p, n := range presetNames {
		if n == key {
			return p, nil
		}
	}
	return 0, fmt.Errorf("iccimage: unknown preset %q", name)
}

type presetDef struct {
	white     cms.CIExyY
	primaries cms.Primaries
	curve     cms.ToneCurve
}

var (
	rec709Primaries = cms.Primaries{
		Red:   cms.CIExyY{X: 0.64, Y: 0.33, Lum: 1},
		Green: cms.CIExyY{X: 0.30, Y: 0.60, Lum: 1},
		Blue:  cms.CIExyY{X: 0.15, Y: 0.06, Lum: 1},
	}
	rec2020Primaries = cms.Primaries{
		Red:   cms.CIExyY{X: 0.708, Y: 0.292, Lum: 1},
		Green: cms.CIExyY{X: 0.170, Y: 0.797, Lum: 1},
		Blue:  cms.CIExyY{X: 0.131, Y: 0.046, Lum: 1},
	}
	p3Primaries = cms.Primaries{
		Red:   cms.CIExyY{X: 0.680, Y: 0.320, Lum: 1},
		Green: cms.CIExyY{X: 0.265, Y: 0.690, Lum: 1},
		Blue:  cms.CIExyY{X: 0.150, Y: 0.060, Lum: 1},
	}
	dciWhite = cms.CIExyY{X: 0.314, Y: 0.351, Lum: 1}
)

var presetDefs = map[Preset]presetDef{
	PresetRec709:   {cms.D65, rec709Primaries, cms.Rec709Curve()},
	PresetRec2020:  {cms.D65, rec2020Primaries, cms.Rec709Curve()},
	PresetDCIP3:    {dciWhite, p3Primaries, cms.Gamma(2.6)},
	PresetDCIP3D65: {cms.D65, p3Primaries, cms.Gamma(2.6)},
}

// NewPreset serializes a preset through the converter's engine. sRGB comes
// from the engine's built-in profile; the others are synthesized.
func (c *Converter) NewPreset(p Preset) (*ColorProfile, error) {
	var h cms.Profile
	var err error
	if p == PresetSRGB {
		h, err = c.engine.SRGBProfile()
	} else {
		def, ok := presetDefs[p]
		if !ok {
			return nil, newError(CodeNotImplemented, nil, "preset %v", p)
		}
		curves := [3]cms.ToneCurve{def.curve, def.curve, def.curve}
		h, err = c.engine.CreateRGBProfile(def.white, def.primaries, curves)
	}
	if err != nil {
		return nil, newError(CodeProfileOpenFailure, err, "create %v profile", p)
	}
	defer h.Close()

	data, err := c.engine.SaveProfile(h)
	if err != nil {
		return nil, newError(CodeProfileSaveFailure, err, "save %v profile", p)
	}
	return wrapProfile(data), nil
}

// Linearize derives a profile with the colorants of p and linear tone
// curves. A profile that is already linear is retained and returned.
func (c *Converter) Linearize(p *ColorProfile) (*ColorProfile, error) {
	if p != nil && p.IsLinear() {
		return p.Retain(), nil
	}
	h, err := c.openProfile(p)
	if err != nil {
		return nil, newError(CodeProfileOpenFailure, err, "open profile")
	}
	defer h.Close()

	lin, err := c.engine.LinearizeProfile(h)
	if err != nil {
		return nil, newError(CodeProfileOpenFailure, err, "linearize profile")
	}
	defer lin.Close()

	data, err := c.engine.SaveProfile(lin)
	if err != nil {
		return nil, newError(CodeProfileSaveFailure, err, "save linear profile")
	}
	return wrapProfile(data), nil
}

// SRGB returns the sRGB preset from the default converter.
func SRGB() (*ColorProfile, error) { return DefaultConverter().NewPreset(PresetSRGB) }

// Rec709 returns the ITU-R BT.709 preset.
func Rec709() (*ColorProfile, error) { return DefaultConverter().NewPreset(PresetRec709) }

// Rec2020 returns the ITU-R BT.2020 preset.
func Rec2020() (*ColorProfile, error) { return DefaultConverter().NewPreset(PresetRec2020) }

// DCIP3 returns the DCI-P3 preset with the DCI white point.
func DCIP3() (*ColorProfile, error) { return DefaultConverter().NewPreset(PresetDCIP3) }

// DCIP3D65 returns the DCI-P3 preset with a D65 white point.
func DCIP3D65() (*ColorProfile, error) { return DefaultConverter().NewPreset(PresetDCIP3D65) }

// Linear returns a linear-TRC variant of p using the default converter.
// A nil p is treated as sRGB.
func (p *ColorProfile) Linear() (*ColorProfile, error) {
	return DefaultConverter().Linearize(p)
}
