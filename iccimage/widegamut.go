package iccimage

import (
	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/observability"
)

// WideGamutFlags are the engine flags for ConvertToLinearWideGamut.
// CopyAlpha is added when the image has an alpha channel.
const WideGamutFlags = cms.FlagHighResPrecalc | cms.FlagGamutCheck | cms.FlagNoOptimize | cms.FlagNoNegatives

// The fixed destination of ConvertToLinearWideGamut: a D65 white derived
// from 6504 K, P3 primaries and linear transfer on every channel.
const wideGamutTemperature = 6504

var wideGamutPrimaries = cms.Primaries{
	Red:   cms.CIExyY{X: 0.680, Y: 0.320, Lum: 1},
	Green: cms.CIExyY{X: 0.265, Y: 0.690, Lum: 1},
	Blue:  cms.CIExyY{X: 0.150, Y: 0.060, Lum: 1},
}

// ConvertToLinearWideGamut converts data, described by layout and tagged
// with srcProfile (sRGB when empty), to a linear wide-gamut RGB space using
// absolute colorimetric intent. The result is a new owned image carrying the
// synthesized profile; data is not modified.
func (c *Converter) ConvertToLinearWideGamut(data []byte, layout Layout, srcProfile []byte) (*Image, error) {
	if err := layout.validateBuffer(len(data)); err != nil {
		return nil, c.fail(err.(*Error))
	}
	layout = layout.normalized()

	var src cms.Profile
	var err error
	if len(srcProfile) == 0 {
		src, err = c.engine.SRGBProfile()
	} else {
		src, err = c.engine.OpenProfile(srcProfile)
	}
	if err != nil {
		return nil, c.fail(newError(CodeProfileOpenFailure, err, "open source profile"))
	}
	defer src.Close()

	white, err := cms.WhitePointFromTemp(wideGamutTemperature)
	if err != nil {
		return nil, c.fail(newError(CodeProfileOpenFailure, err, "wide-gamut white point"))
	}
	lin := cms.Gamma(1)
	dst, err := c.engine.CreateRGBProfile(white, wideGamutPrimaries, [3]cms.ToneCurve{lin, lin, lin})
	if err != nil {
		return nil, c.fail(newError(CodeProfileOpenFailure, err, "create wide-gamut profile"))
	}
	defer dst.Close()

	res, err := c.transform(data, layout, src, dst, cms.IntentAbsoluteColorimetric, WideGamutFlags)
	if err != nil {
		return nil, c.fail(err.(*Error))
	}
	defer res.release()

	saved, err := c.engine.SaveProfile(dst)
	if err != nil {
		return nil, c.fail(newError(CodeProfileSaveFailure, err, "save wide-gamut profile"))
	}

	buf := make([]byte, len(data))
	res.commitTo(buf)
	c.log.Debug("converted to linear wide gamut",
		observability.Int("width", layout.Width),
		observability.Int("height", layout.Height))
	return newImage(&Owned{buf: buf}, layout, wrapProfile(saved)), nil
}

// ConvertToLinearWideGamut calls the default converter's method.
func ConvertToLinearWideGamut(data []byte, layout Layout, srcProfile []byte) (*Image, error) {
	return DefaultConverter().ConvertToLinearWideGamut(data, layout, srcProfile)
}
