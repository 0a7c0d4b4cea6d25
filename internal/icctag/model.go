package icctag

import (
	"fmt"
	"math"

	"seehuhn.de/go/icc"
)

// Model is the matrix/TRC description of an RGB or gray profile.
type Model struct {
	Space icc.ColorSpace

	// Colorants holds the PCS XYZ of the red, green and blue colorants.
	// Unused for gray profiles.
	Colorants [3][3]float64

	// Curves holds the device TRCs. Gray profiles use Curves[0] only.
	Curves [3]Curve

	// MediaWhite is the media white point used for absolute intent.
	MediaWhite [3]float64
}

// ReadModel extracts the matrix/TRC model from p. Profiles that describe
// their transform only through LUTs are rejected.
func ReadModel(p *icc.Profile) (*Model, error) {
	m := &Model{Space: p.ColorSpace, MediaWhite: mediaWhite(p)}

	switch p.ColorSpace {
	case icc.RGBSpace:
		tags := [3][2]icc.TagType{
			{RedColorant, RedTRC},
			{GreenColorant, GreenTRC},
			{BlueColorant, BlueTRC},
		}
		for i, t := range tags {
			data, ok := p.TagData[t[0]]
			if !ok {
				return nil, fmt.Errorf("%w: colorant %d", ErrMissingTag, i)
			}
			xyz, err := DecodeXYZ(data)
			if err != nil {
				return nil, err
			}
			m.Colorants[i] = xyz

			if m.Curves[i], err = readCurve(p, t[1]); err != nil {
				return nil, err
			}
		}
	case icc.GraySpace:
		c, err := readCurve(p, GrayTRC)
		if err != nil {
			return nil, err
		}
		m.Curves[0] = c
	default:
		return nil, fmt.Errorf("icctag: colour space %v is not matrix/TRC", p.ColorSpace)
	}
	return m, nil
}

func readCurve(p *icc.Profile, tag icc.TagType) (Curve, error) {
	data, ok := p.TagData[tag]
	if !ok {
		return nil, fmt.Errorf("%w: TRC 0x%08X", ErrMissingTag, uint32(tag))
	}
	return DecodeCurve(data)
}

// mediaWhite follows Little CMS: version 2 display profiles are treated as
// D50 and a missing or broken wtpt tag falls back to D50.
func mediaWhite(p *icc.Profile) [3]float64 {
	if p.Version < icc.Version4_0_0 && p.Class == icc.DisplayDeviceProfile {
		return D50
	}
	data, ok := p.TagData[MediaWhitePoint]
	if !ok {
		return D50
	}
	xyz, err := DecodeXYZ(data)
	if err != nil || xyz[1] <= 0 {
		return D50
	}
	return xyz
}

// IsLinear reports whether every TRC of the model is the identity.
func (m *Model) IsLinear() bool {
	n := 3
	if m.Space == icc.GraySpace {
		n = 1
	}
	for _, c := range m.Curves[:n] {
		if !c.IsLinear() {
			return false
		}
	}
	return true
}

// Matches reports whether m and o describe the same colorants and curves
// within tol. Curves are compared on a fixed set of sample points.
func (m *Model) Matches(o *Model, tol float64) bool {
	if m.Space != o.Space {
		return false
	}
	n := 1
	if m.Space == icc.RGBSpace {
		n = 3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if math.Abs(m.Colorants[i][j]-o.Colorants[i][j]) > tol {
					return false
				}
			}
		}
	}
	for i := 0; i < n; i++ {
		for s := 0; s <= 16; s++ {
			x := float64(s) / 16
			if math.Abs(m.Curves[i].Eval(x)-o.Curves[i].Eval(x)) > tol {
				return false
			}
		}
	}
	return true
}

// ReadDescription returns the profile description, or "" if it has none.
func ReadDescription(p *icc.Profile) string {
	data, ok := p.TagData[Description]
	if !ok {
		return ""
	}
	s, err := DecodeText(data)
	if err != nil {
		return ""
	}
	return s
}
