package iccimage

import (
	"sync"

	"github.com/mrjoshuak/go-iccimage/internal/icctag"
	"seehuhn.de/go/icc"
)

type profileInfo struct {
	name   string
	linear bool
	srgb   bool
}

var srgbModel = sync.OnceValue(func() *icctag.Model {
	p, err := icc.Decode(append([]byte(nil), icc.SRGBv4Profile...))
	if err != nil {
		return nil
	}
	m, err := icctag.ReadModel(p)
	if err != nil {
		return nil
	}
	return m
})

// srgbTolerance absorbs s15Fixed16 quantization and the small differences
// between published sRGB profiles.
const srgbTolerance = 2e-3

func (p *ColorProfile) inspect() profileInfo {
	p.infoOnce.Do(func() {
		raw, err := icc.Decode(append([]byte(nil), p.Data()...))
		if err != nil {
			return
		}
		p.info.name = icctag.ReadDescription(raw)
		m, err := icctag.ReadModel(raw)
		if err != nil {
			return
		}
		p.info.linear = m.IsLinear()
		if ref := srgbModel(); ref != nil {
			p.info.srgb = m.Matches(ref, srgbTolerance)
		}
	})
	return p.info
}

// Name returns the profile description, or "" if the profile has none or
// cannot be parsed.
func (p *ColorProfile) Name() string {
	if p == nil {
		return ""
	}
	return p.inspect().name
}

// IsLinear reports whether every tone curve of a matrix/TRC profile is the
// identity. Profiles that cannot be parsed report false.
func (p *ColorProfile) IsLinear() bool {
	if p == nil {
		return false
	}
	return p.inspect().linear
}

// IsSRGB reports whether the profile has sRGB colorants and tone curves.
// A nil profile stands for sRGB and reports true.
func (p *ColorProfile) IsSRGB() bool {
	if p == nil {
		return true
	}
	return p.inspect().srgb
}
