package gocms

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/internal/icctag"
	"seehuhn.de/go/icc"
)

// transform maps device values through linearization, a single combined
// matrix and the inverse destination curves. It holds no mutable state, so
// Apply may run concurrently on disjoint buffers.
type transform struct {
	srcFmt, dstFmt cms.Format
	srcCurves      [3]icctag.Curve
	dstCurves      [3]icctag.Curve
	m              mat3

	noNegatives bool
	copyAlpha   bool
	whiteFixup  bool

	closed atomic.Bool
}

var _ cms.ConcurrentTransform = (*transform)(nil)

func spaceOf(f cms.Format) icc.ColorSpace {
	switch f.Space() {
	case cms.SpaceGray:
		return icc.GraySpace
	case cms.SpaceRGB:
		return icc.RGBSpace
	}
	return 0
}

// toPCS returns the matrix taking linear device values to PCS XYZ. Gray
// values travel in the first component.
func toPCS(m *icctag.Model) mat3 {
	if m.Space == icc.GraySpace {
		return mat3{{icctag.D50[0], 0, 0}, {icctag.D50[1], 0, 0}, {icctag.D50[2], 0, 0}}
	}
	return columns(m.Colorants)
}

func fromPCS(m *icctag.Model) (mat3, error) {
	if m.Space == icc.GraySpace {
		return mat3{{0, 1, 0}}, nil
	}
	return columns(m.Colorants).inverse()
}

func newTransform(src *profile, srcFmt cms.Format, dst *profile, dstFmt cms.Format, intent cms.Intent, flags cms.Flags) (*transform, error) {
	if !srcFmt.Valid() || !dstFmt.Valid() {
		return nil, cms.ErrUnsupportedFormat
	}
	if spaceOf(srcFmt) != src.model.Space {
		return nil, fmt.Errorf("%w: %v with %v profile", cms.ErrFormatMismatch, srcFmt, src.model.Space)
	}
	if spaceOf(dstFmt) != dst.model.Space {
		return nil, fmt.Errorf("%w: %v with %v profile", cms.ErrFormatMismatch, dstFmt, dst.model.Space)
	}

	out, err := fromPCS(dst.model)
	if err != nil {
		return nil, fmt.Errorf("%w: destination colorants are singular", cms.ErrUnsupportedProfile)
	}
	scale := identity3
	if intent == cms.IntentAbsoluteColorimetric {
		sw, dw := src.model.MediaWhite, dst.model.MediaWhite
		scale = diag(vec3{sw[0] / dw[0], sw[1] / dw[1], sw[2] / dw[2]})
	}

	return &transform{
		srcFmt:      srcFmt,
		dstFmt:      dstFmt,
		srcCurves:   src.model.Curves,
		dstCurves:   dst.model.Curves,
		m:           out.mul(scale).mul(toPCS(src.model)),
		noNegatives: flags.Has(cms.FlagNoNegatives),
		copyAlpha:   flags.Has(cms.FlagCopyAlpha),
		whiteFixup:  !flags.Has(cms.FlagNoWhiteOnWhiteFixup) && intent != cms.IntentAbsoluteColorimetric,
	}, nil
}

func (t *transform) Close() {
	t.closed.Store(true)
}

func (t *transform) ConcurrencySafe() bool { return true }

// Apply implements cms.Transform.
func (t *transform) Apply(in, out []byte, pixels int) error {
	if t.closed.Load() {
		return cms.ErrClosed
	}
	inSize, outSize := t.srcFmt.PixelSize(), t.dstFmt.PixelSize()
	if pixels < 0 || len(in) < pixels*inSize || len(out) < pixels*outSize {
		return cms.ErrShortBuffer
	}

	nIn, nOut := t.srcFmt.ColorChannels(), t.dstFmt.ColorChannels()
	inBytes, outBytes := t.srcFmt.Bytes(), t.dstFmt.Bytes()
	for p := 0; p < pixels; p++ {
		src := in[p*inSize : (p+1)*inSize]
		dst := out[p*outSize : (p+1)*outSize]

		var v vec3
		white := true
		for c := 0; c < nIn; c++ {
			x := readSample(src[c*inBytes:], t.srcFmt)
			if x < 1 {
				white = false
			}
			v[c] = t.srcCurves[c].Eval(x)
		}

		if white && t.whiteFixup && !t.dstFmt.IsFloat() {
			for c := 0; c < nOut; c++ {
				writeSample(dst[c*outBytes:], t.dstFmt, 1)
			}
		} else {
			v = t.m.apply(v)
			for c := 0; c < nOut; c++ {
				y := t.dstCurves[c].Inverse(v[c])
				if t.noNegatives && y < 0 {
					y = 0
				}
				writeSample(dst[c*outBytes:], t.dstFmt, y)
			}
		}

		if t.copyAlpha && t.srcFmt.HasAlpha() && t.dstFmt.HasAlpha() {
			a := readSample(src[nIn*inBytes:], t.srcFmt)
			writeSample(dst[nOut*outBytes:], t.dstFmt, a)
		}
	}
	return nil
}

func readSample(b []byte, f cms.Format) float64 {
	switch f.Bytes() {
	case 1:
		return float64(b[0]) / 255
	case 2:
		return float64(binary.LittleEndian.Uint16(b)) / 65535
	default:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
}

// writeSample stores v. Integer formats clamp to [0, 1]; float formats
// keep the value as is.
func writeSample(b []byte, f cms.Format, v float64) {
	switch f.Bytes() {
	case 1:
		b[0] = uint8(math.Round(clamp01(v) * 255))
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(math.Round(clamp01(v)*65535)))
	default:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	}
}

func clamp01(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v >= 0:
		return v
	}
	// NaN lands here as well
	return 0
}
