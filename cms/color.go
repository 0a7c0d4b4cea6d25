package cms

import (
	"fmt"
	"math"
)

// CIExyY is a chromaticity (X, Y) with luminance Lum.
type CIExyY struct {
	X, Y, Lum float64
}

// XYZ converts c to CIE XYZ.
func (c CIExyY) XYZ() [3]float64 {
	if c.Y == 0 {
		return [3]float64{}
	}
	return [3]float64{
		c.X / c.Y * c.Lum,
		c.Lum,
		(1 - c.X - c.Y) / c.Y * c.Lum,
	}
}

// Primaries holds the chromaticities of the red, green and blue colorants.
type Primaries struct {
	Red, Green, Blue CIExyY
}

// Standard illuminants.
var (
	D50 = CIExyY{X: 0.3457, Y: 0.3585, Lum: 1}
	D65 = CIExyY{X: 0.3127, Y: 0.3290, Lum: 1}
)

// WhitePointFromTemp returns the CIE daylight chromaticity for a correlated
// colour temperature in kelvin. Valid temperatures are 4000 K to 25000 K.
func WhitePointFromTemp(kelvin float64) (CIExyY, error) {
	t := kelvin
	t2 := t * t
	t3 := t2 * t

	var x float64
	switch {
	case t >= 4000 && t <= 7000:
		x = -4.6070*(1e9/t3) + 2.9678*(1e6/t2) + 0.09911*(1e3/t) + 0.244063
	case t > 7000 && t <= 25000:
		x = -2.0064*(1e9/t3) + 1.9018*(1e6/t2) + 0.24748*(1e3/t) + 0.237040
	default:
		return CIExyY{}, fmt.Errorf("%w: %g K", ErrTemperatureRange, kelvin)
	}
	y := -3.000*(x*x) + 2.870*x - 0.275
	return CIExyY{X: x, Y: y, Lum: 1}, nil
}

// ToneCurve is an ICC parametric curve. Type is the ICC function type
// (0 to 4); Params holds g, a, b, c, d, e, f as far as the type uses them.
//
//	0: Y = X^g
//	1: Y = (aX+b)^g            X >= -b/a, else 0
//	2: Y = (aX+b)^g + c        X >= -b/a, else c
//	3: Y = (aX+b)^g            X >= d,    else cX
//	4: Y = (aX+b)^g + e        X >= d,    else cX + f
type ToneCurve struct {
	Type   int
	Params []float64
}

var paramCount = [5]int{1, 3, 4, 5, 7}

// Gamma returns a pure power curve.
func Gamma(g float64) ToneCurve {
	return ToneCurve{Type: 0, Params: []float64{g}}
}

// Rec709Curve returns the ITU-R BT.709 transfer curve.
func Rec709Curve() ToneCurve {
	return ToneCurve{Type: 3, Params: []float64{1 / 0.45, 1 / 1.099, 0.099 / 1.099, 1 / 4.5, 0.081}}
}

// Validate checks that c has a known type and the right parameter count.
func (c ToneCurve) Validate() error {
	if c.Type < 0 || c.Type >= len(paramCount) {
		return fmt.Errorf("%w: type %d", ErrInvalidCurve, c.Type)
	}
	if len(c.Params) != paramCount[c.Type] {
		return fmt.Errorf("%w: type %d wants %d parameters, got %d",
			ErrInvalidCurve, c.Type, paramCount[c.Type], len(c.Params))
	}
	for _, p := range c.Params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: non-finite parameter", ErrInvalidCurve)
		}
	}
	if c.Params[0] <= 0 {
		return fmt.Errorf("%w: gamma must be positive", ErrInvalidCurve)
	}
	return nil
}

// IsLinear reports whether c is the identity.
func (c ToneCurve) IsLinear() bool {
	return c.Type == 0 && len(c.Params) == 1 && math.Abs(c.Params[0]-1) < 1e-6
}
