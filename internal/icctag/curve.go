package icctag

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Curve is a one-dimensional transfer function on normalized values.
// Negative inputs are mirrored: Eval(-x) == -Eval(x).
type Curve interface {
	Eval(x float64) float64
	Inverse(y float64) float64
	IsLinear() bool
}

// Parametric is an ICC parametricCurveType function. Type is the ICC
// function type 0 to 4.
type Parametric struct {
	Type   int
	Params []float64
}

var paramCount = [5]int{1, 3, 4, 5, 7}

// NewParametric validates the parameter count for typ.
func NewParametric(typ int, params []float64) (Parametric, error) {
	if typ < 0 || typ >= len(paramCount) {
		return Parametric{}, fmt.Errorf("icctag: unknown parametric function type %d", typ)
	}
	if len(params) != paramCount[typ] {
		return Parametric{}, fmt.Errorf("icctag: parametric type %d needs %d parameters, got %d",
			typ, paramCount[typ], len(params))
	}
	return Parametric{Type: typ, Params: append([]float64(nil), params...)}, nil
}

// Gamma returns the power curve Y = X^g.
func Gamma(g float64) Parametric {
	return Parametric{Type: 0, Params: []float64{g}}
}

func (p Parametric) param(i int) float64 {
	if i < len(p.Params) {
		return p.Params[i]
	}
	return 0
}

// Eval evaluates the curve.
func (p Parametric) Eval(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	if x < 0 {
		return -p.Eval(-x)
	}
	g, a, b, c, d, e, f := p.param(0), p.param(1), p.param(2), p.param(3), p.param(4), p.param(5), p.param(6)
	switch p.Type {
	case 0:
		return math.Pow(x, g)
	case 1:
		if a != 0 && x >= -b/a {
			return math.Pow(a*x+b, g)
		}
		return 0
	case 2:
		if a != 0 && x >= -b/a {
			return math.Pow(a*x+b, g) + c
		}
		return c
	case 3:
		if x >= d {
			return math.Pow(a*x+b, g)
		}
		return c * x
	case 4:
		if x >= d {
			return math.Pow(a*x+b, g) + e
		}
		return c*x + f
	}
	return x
}

// Inverse evaluates the inverse curve analytically.
func (p Parametric) Inverse(y float64) float64 {
	if math.IsNaN(y) {
		return y
	}
	if y < 0 {
		return -p.Inverse(-y)
	}
	g, a, b, c, d, e, f := p.param(0), p.param(1), p.param(2), p.param(3), p.param(4), p.param(5), p.param(6)
	switch p.Type {
	case 0:
		return math.Pow(y, 1/g)
	case 1:
		if a == 0 {
			return 0
		}
		if y <= 0 {
			return -b / a
		}
		return (math.Pow(y, 1/g) - b) / a
	case 2:
		if a == 0 {
			return 0
		}
		if y <= c {
			return -b / a
		}
		return (math.Pow(y-c, 1/g) - b) / a
	case 3:
		if y >= math.Pow(a*d+b, g) && a != 0 {
			return (math.Pow(y, 1/g) - b) / a
		}
		if c == 0 {
			return 0
		}
		return y / c
	case 4:
		if y >= math.Pow(a*d+b, g)+e && a != 0 {
			return (math.Pow(y-e, 1/g) - b) / a
		}
		if c == 0 {
			return 0
		}
		return (y - f) / c
	}
	return y
}

// IsLinear reports whether p is the identity.
func (p Parametric) IsLinear() bool {
	return p.Type == 0 && math.Abs(p.param(0)-1) < 1e-4
}

// Table is a sampled curve with entries normalized to [0, 1].
type Table []float64

// Eval interpolates the table linearly. Inputs beyond 1 are clamped.
func (t Table) Eval(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	if x < 0 {
		return -t.Eval(-x)
	}
	n := len(t)
	switch {
	case n == 0:
		return x
	case n == 1:
		return t[0]
	case x >= 1:
		return t[n-1]
	}
	pos := x * float64(n-1)
	i := int(pos)
	frac := pos - float64(i)
	return t[i] + (t[i+1]-t[i])*frac
}

// Inverse finds x with Eval(x) == y by bisection on [0, 1]. The table is
// assumed monotonic.
func (t Table) Inverse(y float64) float64 {
	if math.IsNaN(y) {
		return y
	}
	if y < 0 {
		return -t.Inverse(-y)
	}
	if len(t) < 2 {
		return y
	}
	increasing := t[len(t)-1] >= t[0]
	lo, hi := 0.0, 1.0
	for i := 0; i < 48; i++ {
		mid := (lo + hi) / 2
		v := t.Eval(mid)
		if (v < y) == increasing {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// IsLinear reports whether every entry lies on the identity line.
func (t Table) IsLinear() bool {
	if len(t) < 2 {
		return len(t) == 0
	}
	for i, v := range t {
		if math.Abs(v-float64(i)/float64(len(t)-1)) > 1.0/65535 {
			return false
		}
	}
	return true
}

// DecodeCurve decodes a curveType or parametricCurveType tag.
func DecodeCurve(data []byte) (Curve, error) {
	if len(data) < 12 {
		return nil, errTruncated
	}
	switch typeSig(data) {
	case "curv":
		n := int(binary.BigEndian.Uint32(data[8:]))
		if len(data) < 12+2*n {
			return nil, errTruncated
		}
		switch n {
		case 0:
			return Gamma(1), nil
		case 1:
			// u8Fixed8Number
			return Gamma(float64(binary.BigEndian.Uint16(data[12:])) / 256), nil
		}
		t := make(Table, n)
		for i := range t {
			t[i] = float64(binary.BigEndian.Uint16(data[12+2*i:])) / 65535
		}
		return t, nil

	case "para":
		typ := int(binary.BigEndian.Uint16(data[8:]))
		if typ >= len(paramCount) {
			return nil, fmt.Errorf("icctag: unknown parametric function type %d", typ)
		}
		n := paramCount[typ]
		if len(data) < 12+4*n {
			return nil, errTruncated
		}
		params := make([]float64, n)
		for i := range params {
			params[i] = getS15Fixed16(data[12+4*i:])
		}
		return Parametric{Type: typ, Params: params}, nil
	}
	return nil, errUnexpectedType
}

// EncodeParametric encodes p as parametricCurveType.
func EncodeParametric(p Parametric) []byte {
	buf := make([]byte, 12+4*len(p.Params))
	copy(buf, "para")
	binary.BigEndian.PutUint16(buf[8:], uint16(p.Type))
	for i, v := range p.Params {
		putS15Fixed16(buf[12+4*i:], v)
	}
	return buf
}
