package icctag

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/icc"
)

func TestXYZRoundTrip(t *testing.T) {
	in := [3]float64{0.9642, 1.0, 0.8249}
	got, err := DecodeXYZ(EncodeXYZ(in))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, got, cmpopts.EquateApprox(0, 1.0/65536)); diff != "" {
		t.Errorf("XYZ mismatch (-want +got):\n%s", diff)
	}
	if _, err := DecodeXYZ([]byte("curv")); err == nil {
		t.Error("DecodeXYZ accepted truncated data")
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	in := [3][3]float64{{1.0479, 0.0229, -0.0502}, {0.0296, 0.9904, -0.0171}, {-0.0092, 0.0151, 0.7519}}
	got, err := DecodeMatrix(EncodeMatrix(in))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, got, cmpopts.EquateApprox(0, 1.0/65536)); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestParametricInverse(t *testing.T) {
	curves := map[string]Parametric{
		"gamma":  Gamma(2.2),
		"type1":  {Type: 1, Params: []float64{2.4, 1.1, -0.1}},
		"type2":  {Type: 2, Params: []float64{2.4, 1.1, -0.1, 0.05}},
		"srgb":   {Type: 3, Params: []float64{2.4, 1 / 1.055, 0.055 / 1.055, 1 / 12.92, 0.04045}},
		"rec709": {Type: 3, Params: []float64{1 / 0.45, 1 / 1.099, 0.099 / 1.099, 1 / 4.5, 0.081}},
		"type4":  {Type: 4, Params: []float64{2.4, 1 / 1.055, 0.055 / 1.055, 1 / 12.92, 0.04045, 0.01, 0.01}},
	}
	for name, c := range curves {
		t.Run(name, func(t *testing.T) {
			for i := 2; i <= 20; i++ {
				x := float64(i) / 20
				y := c.Eval(x)
				if back := c.Inverse(y); math.Abs(back-x) > 1e-9 {
					t.Errorf("Inverse(Eval(%v)) = %v", x, back)
				}
			}
		})
	}
}

func TestCurveMirrorsNegatives(t *testing.T) {
	c := Gamma(2.2)
	if got, want := c.Eval(-0.5), -c.Eval(0.5); got != want {
		t.Errorf("Eval(-0.5) = %v, want %v", got, want)
	}
	if got, want := c.Inverse(-0.25), -c.Inverse(0.25); got != want {
		t.Errorf("Inverse(-0.25) = %v, want %v", got, want)
	}
}

func TestTableCurve(t *testing.T) {
	tab := Table{0, 0.25, 1}
	if got := tab.Eval(0.25); math.Abs(got-0.125) > 1e-12 {
		t.Errorf("Eval(0.25) = %v, want 0.125", got)
	}
	if got := tab.Inverse(0.125); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("Inverse(0.125) = %v, want 0.25", got)
	}
	if tab.IsLinear() {
		t.Error("non-linear table reported linear")
	}
	if !(Table{0, 0.5, 1}).IsLinear() {
		t.Error("linear table reported non-linear")
	}
}

func TestCurvesPassNonFinite(t *testing.T) {
	ramp := make(Table, 256)
	for i := range ramp {
		ramp[i] = math.Pow(float64(i)/255, 2.2)
	}
	curves := []struct {
		name string
		c    Curve
	}{
		{"table", ramp},
		{"short table", Table{0, 1}},
		{"gamma", Gamma(2.2)},
		{"srgb", Parametric{Type: 3, Params: []float64{2.4, 0.9479, 0.0521, 0.0774, 0.04045}}},
	}
	for _, tc := range curves {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Eval(math.NaN()); !math.IsNaN(got) {
				t.Errorf("Eval(NaN) = %v, want NaN", got)
			}
			if got := tc.c.Inverse(math.NaN()); !math.IsNaN(got) {
				t.Errorf("Inverse(NaN) = %v, want NaN", got)
			}
			for _, x := range []float64{math.Inf(1), math.Inf(-1)} {
				if got := tc.c.Eval(x); math.IsNaN(got) {
					t.Errorf("Eval(%v) = NaN", x)
				}
				if got := tc.c.Inverse(x); math.IsNaN(got) {
					t.Errorf("Inverse(%v) = NaN", x)
				}
			}
		})
	}
}

func TestDecodeCurve(t *testing.T) {
	identity := []byte("curv\x00\x00\x00\x00\x00\x00\x00\x00")
	gamma := []byte("curv\x00\x00\x00\x00\x00\x00\x00\x01\x02\x33") // 2.2 as u8Fixed8
	table := []byte("curv\x00\x00\x00\x00\x00\x00\x00\x03\x00\x00\x80\x00\xff\xff")

	c, err := DecodeCurve(identity)
	if err != nil || !c.IsLinear() {
		t.Errorf("identity curve: %v, %v", c, err)
	}
	c, err = DecodeCurve(gamma)
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := c.(Parametric); !ok || math.Abs(p.Params[0]-2.2) > 0.01 {
		t.Errorf("gamma curve decoded as %#v", c)
	}
	c, err = DecodeCurve(table)
	if err != nil {
		t.Fatal(err)
	}
	if tab, ok := c.(Table); !ok || len(tab) != 3 {
		t.Errorf("table curve decoded as %#v", c)
	}

	p := Parametric{Type: 3, Params: []float64{2.4, 0.9479, 0.0521, 0.0774, 0.04045}}
	c, err = DecodeCurve(EncodeParametric(p))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(p, c, cmpopts.EquateApprox(0, 1.0/65536)); diff != "" {
		t.Errorf("para round trip (-want +got):\n%s", diff)
	}

	if _, err := DecodeCurve([]byte("XYZ \x00\x00\x00\x00\x00\x00\x00\x00")); err == nil {
		t.Error("DecodeCurve accepted an XYZ tag")
	}
}

func TestNewParametric(t *testing.T) {
	if _, err := NewParametric(3, []float64{2.2}); err == nil {
		t.Error("NewParametric accepted a short parameter list")
	}
	if _, err := NewParametric(9, nil); err == nil {
		t.Error("NewParametric accepted an unknown type")
	}
	if _, err := NewParametric(0, []float64{1}); err != nil {
		t.Error(err)
	}
}

func TestTextRoundTrip(t *testing.T) {
	got, err := DecodeText(EncodeMLUC("Rec. 709 lineär"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Rec. 709 lineär" {
		t.Errorf("DecodeText = %q", got)
	}

	desc := append([]byte("desc\x00\x00\x00\x00\x00\x00\x00\x05"), "sRGB\x00"...)
	if got, err := DecodeText(desc); err != nil || got != "sRGB" {
		t.Errorf("DecodeText(desc) = %q, %v", got, err)
	}
	text := append([]byte("text\x00\x00\x00\x00"), "(c) nobody\x00"...)
	if got, err := DecodeText(text); err != nil || got != "(c) nobody" {
		t.Errorf("DecodeText(text) = %q, %v", got, err)
	}
}

func TestReadModelSRGB(t *testing.T) {
	p, err := icc.Decode(append([]byte(nil), icc.SRGBv4Profile...))
	if err != nil {
		t.Fatal(err)
	}
	m, err := ReadModel(p)
	if err != nil {
		t.Fatal(err)
	}
	if m.IsLinear() {
		t.Error("sRGB model reported linear")
	}
	// the colorants sum to the PCS white
	var white [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			white[j] += m.Colorants[i][j]
		}
	}
	if diff := cmp.Diff(D50, white, cmpopts.EquateApprox(0, 2e-3)); diff != "" {
		t.Errorf("colorant sum (-want +got):\n%s", diff)
	}
	if !m.Matches(m, 0) {
		t.Error("model does not match itself")
	}
}

func TestReadModelRejectsMissingTags(t *testing.T) {
	p := &icc.Profile{
		ColorSpace: icc.RGBSpace,
		TagData:    map[icc.TagType][]byte{},
	}
	if _, err := ReadModel(p); err == nil {
		t.Error("ReadModel accepted a profile without colorants")
	}
	p.ColorSpace = icc.CMYKSpace
	if _, err := ReadModel(p); err == nil {
		t.Error("ReadModel accepted a CMYK profile")
	}
}
