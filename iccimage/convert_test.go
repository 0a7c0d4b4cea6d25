package iccimage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mrjoshuak/go-iccimage/cms"
	"github.com/mrjoshuak/go-iccimage/cms/gocms"
	"github.com/mrjoshuak/go-iccimage/half"
	"github.com/mrjoshuak/go-iccimage/internal/bufpool"
	"github.com/mrjoshuak/go-iccimage/internal/icctag"
	"github.com/mrjoshuak/go-iccimage/observability"
	"seehuhn.de/go/icc"
)

// countingEngine wraps the pure-Go engine, counts calls, records the
// intent and flags of every transform and injects failures.
type countingEngine struct {
	cms.Engine
	calls    atomic.Int32
	saveErr  error
	applyErr error

	mu      sync.Mutex
	intents []cms.Intent
	flags   []cms.Flags
}

func newCountingEngine() *countingEngine {
	return &countingEngine{Engine: gocms.New()}
}

func (e *countingEngine) OpenProfile(data []byte) (cms.Profile, error) {
	e.calls.Add(1)
	return e.Engine.OpenProfile(data)
}

func (e *countingEngine) SRGBProfile() (cms.Profile, error) {
	e.calls.Add(1)
	return e.Engine.SRGBProfile()
}

func (e *countingEngine) CreateRGBProfile(white cms.CIExyY, primaries cms.Primaries, curves [3]cms.ToneCurve) (cms.Profile, error) {
	e.calls.Add(1)
	return e.Engine.CreateRGBProfile(white, primaries, curves)
}

func (e *countingEngine) CreateTransform(src cms.Profile, srcFmt cms.Format, dst cms.Profile, dstFmt cms.Format, intent cms.Intent, flags cms.Flags) (cms.Transform, error) {
	e.calls.Add(1)
	e.mu.Lock()
	e.intents = append(e.intents, intent)
	e.flags = append(e.flags, flags)
	e.mu.Unlock()
	xf, err := e.Engine.CreateTransform(src, srcFmt, dst, dstFmt, intent, flags)
	if err != nil || e.applyErr == nil {
		return xf, err
	}
	return failingTransform{xf, e.applyErr}, nil
}

func (e *countingEngine) SaveProfile(p cms.Profile) ([]byte, error) {
	e.calls.Add(1)
	if e.saveErr != nil {
		return nil, e.saveErr
	}
	return e.Engine.SaveProfile(p)
}

type failingTransform struct {
	cms.Transform
	err error
}

func (t failingTransform) Apply(in, out []byte, pixels int) error {
	// scribble on out so a leaked partial result would be visible
	for i := range out {
		out[i] = 0xFF
	}
	return t.err
}

func halfBytes(v ...float32) []byte {
	b := make([]byte, 2*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint16(b[2*i:], half.FromFloat32(f).Bits())
	}
	return b
}

func float32Bytes(v ...float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func rgba8Gradient(w, h int) []byte {
	b := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		b[4*i] = byte(i * 13)
		b[4*i+1] = byte(255 - i*7)
		b[4*i+2] = byte(i * 31)
		b[4*i+3] = byte(i*16 + 5)
	}
	return b
}

func TestConvertSRGBToSRGB(t *testing.T) {
	data := rgba8Gradient(4, 4)
	img, err := NewImage(data, Layout{Width: 4, Height: 4, Channels: 4, ComponentSize: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()

	c := NewConverter(Options{})
	if err := c.ConvertColorProfile(img, nil); err != nil {
		t.Fatalf("ConvertColorProfile: %v", err)
	}

	got := img.Data()
	for i := range data {
		if d := int(got[i]) - int(data[i]); d < -1 || d > 1 {
			t.Errorf("byte %d = %d, want %d±1", i, got[i], data[i])
		}
		if i%4 == 3 && got[i] != data[i] {
			t.Errorf("alpha at byte %d = %d, want %d", i, got[i], data[i])
		}
	}
	if img.Profile() == nil || img.Profile().Size() == 0 {
		t.Fatal("image has no profile after conversion")
	}
	if !img.Profile().IsSRGB() {
		t.Error("converted profile is not recognised as sRGB")
	}
}

func TestConvertHalfToRec709(t *testing.T) {
	values := []float32{0.5, 0.5, 0.5, 0.1, 0.2, 0.3, 1, 0, 0, 0.9, 0.8, 0.05}
	data := halfBytes(values...)
	img, err := NewImage(data, Layout{Width: 2, Height: 2, Channels: 3, ComponentSize: 2, HDR: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()
	if img.Encoding() != EncodingHalf {
		t.Fatalf("Encoding() = %v, want half", img.Encoding())
	}

	c := NewConverter(Options{})
	target, err := c.NewPreset(PresetRec709)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()

	if err := c.ConvertColorProfile(img, target); err != nil {
		t.Fatalf("ConvertColorProfile: %v", err)
	}
	if img.Profile().Size() == 0 {
		t.Error("converted image has an empty profile")
	}
	if bytes.Equal(img.Data(), data) {
		t.Error("no sample changed")
	}
	if !img.IsHDR() {
		t.Error("HDR flag lost")
	}

	// sRGB and Rec.709 share primaries, so neutral grey stays neutral.
	var grey [3]float32
	for i := range grey {
		grey[i] = half.FromBits(binary.LittleEndian.Uint16(img.Data()[2*i:])).Float32()
	}
	if math.Abs(float64(grey[0]-grey[1])) > 2e-3 || math.Abs(float64(grey[1]-grey[2])) > 2e-3 {
		t.Errorf("grey pixel became %v", grey)
	}
}

func TestConvertFailureLeavesImageUntouched(t *testing.T) {
	bad, err := NewColorProfile([]byte("definitely not an ICC profile"))
	if err != nil {
		t.Fatal(err)
	}
	defer bad.Release()

	tests := []struct {
		name   string
		engine func() *countingEngine
		opts   func(*Options)
		target *ColorProfile
		want   *Error
	}{
		{
			name:   "unparseable target",
			engine: newCountingEngine,
			target: bad,
			want:   ErrProfileOpenFailure,
		},
		{
			name: "save failure",
			engine: func() *countingEngine {
				e := newCountingEngine()
				e.saveErr = errors.New("disk full")
				return e
			},
			want: ErrProfileSaveFailure,
		},
		{
			name: "apply failure",
			engine: func() *countingEngine {
				e := newCountingEngine()
				e.applyErr = errors.New("row exploded")
				return e
			},
			want: ErrTransformApplyFailure,
		},
		{
			name:   "memory limit",
			engine: newCountingEngine,
			opts:   func(o *Options) { o.Pool = bufpool.New(1) },
			want:   ErrAllocationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewImage(rgba8Gradient(3, 2), Layout{Width: 3, Height: 2, Channels: 4, ComponentSize: 1}, nil)
			if err != nil {
				t.Fatal(err)
			}
			defer src.Release()
			c := NewConverter(Options{})
			start, err := c.NewPreset(PresetRec2020)
			if err != nil {
				t.Fatal(err)
			}
			img, err := NewImage(src.Data(), src.Layout(), start)
			start.Release()
			if err != nil {
				t.Fatal(err)
			}
			defer img.Release()

			opts := Options{Engine: tt.engine()}
			if tt.opts != nil {
				tt.opts(&opts)
			}
			before := append([]byte(nil), img.Data()...)
			profile := img.Profile()

			err = NewConverter(opts).ConvertColorProfile(img, tt.target)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want.Code)
			}
			if diff := cmp.Diff(before, img.Data()); diff != "" {
				t.Errorf("pixels changed on failure (-want +got):\n%s", diff)
			}
			if img.Profile() != profile || profile.RefCount() != 1 {
				t.Errorf("profile replaced or leaked on failure")
			}
		})
	}
}

func TestConvertZeroImage(t *testing.T) {
	e := newCountingEngine()
	c := NewConverter(Options{Engine: e})

	err := c.ConvertColorProfile(&Image{}, nil)
	if !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("error = %v, want invalid dimension", err)
	}
	if err := c.ConvertColorProfile(nil, nil); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("nil image error = %v, want invalid dimension", err)
	}
	if n := e.calls.Load(); n != 0 {
		t.Errorf("engine called %d times for an invalid image", n)
	}
}

func TestConvertReplacesProfile(t *testing.T) {
	c := NewConverter(Options{})
	p3, err := c.NewPreset(PresetDCIP3D65)
	if err != nil {
		t.Fatal(err)
	}
	defer p3.Release()

	img, err := NewImage(rgba8Gradient(2, 2), Layout{Width: 2, Height: 2, Channels: 4, ComponentSize: 1}, p3)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()

	if err := c.ConvertColorProfile(img, nil); err != nil {
		t.Fatal(err)
	}
	if p3.RefCount() != 1 {
		t.Errorf("old profile RefCount() = %d, want 1", p3.RefCount())
	}
	if img.Profile() == p3 || img.Profile().RefCount() != 1 {
		t.Error("image does not own a fresh target profile")
	}
}

func TestConvertBorrowedWritesThrough(t *testing.T) {
	c := NewConverter(Options{})
	target, err := c.NewPreset(PresetRec2020)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()

	buf := []byte{200, 30, 40, 10, 220, 90}
	before := append([]byte(nil), buf...)
	img, err := NewImageBorrowing(buf, Layout{Width: 2, Height: 1, Channels: 3, ComponentSize: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.ConvertColorProfile(img, target); err != nil {
		t.Fatal(err)
	}
	img.Release()
	if bytes.Equal(buf, before) {
		t.Error("conversion did not write into the borrowed buffer")
	}
}

func TestParallelRowsMatchSerial(t *testing.T) {
	layout := Layout{Width: 5, Height: 9, Channels: 4, ComponentSize: 1}
	data := rgba8Gradient(5, 9)

	run := func(workers int) []byte {
		c := NewConverter(Options{Workers: workers})
		target, err := c.NewPreset(PresetRec2020)
		if err != nil {
			t.Fatal(err)
		}
		defer target.Release()
		img, err := NewImage(data, layout, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer img.Release()
		if err := c.ConvertColorProfile(img, target); err != nil {
			t.Fatal(err)
		}
		return append([]byte(nil), img.Data()...)
	}

	serial := run(1)
	for _, w := range []int{2, 4, 16, -1} {
		if diff := cmp.Diff(serial, run(w)); diff != "" {
			t.Errorf("workers=%d differs from serial (-want +got):\n%s", w, diff)
		}
	}
}

func TestConvertReleasesPoolMemory(t *testing.T) {
	pool := bufpool.New(0)
	c := NewConverter(Options{Pool: pool})
	img, err := NewImage(halfBytes(0.1, 0.2, 0.3, 0.4), Layout{Width: 1, Height: 1, Channels: 4, ComponentSize: 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()
	if err := c.ConvertColorProfile(img, nil); err != nil {
		t.Fatal(err)
	}
	if used := pool.MemoryUsed(); used != 0 {
		t.Errorf("pool still holds %d bytes", used)
	}
}

func TestConvertLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := observability.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	c := NewConverter(Options{Logger: log})

	_ = c.ConvertColorProfile(&Image{}, nil)
	if !strings.Contains(buf.String(), "colour conversion failed") || !strings.Contains(buf.String(), "invalid dimension") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestConvertToLinearWideGamut(t *testing.T) {
	layout := Layout{Width: 2, Height: 2, Channels: 4, ComponentSize: 1}
	data := rgba8Gradient(2, 2)
	before := append([]byte(nil), data...)

	img, err := ConvertToLinearWideGamut(data, layout, nil)
	if err != nil {
		t.Fatalf("ConvertToLinearWideGamut: %v", err)
	}
	defer img.Release()

	if diff := cmp.Diff(before, data); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
	if img.Ownership() != OwnershipOwned || img.RefCount() != 1 {
		t.Errorf("result ownership %v refcount %d", img.Ownership(), img.RefCount())
	}
	if diff := cmp.Diff(layout, img.Layout(), cmpopts.IgnoreFields(Layout{}, "Encoding")); diff != "" {
		t.Errorf("layout changed (-want +got):\n%s", diff)
	}
	for i := 3; i < len(data); i += 4 {
		if img.Data()[i] != data[i] {
			t.Errorf("alpha at byte %d = %d, want %d", i, img.Data()[i], data[i])
		}
	}
	if !img.Profile().IsLinear() {
		t.Error("wide-gamut profile is not linear")
	}
	if img.Profile().IsSRGB() {
		t.Error("wide-gamut profile reported as sRGB")
	}
}

func TestConvertToLinearWideGamutErrors(t *testing.T) {
	rgb := Layout{Width: 1, Height: 1, Channels: 3, ComponentSize: 1}
	gray := Layout{Width: 1, Height: 1, Channels: 1, ComponentSize: 1}

	tests := []struct {
		name    string
		data    []byte
		layout  Layout
		profile []byte
		want    *Error
	}{
		{"bad profile", []byte{1, 2, 3}, rgb, []byte("garbage"), ErrProfileOpenFailure},
		{"short buffer", []byte{1, 2}, rgb, nil, ErrInvalidBufferSize},
		{"gray against RGB", []byte{128}, gray, nil, ErrTransformCreationFailure},
		{"bad layout", []byte{1}, Layout{Width: 1, Height: 1, Channels: 7, ComponentSize: 1}, nil, ErrInvalidChannelCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ConvertToLinearWideGamut(tt.data, tt.layout, tt.profile)
			if img != nil || !errors.Is(err, tt.want) {
				t.Errorf("got (%v, %v), want %v", img, err, tt.want.Code)
			}
		})
	}
}

func TestConvertToOwnProfile(t *testing.T) {
	c := NewConverter(Options{})
	p, err := c.NewPreset(PresetRec2020)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()
	same, err := NewColorProfile(p.Data())
	if err != nil {
		t.Fatal(err)
	}
	defer same.Release()

	data := rgba8Gradient(3, 3)
	img, err := NewImage(data, Layout{Width: 3, Height: 3, Channels: 4, ComponentSize: 1}, p)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()

	if err := c.ConvertColorProfile(img, same); err != nil {
		t.Fatal(err)
	}
	for i, v := range img.Data() {
		if d := int(v) - int(data[i]); d < -1 || d > 1 {
			t.Errorf("byte %d = %d, want %d±1", i, v, data[i])
		}
	}
}

func TestTransformIntentAndFlags(t *testing.T) {
	for channels := 1; channels <= 4; channels++ {
		t.Run(fmt.Sprintf("%d channels", channels), func(t *testing.T) {
			l := Layout{Width: 2, Height: 2, Channels: channels, ComponentSize: 1}
			var alpha cms.Flags
			if channels == 2 || channels == 4 {
				alpha = cms.FlagCopyAlpha
			}

			eng := newCountingEngine()
			c := NewConverter(Options{Engine: eng})
			img, err := NewImage(make([]byte, l.Size()), l, nil)
			if err != nil {
				t.Fatal(err)
			}
			defer img.Release()

			// gray layouts fail against the RGB profiles after the
			// transform request has been made
			err = c.ConvertColorProfile(img, nil)
			if channels >= 3 && err != nil {
				t.Fatalf("ConvertColorProfile: %v", err)
			}
			wide, err := c.ConvertToLinearWideGamut(make([]byte, l.Size()), l, nil)
			if channels >= 3 && err != nil {
				t.Fatalf("ConvertToLinearWideGamut: %v", err)
			}
			wide.Release()

			eng.mu.Lock()
			defer eng.mu.Unlock()
			wantIntents := []cms.Intent{cms.IntentRelativeColorimetric, cms.IntentAbsoluteColorimetric}
			wantFlags := []cms.Flags{InPlaceFlags | alpha, WideGamutFlags | alpha}
			if diff := cmp.Diff(wantIntents, eng.intents); diff != "" {
				t.Errorf("intents (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(wantFlags, eng.flags); diff != "" {
				t.Errorf("flags (-want +got):\n%s", diff)
			}
		})
	}
}

// tableCurveProfile returns sRGB with its transfer curves replaced by
// 256-entry sampled tables.
func tableCurveProfile(t *testing.T) *ColorProfile {
	t.Helper()
	raw, err := icc.Decode(append([]byte(nil), icc.SRGBv4Profile...))
	if err != nil {
		t.Fatal(err)
	}
	curv := make([]byte, 12+2*256)
	copy(curv, "curv")
	binary.BigEndian.PutUint32(curv[8:], 256)
	for i := 0; i < 256; i++ {
		v := math.Pow(float64(i)/255, 2.2)
		binary.BigEndian.PutUint16(curv[12+2*i:], uint16(math.Round(v*65535)))
	}
	for _, tag := range []icc.TagType{icctag.RedTRC, icctag.GreenTRC, icctag.BlueTRC} {
		raw.TagData[tag] = curv
	}
	enc, err := raw.Encode()
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewColorProfile(enc)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestConvertNonFiniteSamples(t *testing.T) {
	nan, inf := float32(math.NaN()), float32(math.Inf(1))
	prof := tableCurveProfile(t)
	defer prof.Release()

	tests := []struct {
		name   string
		data   []byte
		layout Layout
	}{
		{"float32", float32Bytes(nan, 0.5, 0.25, inf, -inf, 0),
			Layout{Width: 2, Height: 1, Channels: 3, ComponentSize: 4, Encoding: EncodingFloat32}},
		{"float32 alpha", float32Bytes(nan, 0.5, 0.25, nan, inf, -inf, 0, 1),
			Layout{Width: 2, Height: 1, Channels: 4, ComponentSize: 4, Encoding: EncodingFloat32}},
		{"half", halfBytes(nan, 0.5, 0.25, inf, -inf, 0),
			Layout{Width: 2, Height: 1, Channels: 3, ComponentSize: 2, Encoding: EncodingHalf}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter(Options{})
			sample := func(b []byte, i int) float64 {
				if tt.layout.ComponentSize == 2 {
					return float64(half.FromBits(binary.LittleEndian.Uint16(b[2*i:])).Float32())
				}
				return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
			}
			// the infinite pixel maps to finite values
			checkFinite := func(what string, b []byte) {
				for i := tt.layout.Channels; i < tt.layout.Channels+3; i++ {
					if v := sample(b, i); math.IsNaN(v) || math.IsInf(v, 0) {
						t.Errorf("%s: sample %d = %v, want finite", what, i, v)
					}
				}
			}

			img, err := NewImage(tt.data, tt.layout, prof)
			if err != nil {
				t.Fatal(err)
			}
			defer img.Release()
			if err := c.ConvertColorProfile(img, nil); err != nil {
				t.Fatalf("ConvertColorProfile: %v", err)
			}
			checkFinite("in place", img.Data())

			wide, err := c.ConvertToLinearWideGamut(tt.data, tt.layout, prof.Data())
			if err != nil {
				t.Fatalf("ConvertToLinearWideGamut: %v", err)
			}
			defer wide.Release()
			checkFinite("wide gamut", wide.Data())
		})
	}
}
