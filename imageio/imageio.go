// Package imageio moves iccimage images in and out of PNG, TIFF and JPEG 2000
// files, carrying the embedded ICC profile in each container's native slot.
//
// Decoded 8-bit files become EncodingUint8 images and 16-bit files become
// EncodingUint16 images. On encode, half and float32 samples are clamped to
// [0,1] and written as 16-bit integers.
package imageio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/mrjoshuak/go-iccimage/half"
	"github.com/mrjoshuak/go-iccimage/iccimage"
)

// Errors returned by this package.
var (
	ErrUnknownFormat = errors.New("imageio: unknown file format")
	ErrCorrupted     = errors.New("imageio: corrupted container")
)

// Format is an image container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
	FormatTIFF
	FormatJP2
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tiff"
	case FormatJP2:
		return "jp2"
	}
	return "unknown"
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG
	case ".tif", ".tiff":
		return FormatTIFF
	case ".jp2", ".j2k", ".jpf":
		return FormatJP2
	}
	return FormatUnknown
}

// Decode reads an image in format f from r. The returned image owns its
// pixels and carries the embedded profile, or none if the file has none.
func Decode(r io.Reader, f Format) (*iccimage.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var m image.Image
	var icc []byte
	switch f {
	case FormatPNG:
		m, icc, err = decodePNG(data)
	case FormatTIFF:
		m, icc, err = decodeTIFF(data)
	case FormatJP2:
		m, icc, err = decodeJP2(data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, err
	}

	var profile *iccimage.ColorProfile
	if len(icc) > 0 {
		profile, err = iccimage.NewColorProfile(icc)
		if err != nil {
			return nil, err
		}
		defer profile.Release()
	}
	pix, layout := fromImage(m)
	return iccimage.NewImage(pix, layout, profile)
}

// Encode writes img to w in format f, embedding its profile. Images without
// a profile are written untagged.
func Encode(w io.Writer, img *iccimage.Image, f Format) error {
	m := toImage(img)
	var icc []byte
	if p := img.Profile(); p != nil {
		icc = p.Data()
	}

	var buf bytes.Buffer
	var err error
	switch f {
	case FormatPNG:
		err = encodePNG(&buf, m, img.Profile())
	case FormatTIFF:
		err = encodeTIFF(&buf, m, icc)
	case FormatJP2:
		err = encodeJP2(&buf, m, icc)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// fromImage flattens m into interleaved little-endian samples.
func fromImage(m image.Image) ([]byte, iccimage.Layout) {
	b := m.Bounds()
	model := m.ColorModel()
	deep := model == color.Gray16Model || model == color.RGBA64Model || model == color.NRGBA64Model
	gray := model == color.GrayModel || model == color.Gray16Model

	channels := 1
	if !gray {
		channels = 4
		if o, ok := m.(interface{ Opaque() bool }); ok && o.Opaque() {
			channels = 3
		}
	}
	layout := iccimage.Layout{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Channels:      channels,
		ComponentSize: 1,
		Encoding:      iccimage.EncodingUint8,
	}
	if deep {
		layout.ComponentSize = 2
		layout.Encoding = iccimage.EncodingUint16
	}

	pix := make([]byte, 0, layout.Size())
	put := func(v uint16) {
		if deep {
			pix = binary.LittleEndian.AppendUint16(pix, v)
		} else {
			pix = append(pix, byte(v>>8))
		}
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if gray {
				put(color.Gray16Model.Convert(m.At(x, y)).(color.Gray16).Y)
				continue
			}
			c := color.NRGBA64Model.Convert(m.At(x, y)).(color.NRGBA64)
			put(c.R)
			put(c.G)
			put(c.B)
			if channels == 4 {
				put(c.A)
			}
		}
	}
	return pix, layout
}

// toImage builds an image.Image over a copy of img's samples.
func toImage(img *iccimage.Image) image.Image {
	l := img.Layout()
	data := img.Data()
	rect := image.Rect(0, 0, l.Width, l.Height)
	sample := sampleReader(l, data)
	n := l.Channels

	if l.ComponentSize == 1 {
		if n == 1 {
			g := image.NewGray(rect)
			copy(g.Pix, data)
			return g
		}
		m := image.NewNRGBA(rect)
		for i := 0; i < l.Width*l.Height; i++ {
			px := m.Pix[4*i : 4*i+4]
			px[3] = 0xFF
			switch n {
			case 2:
				px[0], px[1], px[2], px[3] = data[2*i], data[2*i], data[2*i], data[2*i+1]
			default:
				copy(px, data[n*i:n*i+n])
			}
		}
		return m
	}

	if n == 1 {
		g := image.NewGray16(rect)
		for i := 0; i < l.Width*l.Height; i++ {
			binary.BigEndian.PutUint16(g.Pix[2*i:], sample(i))
		}
		return g
	}
	m := image.NewNRGBA64(rect)
	for i := 0; i < l.Width*l.Height; i++ {
		px := m.Pix[8*i : 8*i+8]
		var r, g, b, a uint16 = 0, 0, 0, 0xFFFF
		switch n {
		case 2:
			r = sample(2 * i)
			g, b, a = r, r, sample(2*i+1)
		case 3:
			r, g, b = sample(3*i), sample(3*i+1), sample(3*i+2)
		case 4:
			r, g, b, a = sample(4*i), sample(4*i+1), sample(4*i+2), sample(4*i+3)
		}
		binary.BigEndian.PutUint16(px[0:], r)
		binary.BigEndian.PutUint16(px[2:], g)
		binary.BigEndian.PutUint16(px[4:], b)
		binary.BigEndian.PutUint16(px[6:], a)
	}
	return m
}

// sampleReader returns the i-th multi-byte sample of data as a 16-bit
// integer.
func sampleReader(l iccimage.Layout, data []byte) func(i int) uint16 {
	switch l.Encoding {
	case iccimage.EncodingHalf:
		return func(i int) uint16 {
			return quantize(float64(half.FromBits(binary.LittleEndian.Uint16(data[2*i:])).Float32()))
		}
	case iccimage.EncodingFloat32:
		return func(i int) uint16 {
			return quantize(float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))))
		}
	default:
		return func(i int) uint16 {
			return binary.LittleEndian.Uint16(data[2*i:])
		}
	}
}

func quantize(v float64) uint16 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 0xFFFF
	}
	return uint16(v*0xFFFF + 0.5)
}
