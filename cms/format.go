package cms

import "fmt"

// Encoding is the numeric interpretation of a stored sample.
type Encoding uint8

const (
	// EncodingAuto selects the natural encoding for the component size:
	// uint8 for 1 byte, half for 2 bytes and float32 for 4 bytes.
	EncodingAuto Encoding = iota
	EncodingUint8
	EncodingUint16
	EncodingHalf
	EncodingFloat32
)

// DefaultEncoding returns the encoding used for componentSize when none is
// given, or EncodingAuto if the size is not supported.
func DefaultEncoding(componentSize int) Encoding {
	switch componentSize {
	case 1:
		return EncodingUint8
	case 2:
		return EncodingHalf
	case 4:
		return EncodingFloat32
	}
	return EncodingAuto
}

// Size returns the stored size of one sample in bytes, or 0 for
// EncodingAuto.
func (e Encoding) Size() int {
	switch e {
	case EncodingUint8:
		return 1
	case EncodingUint16, EncodingHalf:
		return 2
	case EncodingFloat32:
		return 4
	}
	return 0
}

// NeedsProxy reports whether samples must be widened to float32 before an
// engine can read them.
func (e Encoding) NeedsProxy() bool {
	return e == EncodingHalf
}

func (e Encoding) String() string {
	switch e {
	case EncodingAuto:
		return "auto"
	case EncodingUint8:
		return "uint8"
	case EncodingUint16:
		return "uint16"
	case EncodingHalf:
		return "half"
	case EncodingFloat32:
		return "float32"
	}
	return fmt.Sprintf("Encoding(%d)", uint8(e))
}

// Format is a packed pixel format tag. The bit layout follows Little CMS 2:
//
//	bits 0-2   bytes per sample
//	bits 3-6   colour channels
//	bits 7-9   extra (alpha) channels
//	bits 16-20 colour space
//	bit  22    floating point samples
type Format uint32

// FormatUnsupported is returned by ResolveFormat for combinations the
// engines cannot process.
const FormatUnsupported Format = 0

// Colour space codes stored in a Format.
const (
	SpaceGray = 3
	SpaceRGB  = 4
)

func packFormat(space, colors, extra, bytes int, float bool) Format {
	f := Format(space<<16 | extra<<7 | colors<<3 | bytes)
	if float {
		f |= 1 << 22
	}
	return f
}

// Common formats.
var (
	FormatGray8      = packFormat(SpaceGray, 1, 0, 1, false)
	FormatGrayA8     = packFormat(SpaceGray, 1, 1, 1, false)
	FormatRGB8       = packFormat(SpaceRGB, 3, 0, 1, false)
	FormatRGBA8      = packFormat(SpaceRGB, 3, 1, 1, false)
	FormatGray16     = packFormat(SpaceGray, 1, 0, 2, false)
	FormatGrayA16    = packFormat(SpaceGray, 1, 1, 2, false)
	FormatRGB16      = packFormat(SpaceRGB, 3, 0, 2, false)
	FormatRGBA16     = packFormat(SpaceRGB, 3, 1, 2, false)
	FormatGrayFloat  = packFormat(SpaceGray, 1, 0, 4, true)
	FormatGrayAFloat = packFormat(SpaceGray, 1, 1, 4, true)
	FormatRGBFloat   = packFormat(SpaceRGB, 3, 0, 4, true)
	FormatRGBAFloat  = packFormat(SpaceRGB, 3, 1, 4, true)
)

// ResolveFormat maps a channel count, a stored component size and a sample
// encoding to the format an engine operates on. Half samples resolve to the
// float32 format they are widened to. Any unsupported combination yields
// FormatUnsupported.
func ResolveFormat(channels, componentSize int, enc Encoding) Format {
	if enc == EncodingAuto {
		enc = DefaultEncoding(componentSize)
	}
	if enc == EncodingAuto || enc.Size() != componentSize {
		return FormatUnsupported
	}

	var space, colors, extra int
	switch channels {
	case 1:
		space, colors = SpaceGray, 1
	case 2:
		space, colors, extra = SpaceGray, 1, 1
	case 3:
		space, colors = SpaceRGB, 3
	case 4:
		space, colors, extra = SpaceRGB, 3, 1
	default:
		return FormatUnsupported
	}

	switch enc {
	case EncodingUint8:
		return packFormat(space, colors, extra, 1, false)
	case EncodingUint16:
		return packFormat(space, colors, extra, 2, false)
	case EncodingHalf, EncodingFloat32:
		return packFormat(space, colors, extra, 4, true)
	}
	return FormatUnsupported
}

// Bytes returns the size of one sample in bytes.
func (f Format) Bytes() int { return int(f & 7) }

// ColorChannels returns the number of colour channels.
func (f Format) ColorChannels() int { return int(f>>3) & 15 }

// ExtraChannels returns the number of extra (alpha) channels.
func (f Format) ExtraChannels() int { return int(f>>7) & 7 }

// Channels returns the total number of samples per pixel.
func (f Format) Channels() int { return f.ColorChannels() + f.ExtraChannels() }

// Space returns the colour space code.
func (f Format) Space() int { return int(f>>16) & 31 }

// IsFloat reports whether samples are floating point.
func (f Format) IsFloat() bool { return f&(1<<22) != 0 }

// HasAlpha reports whether the format carries an alpha channel.
func (f Format) HasAlpha() bool { return f.ExtraChannels() > 0 }

// PixelSize returns the size of one pixel in bytes.
func (f Format) PixelSize() int { return f.Channels() * f.Bytes() }

// Valid reports whether f describes a layout the engines understand.
func (f Format) Valid() bool {
	if f == FormatUnsupported {
		return false
	}
	switch f.Bytes() {
	case 1, 2:
		if f.IsFloat() {
			return false
		}
	case 4:
		if !f.IsFloat() {
			return false
		}
	default:
		return false
	}
	switch f.Space() {
	case SpaceGray:
		return f.ColorChannels() == 1 && f.ExtraChannels() <= 1
	case SpaceRGB:
		return f.ColorChannels() == 3 && f.ExtraChannels() <= 1
	}
	return false
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Format(0x%08X)", uint32(f))
	}
	name := "GRAY"
	if f.Space() == SpaceRGB {
		name = "RGB"
	}
	if f.HasAlpha() {
		name += "A"
	}
	if f.IsFloat() {
		return name + "_FLT"
	}
	return fmt.Sprintf("%s_%d", name, f.Bytes()*8)
}
