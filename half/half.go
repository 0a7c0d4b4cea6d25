// Package half provides IEEE 754 binary16 half-precision floating-point numbers.
//
// Half-precision floats use 16 bits with the following layout:
//   - 1 bit sign
//   - 5 bits exponent (bias of 15)
//   - 10 bits mantissa (implicit leading 1 for normalized values)
//
// Images with a 2-byte component size store their samples in this format to
// keep HDR range. Every half value is exactly representable as a float32, so
// widening is lossless; narrowing rounds to nearest even.
package half

import (
	"math"
)

// Half represents an IEEE 754 binary16 half-precision floating-point number.
// The underlying storage is a uint16.
type Half uint16

const (
	signBit      = 0x8000
	exponentMask = 0x7C00
	mantissaMask = 0x03FF

	exponentBias = 15
	maxExponent  = 31
)

// Common constant values.
var (
	// Inf is positive infinity.
	Inf = Half(0x7C00)
	// NegInf is negative infinity.
	NegInf = Half(0xFC00)
	// NaN is a quiet NaN value.
	NaN = Half(0x7E00)
	// Zero is positive zero.
	Zero = Half(0x0000)
	// Max is the largest finite positive half-precision value (65504).
	Max = Half(0x7BFF)
	// SmallestNormal is the smallest positive normalized value (~6.1e-5).
	SmallestNormal = Half(0x0400)
	// SmallestSubnormal is the smallest positive subnormal value (~5.96e-8).
	SmallestSubnormal = Half(0x0001)
)

// FromFloat32 converts a float32 to a Half using round-to-nearest-even.
// Values beyond the half range become infinities; float32 subnormals
// become signed zero.
func FromFloat32(f float32) Half {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & signBit)
	exp := int((bits >> 23) & 0xFF)
	mantissa := bits & 0x007FFFFF

	switch exp {
	case 0xFF:
		if mantissa == 0 {
			return Half(sign | exponentMask)
		}
		// keep the payload's top bits and force the quiet bit
		return Half(sign | exponentMask | 0x0200 | uint16(mantissa>>13))
	case 0:
		return Half(sign)
	}

	exp = exp - 127 + exponentBias
	if exp >= maxExponent {
		return Half(sign | exponentMask)
	}
	if exp < -10 {
		return Half(sign)
	}

	if exp <= 0 {
		mantissa |= 0x00800000
		shift := uint(14 - exp)
		m := mantissa >> shift
		round := (mantissa >> (shift - 1)) & 1
		sticky := mantissa & ((1 << (shift - 1)) - 1)
		if round != 0 && (sticky != 0 || m&1 != 0) {
			m++
		}
		// a carry out of the subnormal range lands on the smallest normal
		return Half(sign | uint16(m))
	}

	m := mantissa >> 13
	round := (mantissa >> 12) & 1
	sticky := mantissa & 0x0FFF
	if round != 0 && (sticky != 0 || m&1 != 0) {
		m++
		if m > mantissaMask {
			m = 0
			exp++
			if exp >= maxExponent {
				return Half(sign | exponentMask)
			}
		}
	}
	return Half(sign | uint16(exp<<10) | uint16(m))
}

// Float32 converts a Half to a float32. The conversion is exact.
func (h Half) Float32() float32 {
	sign := uint32(h&signBit) << 16
	exp := int((h >> 10) & 0x1F)
	mantissa := uint32(h & mantissaMask)

	switch exp {
	case 0:
		if mantissa == 0 {
			return math.Float32frombits(sign)
		}
		// renormalize the subnormal
		for mantissa&0x0400 == 0 {
			mantissa <<= 1
			exp--
		}
		exp++
		mantissa &= mantissaMask
		return math.Float32frombits(sign | uint32(exp-exponentBias+127)<<23 | mantissa<<13)
	case maxExponent:
		if mantissa == 0 {
			return math.Float32frombits(sign | 0x7F800000)
		}
		return math.Float32frombits(sign | 0x7F800000 | mantissa<<13 | 0x00400000)
	}
	return math.Float32frombits(sign | uint32(exp-exponentBias+127)<<23 | mantissa<<13)
}

// IsNaN reports whether h is a NaN value.
func (h Half) IsNaN() bool {
	return h&exponentMask == exponentMask && h&mantissaMask != 0
}

// Bits returns the IEEE 754 binary16 representation of h.
func (h Half) Bits() uint16 {
	return uint16(h)
}

// FromBits creates a Half from its IEEE 754 binary16 bit representation.
func FromBits(bits uint16) Half {
	return Half(bits)
}
