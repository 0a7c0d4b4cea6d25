package half

import (
	"encoding/binary"
	"math"
)

// batchSize is the number of elements processed in each unrolled loop iteration.
const batchSize = 4

// BytesToFloat32Bytes widens little-endian half samples in src into
// little-endian float32 samples in dst. n is the number of samples.
func BytesToFloat32Bytes(dst, src []byte, n int) {
	if len(src) < n*2 || len(dst) < n*4 {
		panic("half: buffer too small")
	}

	i := 0
	for ; i+batchSize <= n; i += batchSize {
		s, d := src[i*2:i*2+8], dst[i*4:i*4+16]
		binary.LittleEndian.PutUint32(d[0:], math.Float32bits(FromBits(binary.LittleEndian.Uint16(s[0:])).Float32()))
		binary.LittleEndian.PutUint32(d[4:], math.Float32bits(FromBits(binary.LittleEndian.Uint16(s[2:])).Float32()))
		binary.LittleEndian.PutUint32(d[8:], math.Float32bits(FromBits(binary.LittleEndian.Uint16(s[4:])).Float32()))
		binary.LittleEndian.PutUint32(d[12:], math.Float32bits(FromBits(binary.LittleEndian.Uint16(s[6:])).Float32()))
	}
	for ; i < n; i++ {
		h := FromBits(binary.LittleEndian.Uint16(src[i*2:]))
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(h.Float32()))
	}
}

// Float32BytesToBytes narrows little-endian float32 samples in src into
// little-endian half samples in dst using round-to-nearest-even.
// n is the number of samples.
func Float32BytesToBytes(dst, src []byte, n int) {
	if len(src) < n*4 || len(dst) < n*2 {
		panic("half: buffer too small")
	}

	i := 0
	for ; i+batchSize <= n; i += batchSize {
		s, d := src[i*4:i*4+16], dst[i*2:i*2+8]
		binary.LittleEndian.PutUint16(d[0:], FromFloat32(math.Float32frombits(binary.LittleEndian.Uint32(s[0:]))).Bits())
		binary.LittleEndian.PutUint16(d[2:], FromFloat32(math.Float32frombits(binary.LittleEndian.Uint32(s[4:]))).Bits())
		binary.LittleEndian.PutUint16(d[4:], FromFloat32(math.Float32frombits(binary.LittleEndian.Uint32(s[8:]))).Bits())
		binary.LittleEndian.PutUint16(d[6:], FromFloat32(math.Float32frombits(binary.LittleEndian.Uint32(s[12:]))).Bits())
	}
	for ; i < n; i++ {
		f := math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		binary.LittleEndian.PutUint16(dst[i*2:], FromFloat32(f).Bits())
	}
}
