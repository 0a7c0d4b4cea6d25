// Package proxy widens half-float sample buffers to float32 for engines
// that cannot read half precision, and narrows the results back.
package proxy

import "github.com/mrjoshuak/go-iccimage/half"

// Expand widens samples little-endian half values from src into
// little-endian float32 values in dst. The conversion is exact.
// It panics if either buffer is too small.
func Expand(dst, src []byte, samples int) {
	half.BytesToFloat32Bytes(dst, src, samples)
}

// Narrow rounds samples little-endian float32 values from src to the
// nearest half value and stores them little-endian in dst. Values outside
// the half range become infinities and precision beyond 11 significant bits
// is lost. It panics if either buffer is too small.
func Narrow(dst, src []byte, samples int) {
	half.Float32BytesToBytes(dst, src, samples)
}

// ExpandedSize returns the float32 buffer size for samples half values.
func ExpandedSize(samples int) int {
	return samples * 4
}
