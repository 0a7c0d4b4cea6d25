// Package icctag encodes and decodes the ICC tag types needed by matrix/TRC
// profiles: XYZ, s15Fixed16 arrays, curv, para, mluc, desc and text.
package icctag

import (
	"encoding/binary"
	"errors"
	"math"

	"seehuhn.de/go/icc"
)

// Tag signatures.
const (
	Description         icc.TagType = 0x64657363 // "desc"
	Copyright           icc.TagType = 0x63707274 // "cprt"
	MediaWhitePoint     icc.TagType = 0x77747074 // "wtpt"
	ChromaticAdaptation icc.TagType = 0x63686164 // "chad"
	RedColorant         icc.TagType = 0x7258595A // "rXYZ"
	GreenColorant       icc.TagType = 0x6758595A // "gXYZ"
	BlueColorant        icc.TagType = 0x6258595A // "bXYZ"
	RedTRC              icc.TagType = 0x72545243 // "rTRC"
	GreenTRC            icc.TagType = 0x67545243 // "gTRC"
	BlueTRC             icc.TagType = 0x62545243 // "bTRC"
	GrayTRC             icc.TagType = 0x6B545243 // "kTRC"
)

var (
	errTruncated      = errors.New("icctag: truncated tag data")
	errUnexpectedType = errors.New("icctag: unexpected tag type")
	ErrMissingTag     = errors.New("icctag: missing tag")
)

// D50 is the ICC profile connection space illuminant.
var D50 = [3]float64{0.9642, 1.0, 0.8249}

func typeSig(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	return string(data[:4])
}

func getS15Fixed16(data []byte) float64 {
	return float64(int32(binary.BigEndian.Uint32(data))) / 65536
}

func putS15Fixed16(data []byte, v float64) {
	binary.BigEndian.PutUint32(data, uint32(int32(math.Round(v*65536))))
}

// DecodeXYZ decodes an XYZType tag holding a single value.
func DecodeXYZ(data []byte) ([3]float64, error) {
	if len(data) < 20 {
		return [3]float64{}, errTruncated
	}
	if typeSig(data) != "XYZ " {
		return [3]float64{}, errUnexpectedType
	}
	return [3]float64{
		getS15Fixed16(data[8:]),
		getS15Fixed16(data[12:]),
		getS15Fixed16(data[16:]),
	}, nil
}

// EncodeXYZ encodes a single-value XYZType tag.
func EncodeXYZ(v [3]float64) []byte {
	buf := make([]byte, 20)
	copy(buf, "XYZ ")
	for i, c := range v {
		putS15Fixed16(buf[8+4*i:], c)
	}
	return buf
}

// DecodeMatrix decodes an s15Fixed16ArrayType holding a row-major 3x3 matrix.
func DecodeMatrix(data []byte) ([3][3]float64, error) {
	var m [3][3]float64
	if len(data) < 8+9*4 {
		return m, errTruncated
	}
	if typeSig(data) != "sf32" {
		return m, errUnexpectedType
	}
	for i := 0; i < 9; i++ {
		m[i/3][i%3] = getS15Fixed16(data[8+4*i:])
	}
	return m, nil
}

// EncodeMatrix encodes a row-major 3x3 matrix as s15Fixed16ArrayType.
func EncodeMatrix(m [3][3]float64) []byte {
	buf := make([]byte, 8+9*4)
	copy(buf, "sf32")
	for i := 0; i < 9; i++ {
		putS15Fixed16(buf[8+4*i:], m[i/3][i%3])
	}
	return buf
}
