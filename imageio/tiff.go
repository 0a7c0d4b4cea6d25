package imageio

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"

	"github.com/mrjoshuak/go-iccimage/internal/byteio"
	"golang.org/x/image/tiff"
)

// tagICCProfile is the TIFF InterColorProfile tag.
const tagICCProfile = 34675

const tiffUndefined = 7

// tiffTypeSize maps TIFF field types to their byte sizes.
var tiffTypeSize = map[uint16]int{
	1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1, 7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8,
}

type tiffFile struct {
	order interface {
		binary.ByteOrder
		binary.AppendByteOrder
	}
	ifd     int
	entries []tiffEntry
	ifdEnd  int
}

type tiffEntry struct {
	raw   []byte // the 12 bytes of the entry
	tag   uint16
	size  int // value size in bytes
	value uint32
}

func parseTIFF(data []byte) (*tiffFile, error) {
	if len(data) < 8 {
		return nil, ErrCorrupted
	}
	t := &tiffFile{}
	switch string(data[:4]) {
	case "II*\x00":
		t.order = binary.LittleEndian
	case "MM\x00*":
		t.order = binary.BigEndian
	default:
		return nil, ErrCorrupted
	}

	r := byteio.NewReader(data, t.order)
	if err := r.Skip(4); err != nil {
		return nil, ErrCorrupted
	}
	off, err := r.ReadUint32()
	if err != nil || off < 8 || r.SetPos(int(off)) != nil {
		return nil, ErrCorrupted
	}
	t.ifd = int(off)
	count, err := r.ReadUint16()
	if err != nil {
		return nil, ErrCorrupted
	}
	for i := 0; i < int(count); i++ {
		raw, err := r.Slice(12)
		if err != nil {
			return nil, ErrCorrupted
		}
		e := byteio.NewReader(raw, t.order)
		tag, _ := e.ReadUint16()
		typ, _ := e.ReadUint16()
		n, _ := e.ReadUint32()
		value, _ := e.ReadUint32()
		t.entries = append(t.entries, tiffEntry{
			raw:   raw,
			tag:   tag,
			size:  int(n) * tiffTypeSize[typ],
			value: value,
		})
	}
	if err := r.Skip(4); err != nil {
		return nil, ErrCorrupted
	}
	t.ifdEnd = r.Pos()
	return t, nil
}

// readTIFFProfile returns the InterColorProfile of the first IFD, or nil.
func readTIFFProfile(data []byte) ([]byte, error) {
	t, err := parseTIFF(data)
	if err != nil {
		return nil, err
	}
	for _, e := range t.entries {
		if e.tag != tagICCProfile {
			continue
		}
		if e.size <= 4 {
			return append([]byte(nil), e.raw[8:8+e.size]...), nil
		}
		icc, err := byteio.NewReader(data, t.order).BytesAt(int(e.value), e.size)
		if err != nil {
			return nil, ErrCorrupted
		}
		return icc, nil
	}
	return nil, nil
}

// addTIFFProfile appends an InterColorProfile entry to the first IFD. The
// IFD must be the last structure before its own out-of-line values, which
// is how x/image/tiff lays out files.
func addTIFFProfile(data, icc []byte) ([]byte, error) {
	t, err := parseTIFF(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data)+12+len(icc)+1)
	out = append(out, data[:t.ifd]...)
	out = t.order.AppendUint16(out, uint16(len(t.entries)+1))
	for _, e := range t.entries {
		if e.tag == tagICCProfile {
			return nil, ErrCorrupted
		}
		out = append(out, e.raw[:8]...)
		if e.size > 4 && int(e.value) >= t.ifdEnd {
			out = t.order.AppendUint32(out, e.value+12)
		} else {
			out = append(out, e.raw[8:]...)
		}
	}

	tail := data[t.ifdEnd:]
	iccOff := len(out) + 12 + 4 + len(tail)
	pad := iccOff & 1
	iccOff += pad

	out = t.order.AppendUint16(out, tagICCProfile)
	out = t.order.AppendUint16(out, tiffUndefined)
	out = t.order.AppendUint32(out, uint32(len(icc)))
	out = t.order.AppendUint32(out, uint32(iccOff))
	out = t.order.AppendUint32(out, 0)
	out = append(out, tail...)
	if pad != 0 {
		out = append(out, 0)
	}
	return append(out, icc...), nil
}

func decodeTIFF(data []byte) (image.Image, []byte, error) {
	m, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	icc, err := readTIFFProfile(data)
	if err != nil {
		return nil, nil, err
	}
	return m, icc, nil
}

func encodeTIFF(w io.Writer, m image.Image, icc []byte) error {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return err
	}
	out := buf.Bytes()
	if len(icc) > 0 {
		var err error
		if out, err = addTIFFProfile(out, icc); err != nil {
			return err
		}
	}
	_, err := w.Write(out)
	return err
}
