package icctag

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

// DecodeText decodes a multiLocalizedUnicodeType, textDescriptionType or
// textType tag. For mluc the first record is returned.
func DecodeText(data []byte) (string, error) {
	switch typeSig(data) {
	case "mluc":
		if len(data) < 16 {
			return "", errTruncated
		}
		count := binary.BigEndian.Uint32(data[8:])
		recSize := binary.BigEndian.Uint32(data[12:])
		if count == 0 {
			return "", nil
		}
		if recSize < 12 || len(data) < 16+12 {
			return "", errTruncated
		}
		length := int(binary.BigEndian.Uint32(data[20:]))
		offset := int(binary.BigEndian.Uint32(data[24:]))
		if offset < 0 || length < 0 || offset+length > len(data) {
			return "", errTruncated
		}
		raw := data[offset : offset+length]
		units := make([]uint16, len(raw)/2)
		for i := range units {
			units[i] = binary.BigEndian.Uint16(raw[2*i:])
		}
		return string(utf16.Decode(units)), nil

	case "desc":
		if len(data) < 12 {
			return "", errTruncated
		}
		n := int(binary.BigEndian.Uint32(data[8:]))
		if len(data) < 12+n {
			return "", errTruncated
		}
		return cString(data[12 : 12+n]), nil

	case "text":
		return cString(data[8:]), nil
	}
	return "", errUnexpectedType
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// EncodeMLUC encodes s as a single en-US multiLocalizedUnicodeType record.
func EncodeMLUC(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 28+2*len(units))
	copy(buf, "mluc")
	binary.BigEndian.PutUint32(buf[8:], 1)
	binary.BigEndian.PutUint32(buf[12:], 12)
	copy(buf[16:], "enUS")
	binary.BigEndian.PutUint32(buf[20:], uint32(2*len(units)))
	binary.BigEndian.PutUint32(buf[24:], 28)
	for i, u := range units {
		binary.BigEndian.PutUint16(buf[28+2*i:], u)
	}
	return buf
}
