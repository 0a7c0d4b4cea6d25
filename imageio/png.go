package imageio

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"io"

	"github.com/mrjoshuak/go-iccimage/iccimage"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// pngChunks calls fn for each chunk until fn returns false.
func pngChunks(data []byte, fn func(typ string, body []byte) bool) error {
	if !bytes.HasPrefix(data, []byte(pngSignature)) {
		return ErrCorrupted
	}
	for off := len(pngSignature); off < len(data); {
		if len(data)-off < 12 {
			return ErrCorrupted
		}
		n := int(binary.BigEndian.Uint32(data[off:]))
		end := off + 12 + n
		if n < 0 || end > len(data) || end < off {
			return ErrCorrupted
		}
		if !fn(string(data[off+4:off+8]), data[off+8:off+8+n]) {
			return nil
		}
		off = end
	}
	return nil
}

// readICCP returns the raw iCCP payload, or nil if the file has none.
func readICCP(data []byte) ([]byte, error) {
	var payload []byte
	err := pngChunks(data, func(typ string, body []byte) bool {
		switch typ {
		case "iCCP":
			payload = body
			return false
		case "IDAT":
			return false
		}
		return true
	})
	return payload, err
}

// insertChunk returns data with a chunk added right after IHDR.
func insertChunk(data []byte, typ string, body []byte) ([]byte, error) {
	at := -1
	err := pngChunks(data, func(t string, b []byte) bool {
		if t == "IHDR" {
			at = len(pngSignature) + 12 + len(b)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if at < 0 {
		return nil, ErrCorrupted
	}

	chunk := make([]byte, 0, 12+len(body))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(body)))
	chunk = append(chunk, typ...)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:at]...)
	out = append(out, chunk...)
	return append(out, data[at:]...), nil
}

func decodePNG(data []byte) (image.Image, []byte, error) {
	m, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	payload, err := readICCP(data)
	if err != nil || payload == nil {
		return m, nil, err
	}
	p, _, err := iccimage.ProfileFromICCP(payload)
	if err != nil {
		return nil, nil, err
	}
	defer p.Release()
	return m, append([]byte(nil), p.Data()...), nil
}

func encodePNG(w io.Writer, m image.Image, profile *iccimage.ColorProfile) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return err
	}
	out := buf.Bytes()
	if profile != nil {
		payload, err := profile.ICCP(profile.Name())
		if err != nil {
			return err
		}
		if out, err = insertChunk(out, "iCCP", payload); err != nil {
			return err
		}
	}
	_, err := w.Write(out)
	return err
}
