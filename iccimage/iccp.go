package iccimage

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/zlib"
)

// maxICCPSize bounds the inflated size of an iCCP profile.
const maxICCPSize = 64 << 20

var (
	errICCPName        = errors.New("iccp: profile name must be 1-79 bytes")
	errICCPCompression = errors.New("iccp: unknown compression method")
	errICCPTooLarge    = errors.New("iccp: profile exceeds size limit")
)

// ProfileFromICCP decodes the payload of a PNG iCCP chunk: a profile name,
// a NUL, the compression method (0) and a zlib stream. It returns the
// profile and its name.
func ProfileFromICCP(payload []byte) (*ColorProfile, string, error) {
	nul := bytes.IndexByte(payload, 0)
	if nul < 1 || nul > 79 {
		return nil, "", newError(CodeProfileOpenFailure, errICCPName, "iCCP chunk")
	}
	name := string(payload[:nul])
	if len(payload) < nul+2 || payload[nul+1] != 0 {
		return nil, name, newError(CodeProfileOpenFailure, errICCPCompression, "iCCP chunk")
	}

	r, err := zlib.NewReader(bytes.NewReader(payload[nul+2:]))
	if err != nil {
		return nil, name, newError(CodeProfileOpenFailure, err, "iCCP zlib header")
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, maxICCPSize+1))
	if err != nil {
		return nil, name, newError(CodeProfileOpenFailure, err, "inflate iCCP profile")
	}
	if len(data) > maxICCPSize {
		return nil, name, newError(CodeProfileOpenFailure, errICCPTooLarge, "inflate iCCP profile")
	}
	p, err := NewColorProfile(data)
	if err != nil {
		return nil, name, err
	}
	return p, name, nil
}

// ICCP encodes p as the payload of a PNG iCCP chunk under name. Names
// longer than 79 bytes are truncated; an empty name becomes "ICC Profile".
func (p *ColorProfile) ICCP(name string) ([]byte, error) {
	if name == "" {
		name = "ICC Profile"
	}
	if len(name) > 79 {
		name = name[:79]
	}
	name = string(bytes.ReplaceAll([]byte(name), []byte{0}, []byte{' '}))

	var buf bytes.Buffer
	buf.WriteString(name)
	buf.Write([]byte{0, 0})

	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, newError(CodeUnknown, err, "iCCP zlib writer")
	}
	if _, err := w.Write(p.Data()); err != nil {
		w.Close()
		return nil, newError(CodeUnknown, err, "deflate iCCP profile")
	}
	if err := w.Close(); err != nil {
		return nil, newError(CodeUnknown, err, "deflate iCCP profile")
	}
	return buf.Bytes(), nil
}
