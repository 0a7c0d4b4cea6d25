// Package byteio provides a bounds-checked reader over a byte slice in a
// chosen byte order, for walking container structures such as TIFF IFDs.
package byteio

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrShortBuffer is returned when a read runs past the end of the data.
	ErrShortBuffer = errors.New("byteio: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("byteio: negative size")
)

// Reader reads fixed-size values from a byte slice, keeping a position.
type Reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// NewReader creates a Reader over data using order for multi-byte values.
func NewReader(data []byte, order binary.ByteOrder) *Reader {
	return &Reader{data: data, order: order}
}

// Order returns the byte order of the reader.
func (r *Reader) Order() binary.ByteOrder {
	return r.order
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// SetPos moves the read position.
func (r *Reader) SetPos(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return ErrShortBuffer
	}
	r.pos = pos
	return nil
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return ErrNegativeSize
	}
	if n > r.Len() {
		return ErrShortBuffer
	}
	r.pos += n
	return nil
}

// Slice returns the next n bytes without copying and advances past them.
func (r *Reader) Slice(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if n > r.Len() {
		return nil, ErrShortBuffer
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.Slice(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.Slice(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.Slice(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

// BytesAt returns a copy of n bytes at off without moving the position.
func (r *Reader) BytesAt(off, n int) ([]byte, error) {
	if off < 0 || n < 0 {
		return nil, ErrNegativeSize
	}
	if off > len(r.data) || n > len(r.data)-off {
		return nil, ErrShortBuffer
	}
	return append([]byte(nil), r.data[off:off+n]...), nil
}
