// Package scale implements the canonical little-endian length-prefixed
// wire encoding required for outbound messages.
//
// No parity-scale-codec-compatible Go library is available (klaytn's
// own RLP usage sits in go-ethereum itself, not a hand-portable
// dependency), so this package is a small hand-rolled encoder over
// encoding/binary — see DESIGN.md for the justification.
package scale

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Encoder appends canonically-encoded values to an internal buffer.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) PutUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// PutFixedPointBits appends a FixedPoint's raw 128-bit bit pattern
// unchanged (big-endian internally per fixedpoint.Bits, carried verbatim
// as the wire's canonical representation for this field).
func (e *Encoder) PutFixedPointBits(bits [16]byte) {
	e.buf = append(e.buf, bits[:]...)
}

func (e *Encoder) PutBytes32(b [32]byte) {
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) PutBytes12(b [12]byte) {
	e.buf = append(e.buf, b[:]...)
}

// PutBytes writes a length-prefixed (uint32 LE) byte slice.
func (e *Encoder) PutBytes(b []byte) {
	e.PutUint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

// PutSlice writes a length-prefixed (uint32 LE) sequence, invoking write
// for each element in order.
func PutSlice[T any](e *Encoder, items []T, write func(*Encoder, T)) {
	e.PutUint32(uint32(len(items)))
	for _, item := range items {
		write(e, item)
	}
}

// Decoder reads canonically-encoded values from a byte slice in order.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(b []byte) *Decoder { return &Decoder{buf: b} }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, fmt.Errorf("scale: short read: want %d bytes, have %d", n, len(d.buf)-d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) FixedPointBits() ([16]byte, error) {
	var out [16]byte
	b, err := d.take(16)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (d *Decoder) Bytes32() ([32]byte, error) {
	var out [32]byte
	b, err := d.take(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (d *Decoder) Bytes12() ([12]byte, error) {
	var out [12]byte
	b, err := d.take(12)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (d *Decoder) Bytes() ([]byte, error) {
	n, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	return d.take(int(n))
}

func (d *Decoder) Done() bool { return d.pos >= len(d.buf) }

var ErrShortRead = io.ErrUnexpectedEOF
