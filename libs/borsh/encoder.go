package borsh

import (
	"encoding/binary"
	"math"
)

// Encoder accumulates the canonical encoding of a value.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Bytes returns the bytes written so far.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

func (e *Encoder) WriteU8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteU8(1)
		return
	}
	e.WriteU8(0)
}

func (e *Encoder) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// WriteU128 writes a 128-bit unsigned integer given as its low and high
// 64-bit halves.
func (e *Encoder) WriteU128(lo, hi uint64) {
	e.WriteU64(lo)
	e.WriteU64(hi)
}

// WriteFixed writes bz with no length prefix. It is used for fixed-size
// arrays such as hashes and keys.
func (e *Encoder) WriteFixed(bz []byte) {
	e.buf = append(e.buf, bz...)
}

// WriteLen writes a u32 length or element count. Lengths that do not fit
// in a u32 cannot be represented and panic.
func (e *Encoder) WriteLen(n int) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		panic("borsh: length out of range")
	}
	e.WriteU32(uint32(n))
}

// WriteBytes writes a length-prefixed byte vector.
func (e *Encoder) WriteBytes(bz []byte) {
	e.WriteLen(len(bz))
	e.WriteFixed(bz)
}

// WriteString writes a length-prefixed UTF-8 string.
func (e *Encoder) WriteString(s string) {
	e.WriteLen(len(s))
	e.buf = append(e.buf, s...)
}

// WriteOption writes the option discriminant. When some is true the caller
// writes the value right after.
func (e *Encoder) WriteOption(some bool) {
	e.WriteBool(some)
}
