package borsh

import (
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

// Decoder reads canonical encodings from a byte slice.
type Decoder struct {
	bz  []byte
	off int
}

// NewDecoder returns a Decoder reading from bz.
func NewDecoder(bz []byte) *Decoder {
	return &Decoder{bz: bz}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.bz) - d.off
}

// Finish returns an error if any input is left unread.
func (d *Decoder) Finish() error {
	if n := d.Remaining(); n != 0 {
		return ErrTrailingBytes{Remaining: n}
	}
	return nil
}

func (d *Decoder) next(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := d.bz[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) ReadU8() (uint8, error) {
	b, err := d.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidTag{Type: "bool", Tag: v}
	}
}

func (d *Decoder) ReadU32() (uint32, error) {
	b, err := d.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadU64() (uint64, error) {
	b, err := d.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadU128 returns the low and high 64-bit halves of a u128.
func (d *Decoder) ReadU128() (lo, hi uint64, err error) {
	if lo, err = d.ReadU64(); err != nil {
		return 0, 0, err
	}
	if hi, err = d.ReadU64(); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// ReadFixed fills dst with the next len(dst) bytes.
func (d *Decoder) ReadFixed(dst []byte) error {
	b, err := d.next(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// ReadLen reads a u32 length or element count. minElemSize is the smallest
// encoded size of one element; counts that could not possibly fit in the
// remaining input are rejected before anything is allocated.
func (d *Decoder) ReadLen(minElemSize int) (int, error) {
	n, err := d.ReadU32()
	if err != nil {
		return 0, err
	}
	if minElemSize > 0 && uint64(n)*uint64(minElemSize) > uint64(d.Remaining()) {
		return 0, ErrUnexpectedEOF
	}
	return int(n), nil
}

// ReadBytes reads a length-prefixed byte vector. The result is a copy.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadLen(1)
	if err != nil {
		return nil, err
	}
	b, err := d.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadString reads a length-prefixed string, which must be valid UTF-8.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadLen(1)
	if err != nil {
		return "", err
	}
	b, err := d.next(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("borsh: string is not valid UTF-8")
	}
	return string(b), nil
}

// ReadOption reads an option discriminant.
func (d *Decoder) ReadOption() (bool, error) {
	v, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidTag{Type: "option", Tag: v}
	}
}
