// Package borsh implements the Binary Object Representation Serializer for
// Hashing, the canonical byte layout shared with the NEAR block producers.
//
// Every value hashed by the light client goes through this package, so the
// layout is fixed:
//
//	u8/u32/u64/u128   little-endian, fixed width
//	[N]byte           raw bytes, no prefix
//	string, []byte    u32 length prefix followed by the bytes
//	vector            u32 element count followed by the elements
//	enum              u8 discriminant followed by the variant payload
//	option            u8 0 (none) or 1 (some) followed by the value
//
// There is no padding and no self-description. A value that decodes
// successfully re-encodes to exactly the input bytes.
package borsh

import (
	"errors"
	"fmt"
)

// Marshaler is implemented by every type with a canonical encoding.
type Marshaler interface {
	MarshalBorsh(e *Encoder)
}

// Unmarshaler is implemented by every type that can be decoded from its
// canonical encoding.
type Unmarshaler interface {
	UnmarshalBorsh(d *Decoder) error
}

// Marshal returns the canonical encoding of v.
func Marshal(v Marshaler) []byte {
	e := NewEncoder()
	v.MarshalBorsh(e)
	return e.Bytes()
}

// Unmarshal decodes bz into v. The whole input must be consumed.
func Unmarshal(bz []byte, v Unmarshaler) error {
	d := NewDecoder(bz)
	if err := v.UnmarshalBorsh(d); err != nil {
		return err
	}
	return d.Finish()
}

// ErrUnexpectedEOF is returned when the input ends in the middle of a value.
var ErrUnexpectedEOF = errors.New("borsh: unexpected end of input")

// ErrTrailingBytes is returned by Finish when input remains after decoding.
type ErrTrailingBytes struct {
	Remaining int
}

func (e ErrTrailingBytes) Error() string {
	return fmt.Sprintf("borsh: %d trailing bytes after value", e.Remaining)
}

// ErrInvalidTag is returned when an enum or option discriminant is out of
// range for the type being decoded.
type ErrInvalidTag struct {
	Type string
	Tag  uint8
}

func (e ErrInvalidTag) Error() string {
	return fmt.Sprintf("borsh: invalid %s discriminant %d", e.Type, e.Tag)
}
