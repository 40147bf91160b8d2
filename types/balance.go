package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/nearlight/nearlight/libs/borsh"
)

// Balance is an unsigned 128-bit token amount, used for stakes and burnt
// tokens. JSON renders it as a decimal string.
type Balance struct {
	i uint256.Int
}

var errBalanceOverflow = errors.New("balance does not fit in 128 bits")

// NewBalance returns a Balance holding v.
func NewBalance(v uint64) Balance {
	var b Balance
	b.i.SetUint64(v)
	return b
}

// ParseBalance parses a base-10 amount.
func ParseBalance(s string) (Balance, error) {
	var b Balance
	if err := b.i.SetFromDecimal(s); err != nil {
		return Balance{}, fmt.Errorf("invalid balance %q: %w", s, err)
	}
	if b.i.BitLen() > 128 {
		return Balance{}, errBalanceOverflow
	}
	return b, nil
}

// Int returns the amount as a 256-bit integer, for overflow-free arithmetic.
func (b Balance) Int() *uint256.Int {
	return new(uint256.Int).Set(&b.i)
}

func (b Balance) IsZero() bool {
	return b.i.IsZero()
}

func (b Balance) Cmp(other Balance) int {
	return b.i.Cmp(&other.i)
}

func (b Balance) String() string {
	return b.i.Dec()
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON accepts both a decimal string and a bare JSON number.
func (b *Balance) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(bz, &n); err != nil {
			return fmt.Errorf("balance must be a decimal string: %w", err)
		}
		s = n.String()
	}
	parsed, err := ParseBalance(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b Balance) MarshalBorsh(e *borsh.Encoder) {
	e.WriteU128(b.i[0], b.i[1])
}

func (b *Balance) UnmarshalBorsh(d *borsh.Decoder) error {
	lo, hi, err := d.ReadU128()
	if err != nil {
		return err
	}
	b.i = uint256.Int{lo, hi, 0, 0}
	return nil
}

// U64 is a uint64 that JSON encodes as a decimal string and decodes from
// either a string or a number. The RPC uses it for nanosecond timestamps.
type U64 uint64

func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

func (u *U64) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(bz, &n); err != nil {
			return err
		}
		s = n.String()
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*u = U64(v)
	return nil
}
