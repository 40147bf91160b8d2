package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/nearlight/nearlight/libs/borsh"
)

const (
	// HashSize is the size in bytes of a Hash.
	HashSize = sha256.Size
)

// Hash is a SHA-256 digest. It identifies blocks, outcomes and Merkle nodes.
//
// Hashes are base58 encoded in JSON, the same way the NEAR RPC renders them.
type Hash [HashSize]byte

// HashFromBytes copies bz into a Hash. bz must be exactly HashSize bytes.
func HashFromBytes(bz []byte) (Hash, error) {
	var h Hash
	if len(bz) != HashSize {
		return h, fmt.Errorf("expected %d byte hash, got %d bytes", HashSize, len(bz))
	}
	copy(h[:], bz)
	return h, nil
}

// ParseHash decodes a base58 string into a Hash.
func ParseHash(s string) (Hash, error) {
	bz := base58.Decode(s)
	if len(bz) == 0 && s != "" {
		return Hash{}, fmt.Errorf("invalid base58 hash %q", s)
	}
	return HashFromBytes(bz)
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of h as a slice.
func (h Hash) Bytes() []byte {
	bz := make([]byte, HashSize)
	copy(bz, h[:])
	return bz
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h Hash) MarshalBorsh(e *borsh.Encoder) {
	e.WriteFixed(h[:])
}

func (h *Hash) UnmarshalBorsh(d *borsh.Decoder) error {
	return d.ReadFixed(h[:])
}

// Hashes is an ordered list of hashes, encoded as a borsh vector.
type Hashes []Hash

func (hs Hashes) MarshalBorsh(e *borsh.Encoder) {
	e.WriteLen(len(hs))
	for _, h := range hs {
		h.MarshalBorsh(e)
	}
}

func (hs *Hashes) UnmarshalBorsh(d *borsh.Decoder) error {
	n, err := d.ReadLen(HashSize)
	if err != nil {
		return err
	}
	out := make(Hashes, n)
	for i := range out {
		if err := out[i].UnmarshalBorsh(d); err != nil {
			return err
		}
	}
	*hs = out
	return nil
}
