package merkle

import (
	"fmt"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/libs/borsh"
)

// Direction tells on which side of the running hash a sibling is combined.
type Direction uint8

const (
	// Left means the sibling is the left operand.
	Left Direction = iota
	// Right means the sibling is the right operand.
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	if d != Left && d != Right {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Left":
		*d = Left
	case "Right":
		*d = Right
	default:
		return fmt.Errorf("invalid direction %q", text)
	}
	return nil
}

func (d Direction) MarshalBorsh(e *borsh.Encoder) {
	e.WriteU8(uint8(d))
}

func (d *Direction) UnmarshalBorsh(dec *borsh.Decoder) error {
	v, err := dec.ReadU8()
	if err != nil {
		return err
	}
	if Direction(v) != Left && Direction(v) != Right {
		return borsh.ErrInvalidTag{Type: "direction", Tag: v}
	}
	*d = Direction(v)
	return nil
}

// PathItem is one step of a Merkle path: the sibling hash and its side.
type PathItem struct {
	Hash      crypto.Hash `json:"hash"`
	Direction Direction   `json:"direction"`
}

func (item PathItem) MarshalBorsh(e *borsh.Encoder) {
	item.Hash.MarshalBorsh(e)
	item.Direction.MarshalBorsh(e)
}

func (item *PathItem) UnmarshalBorsh(d *borsh.Decoder) error {
	if err := item.Hash.UnmarshalBorsh(d); err != nil {
		return err
	}
	return item.Direction.UnmarshalBorsh(d)
}

// Path is the list of siblings from a leaf up to the root.
type Path []PathItem

func (p Path) MarshalBorsh(e *borsh.Encoder) {
	e.WriteLen(len(p))
	for _, item := range p {
		item.MarshalBorsh(e)
	}
}

func (p *Path) UnmarshalBorsh(d *borsh.Decoder) error {
	n, err := d.ReadLen(crypto.HashSize + 1)
	if err != nil {
		return err
	}
	out := make(Path, n)
	for i := range out {
		if err := out[i].UnmarshalBorsh(d); err != nil {
			return err
		}
	}
	*p = out
	return nil
}

// ComputeRoot folds path over leaf and returns the resulting root.
func ComputeRoot(leaf crypto.Hash, path Path) crypto.Hash {
	hash := leaf
	for _, sibling := range path {
		switch sibling.Direction {
		case Left:
			hash = crypto.CombineHashes(sibling.Hash, hash)
		default:
			hash = crypto.CombineHashes(hash, sibling.Hash)
		}
	}
	return hash
}

// ComputeRootFromItem is ComputeRoot over the canonical hash of item.
func ComputeRootFromItem(path Path, item borsh.Marshaler) crypto.Hash {
	return ComputeRoot(crypto.HashCanonical(item), path)
}

// Verify reports whether path proves that leaf is committed under root. An
// empty path proves a single-leaf tree, whose root is the leaf itself.
func Verify(root crypto.Hash, path Path, leaf crypto.Hash) bool {
	return ComputeRoot(leaf, path) == root
}
