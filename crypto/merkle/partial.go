package merkle

import (
	"encoding/json"
	"fmt"
	"math/bits"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/libs/borsh"
)

// PartialTree is an append-only Merkle accumulator. It keeps only the roots
// of the perfect subtrees that make up the tree, largest first, so it needs
// O(log n) space for n leaves. Its root is always equal to HashFromHashes
// over the same leaves.
//
// PartialTree is a value: Append returns a new tree and leaves the receiver
// untouched.
type PartialTree struct {
	path []crypto.Hash
	size uint64
}

// NewPartialTree restores an accumulator from its subtree roots and leaf
// count. The number of roots must equal the number of set bits in size.
func NewPartialTree(path []crypto.Hash, size uint64) (PartialTree, error) {
	if len(path) != bits.OnesCount64(size) {
		return PartialTree{}, fmt.Errorf(
			"partial tree of size %d needs %d subtree roots, got %d",
			size, bits.OnesCount64(size), len(path))
	}
	return PartialTree{path: append([]crypto.Hash(nil), path...), size: size}, nil
}

// Size returns the number of leaves appended so far.
func (t PartialTree) Size() uint64 {
	return t.size
}

// Path returns a copy of the subtree roots.
func (t PartialTree) Path() []crypto.Hash {
	return append([]crypto.Hash(nil), t.path...)
}

// Root returns the root of the accumulated tree, or the zero hash if the
// tree is empty.
func (t PartialTree) Root() crypto.Hash {
	if len(t.path) == 0 {
		return crypto.Hash{}
	}
	root := t.path[len(t.path)-1]
	for i := len(t.path) - 2; i >= 0; i-- {
		root = crypto.CombineHashes(t.path[i], root)
	}
	return root
}

// Append returns the accumulator with leaf added.
func (t PartialTree) Append(leaf crypto.Hash) PartialTree {
	path := make([]crypto.Hash, len(t.path), len(t.path)+1)
	copy(path, t.path)

	node := leaf
	for s := t.size; s%2 == 1; s /= 2 {
		last := path[len(path)-1]
		path = path[:len(path)-1]
		node = crypto.CombineHashes(last, node)
	}
	return PartialTree{path: append(path, node), size: t.size + 1}
}

func (t PartialTree) MarshalBorsh(e *borsh.Encoder) {
	crypto.Hashes(t.path).MarshalBorsh(e)
	e.WriteU64(t.size)
}

func (t *PartialTree) UnmarshalBorsh(d *borsh.Decoder) error {
	var path crypto.Hashes
	if err := path.UnmarshalBorsh(d); err != nil {
		return err
	}
	size, err := d.ReadU64()
	if err != nil {
		return err
	}
	restored, err := NewPartialTree(path, size)
	if err != nil {
		return err
	}
	*t = restored
	return nil
}

type partialTreeJSON struct {
	Path []crypto.Hash `json:"path"`
	Size uint64        `json:"size"`
}

func (t PartialTree) MarshalJSON() ([]byte, error) {
	path := t.path
	if path == nil {
		path = []crypto.Hash{}
	}
	return json.Marshal(partialTreeJSON{Path: path, Size: t.size})
}

func (t *PartialTree) UnmarshalJSON(bz []byte) error {
	var raw partialTreeJSON
	if err := json.Unmarshal(bz, &raw); err != nil {
		return err
	}
	restored, err := NewPartialTree(raw.Path, raw.Size)
	if err != nil {
		return err
	}
	*t = restored
	return nil
}
