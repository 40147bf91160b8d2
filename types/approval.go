package types

import (
	"fmt"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/libs/borsh"
)

type approvalKind uint8

const (
	approvalEndorsement approvalKind = iota
	approvalSkip
)

// ApprovalInner is the variant-specific part of a block approval. Producers
// either endorse the hash of a block they saw, or vote to skip a height when
// no block arrived in time. The two variants sign different bytes.
type ApprovalInner struct {
	kind   approvalKind
	hash   crypto.Hash
	height uint64
}

// NewEndorsement returns an approval endorsing the block with the given hash.
func NewEndorsement(blockHash crypto.Hash) ApprovalInner {
	return ApprovalInner{kind: approvalEndorsement, hash: blockHash}
}

// NewSkip returns an approval to skip to the given height.
func NewSkip(height uint64) ApprovalInner {
	return ApprovalInner{kind: approvalSkip, height: height}
}

// IsEndorsement reports whether the approval endorses a block hash.
func (a ApprovalInner) IsEndorsement() bool {
	return a.kind == approvalEndorsement
}

// EndorsedHash returns the endorsed hash. ok is false for skips.
func (a ApprovalInner) EndorsedHash() (h crypto.Hash, ok bool) {
	return a.hash, a.kind == approvalEndorsement
}

// SkipHeight returns the skipped-from height. ok is false for endorsements.
func (a ApprovalInner) SkipHeight() (height uint64, ok bool) {
	return a.height, a.kind == approvalSkip
}

func (a ApprovalInner) String() string {
	if a.kind == approvalSkip {
		return fmt.Sprintf("Skip(%d)", a.height)
	}
	return fmt.Sprintf("Endorsement(%v)", a.hash)
}

// SignBytes returns the message a producer signs: the canonical encoding of
// the approval followed by the little-endian target height.
func (a ApprovalInner) SignBytes(targetHeight uint64) []byte {
	e := borsh.NewEncoder()
	a.MarshalBorsh(e)
	e.WriteU64(targetHeight)
	return e.Bytes()
}

func (a ApprovalInner) MarshalBorsh(e *borsh.Encoder) {
	e.WriteU8(uint8(a.kind))
	switch a.kind {
	case approvalEndorsement:
		a.hash.MarshalBorsh(e)
	case approvalSkip:
		e.WriteU64(a.height)
	}
}

func (a *ApprovalInner) UnmarshalBorsh(d *borsh.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	switch approvalKind(tag) {
	case approvalEndorsement:
		var h crypto.Hash
		if err := h.UnmarshalBorsh(d); err != nil {
			return err
		}
		*a = NewEndorsement(h)
	case approvalSkip:
		height, err := d.ReadU64()
		if err != nil {
			return err
		}
		*a = NewSkip(height)
	default:
		return borsh.ErrInvalidTag{Type: "approval", Tag: tag}
	}
	return nil
}
