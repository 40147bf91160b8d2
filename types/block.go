package types

import (
	"fmt"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/ed25519"
	"github.com/nearlight/nearlight/libs/borsh"
)

// BlockHeaderInnerLite is the part of a block header a light client hashes.
// Its canonical encoding is the first input of the header identity hash, so
// the field order below is part of the wire contract.
type BlockHeaderInnerLite struct {
	// Height of this block.
	Height uint64
	// Epoch start hash of this block's epoch.
	EpochID crypto.Hash
	NextEpochID crypto.Hash
	// Root hash of the state at the previous block.
	PrevStateRoot crypto.Hash
	// Root of the outcomes of transactions and receipts from the previous chunks.
	PrevOutcomeRoot crypto.Hash
	// Nanoseconds since the Unix epoch.
	Timestamp uint64
	// Hash of the next epoch block producers set.
	NextBPHash crypto.Hash
	// Merkle root of block hashes up to the current block.
	BlockMerkleRoot crypto.Hash
}

func (h BlockHeaderInnerLite) MarshalBorsh(e *borsh.Encoder) {
	e.WriteU64(h.Height)
	h.EpochID.MarshalBorsh(e)
	h.NextEpochID.MarshalBorsh(e)
	h.PrevStateRoot.MarshalBorsh(e)
	h.PrevOutcomeRoot.MarshalBorsh(e)
	e.WriteU64(h.Timestamp)
	h.NextBPHash.MarshalBorsh(e)
	h.BlockMerkleRoot.MarshalBorsh(e)
}

// BlockHeaderInnerLiteView is the RPC rendering of BlockHeaderInnerLite. It
// carries a legacy millisecond-ish timestamp that is never hashed.
type BlockHeaderInnerLiteView struct {
	Height           uint64      `json:"height"`
	EpochID          crypto.Hash `json:"epoch_id"`
	NextEpochID      crypto.Hash `json:"next_epoch_id"`
	PrevStateRoot    crypto.Hash `json:"prev_state_root"`
	OutcomeRoot      crypto.Hash `json:"outcome_root"`
	Timestamp        uint64      `json:"timestamp"`
	TimestampNanosec U64         `json:"timestamp_nanosec"`
	NextBPHash       crypto.Hash `json:"next_bp_hash"`
	BlockMerkleRoot  crypto.Hash `json:"block_merkle_root"`
}

// InnerLite converts the view into its canonical, hashed form.
func (v BlockHeaderInnerLiteView) InnerLite() BlockHeaderInnerLite {
	return BlockHeaderInnerLite{
		Height:          v.Height,
		EpochID:         v.EpochID,
		NextEpochID:     v.NextEpochID,
		PrevStateRoot:   v.PrevStateRoot,
		PrevOutcomeRoot: v.OutcomeRoot,
		Timestamp:       uint64(v.TimestampNanosec),
		NextBPHash:      v.NextBPHash,
		BlockMerkleRoot: v.BlockMerkleRoot,
	}
}

func (v BlockHeaderInnerLiteView) MarshalBorsh(e *borsh.Encoder) {
	e.WriteU64(v.Height)
	v.EpochID.MarshalBorsh(e)
	v.NextEpochID.MarshalBorsh(e)
	v.PrevStateRoot.MarshalBorsh(e)
	v.OutcomeRoot.MarshalBorsh(e)
	e.WriteU64(v.Timestamp)
	e.WriteU64(uint64(v.TimestampNanosec))
	v.NextBPHash.MarshalBorsh(e)
	v.BlockMerkleRoot.MarshalBorsh(e)
}

func (v *BlockHeaderInnerLiteView) UnmarshalBorsh(d *borsh.Decoder) (err error) {
	if v.Height, err = d.ReadU64(); err != nil {
		return err
	}
	for _, h := range []*crypto.Hash{&v.EpochID, &v.NextEpochID, &v.PrevStateRoot, &v.OutcomeRoot} {
		if err := h.UnmarshalBorsh(d); err != nil {
			return err
		}
	}
	if v.Timestamp, err = d.ReadU64(); err != nil {
		return err
	}
	ts, err := d.ReadU64()
	if err != nil {
		return err
	}
	v.TimestampNanosec = U64(ts)
	if err := v.NextBPHash.UnmarshalBorsh(d); err != nil {
		return err
	}
	return v.BlockMerkleRoot.UnmarshalBorsh(d)
}

//-----------------------------------------------------------------------------

// LightClientBlockLiteView is the light client's view of a block header.
// Its identity hash is derived from the fields every time it is needed and is
// never stored next to them.
type LightClientBlockLiteView struct {
	PrevBlockHash crypto.Hash              `json:"prev_block_hash"`
	InnerRestHash crypto.Hash              `json:"inner_rest_hash"`
	InnerLite     BlockHeaderInnerLiteView `json:"inner_lite"`
}

// Hash returns the block hash:
//
//	combine(combine(hash(inner_lite), inner_rest_hash), prev_block_hash)
func (h LightClientBlockLiteView) Hash() crypto.Hash {
	innerLiteHash := crypto.HashCanonical(h.InnerLite.InnerLite())
	return crypto.CombineHashes(
		crypto.CombineHashes(innerLiteHash, h.InnerRestHash),
		h.PrevBlockHash,
	)
}

// Height returns the header height.
func (h LightClientBlockLiteView) Height() uint64 {
	return h.InnerLite.Height
}

func (h LightClientBlockLiteView) String() string {
	return fmt.Sprintf("Header{#%d %v epoch:%v}", h.InnerLite.Height, h.Hash(), h.InnerLite.EpochID)
}

func (h LightClientBlockLiteView) MarshalBorsh(e *borsh.Encoder) {
	h.PrevBlockHash.MarshalBorsh(e)
	h.InnerRestHash.MarshalBorsh(e)
	h.InnerLite.MarshalBorsh(e)
}

func (h *LightClientBlockLiteView) UnmarshalBorsh(d *borsh.Decoder) error {
	if err := h.PrevBlockHash.UnmarshalBorsh(d); err != nil {
		return err
	}
	if err := h.InnerRestHash.UnmarshalBorsh(d); err != nil {
		return err
	}
	return h.InnerLite.UnmarshalBorsh(d)
}

//-----------------------------------------------------------------------------

// LightClientBlockView is the evidence offered to advance a light client by
// one block: the next header, the producers of the following epoch if the
// header commits to them, and approvals of the block after next.
//
// ApprovalsAfterNext has one slot per block producer of the header's epoch,
// in producer order. A nil slot means that producer did not approve.
// NextBPs is nil when the evidence carries no producer set.
type LightClientBlockView struct {
	PrevBlockHash      crypto.Hash              `json:"prev_block_hash"`
	NextBlockInnerHash crypto.Hash              `json:"next_block_inner_hash"`
	InnerLite          BlockHeaderInnerLiteView `json:"inner_lite"`
	InnerRestHash      crypto.Hash              `json:"inner_rest_hash"`
	NextBPs            []ValidatorStakeView     `json:"next_bps"`
	ApprovalsAfterNext []*ed25519.Signature     `json:"approvals_after_next"`
}

// LiteView returns the header carried by the evidence.
func (b *LightClientBlockView) LiteView() LightClientBlockLiteView {
	return LightClientBlockLiteView{
		PrevBlockHash: b.PrevBlockHash,
		InnerRestHash: b.InnerRestHash,
		InnerLite:     b.InnerLite,
	}
}

// CurrentBlockHash returns the identity hash of the header carried by the
// evidence.
func (b *LightClientBlockView) CurrentBlockHash() crypto.Hash {
	return b.LiteView().Hash()
}

// NextBlockHash returns the hash of the block following the evidence header,
// given the evidence header's hash.
func (b *LightClientBlockView) NextBlockHash(current crypto.Hash) crypto.Hash {
	return crypto.CombineHashes(b.NextBlockInnerHash, current)
}

// HasNextBPs reports whether the evidence carries a producer set.
func (b *LightClientBlockView) HasNextBPs() bool {
	return b.NextBPs != nil
}

// ApprovalMessage returns the bytes each producer signed to approve this
// evidence: an endorsement of the next block, targeted two heights above the
// evidence header.
func (b *LightClientBlockView) ApprovalMessage(current crypto.Hash) []byte {
	return NewEndorsement(b.NextBlockHash(current)).SignBytes(b.InnerLite.Height + 2)
}

// ValidateBasic performs structural checks that need no trusted state.
func (b *LightClientBlockView) ValidateBasic() error {
	for i, v := range b.NextBPs {
		if err := v.ValidateBasic(); err != nil {
			return ErrMalformedInput{Field: fmt.Sprintf("next_bps[%d]", i), Reason: err}
		}
	}
	for i, sig := range b.ApprovalsAfterNext {
		if sig == nil {
			continue
		}
		if err := sig.ValidateBasic(); err != nil {
			return ErrMalformedInput{Field: fmt.Sprintf("approvals_after_next[%d]", i), Reason: err}
		}
	}
	return nil
}

func (b *LightClientBlockView) MarshalBorsh(e *borsh.Encoder) {
	b.PrevBlockHash.MarshalBorsh(e)
	b.NextBlockInnerHash.MarshalBorsh(e)
	b.InnerLite.MarshalBorsh(e)
	b.InnerRestHash.MarshalBorsh(e)
	e.WriteOption(b.NextBPs != nil)
	if b.NextBPs != nil {
		ValidatorStakeViews(b.NextBPs).MarshalBorsh(e)
	}
	e.WriteLen(len(b.ApprovalsAfterNext))
	for _, sig := range b.ApprovalsAfterNext {
		e.WriteOption(sig != nil)
		if sig != nil {
			sig.MarshalBorsh(e)
		}
	}
}

func (b *LightClientBlockView) UnmarshalBorsh(d *borsh.Decoder) error {
	if err := b.PrevBlockHash.UnmarshalBorsh(d); err != nil {
		return err
	}
	if err := b.NextBlockInnerHash.UnmarshalBorsh(d); err != nil {
		return err
	}
	if err := b.InnerLite.UnmarshalBorsh(d); err != nil {
		return err
	}
	if err := b.InnerRestHash.UnmarshalBorsh(d); err != nil {
		return err
	}
	some, err := d.ReadOption()
	if err != nil {
		return err
	}
	b.NextBPs = nil
	if some {
		var bps ValidatorStakeViews
		if err := bps.UnmarshalBorsh(d); err != nil {
			return err
		}
		b.NextBPs = bps
	}
	n, err := d.ReadLen(1)
	if err != nil {
		return err
	}
	b.ApprovalsAfterNext = make([]*ed25519.Signature, n)
	for i := range b.ApprovalsAfterNext {
		present, err := d.ReadOption()
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		sig := new(ed25519.Signature)
		if err := sig.UnmarshalBorsh(d); err != nil {
			return err
		}
		b.ApprovalsAfterNext[i] = sig
	}
	return nil
}
