package types

import (
	"errors"
	"fmt"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/merkle"
)

// ExecutionProof proves that an execution outcome is included under a block
// header, and that the header is included in a block Merkle accumulator.
//
// The outcome is committed by the block after the one that produced it, so
// OutcomeRootProof leads to BlockHeaderLite's previous outcome root.
type ExecutionProof struct {
	OutcomeProof     ExecutionOutcomeWithIDView `json:"outcome_proof"`
	OutcomeRootProof merkle.Path                `json:"outcome_root_proof"`
	BlockHeaderLite  LightClientBlockLiteView   `json:"block_header_lite"`
	BlockProof       merkle.Path                `json:"block_proof"`
}

// LcProof is an execution proof bundled with the block Merkle root it must
// be resolved against.
type LcProof struct {
	HeadBlockRoot crypto.Hash     `json:"head_block_root"`
	Proof         *ExecutionProof `json:"proof"`
}

// NewLcProof bundles p with the accumulator root it was built for.
func NewLcProof(headBlockRoot crypto.Hash, p *ExecutionProof) LcProof {
	return LcProof{HeadBlockRoot: headBlockRoot, Proof: p}
}

// ValidateBasic checks that the bundle carries a proof.
func (p LcProof) ValidateBasic() error {
	if p.Proof == nil {
		return ErrMalformedInput{Field: "proof", Reason: errors.New("missing")}
	}
	return nil
}

func (p LcProof) String() string {
	if p.Proof == nil {
		return fmt.Sprintf("LcProof{root:%v <nil>}", p.HeadBlockRoot)
	}
	return fmt.Sprintf("LcProof{root:%v outcome:%v block:#%d}",
		p.HeadBlockRoot, p.Proof.OutcomeProof.ID, p.Proof.BlockHeaderLite.Height())
}
