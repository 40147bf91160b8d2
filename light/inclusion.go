package light

import (
	"errors"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/merkle"
	"github.com/nearlight/nearlight/types"
)

// VerifyExecutionProof checks that the outcome carried by p is committed to
// by p's header, and that the header is committed to by blockMerkleRoot.
//
// The outcome leaf leads through the shard's outcome tree to a shard root,
// whose hash leads through outcome_root_proof to the outcome root of the
// header. The header hash then leads through block_proof to
// blockMerkleRoot. Both steps must hold; ErrMerklePathMismatch names the one
// that failed.
func VerifyExecutionProof(blockMerkleRoot crypto.Hash, p *types.ExecutionProof) error {
	if p == nil {
		return types.ErrMalformedInput{Field: "proof", Reason: errors.New("missing")}
	}

	shardRoot := p.OutcomeProof.ShardOutcomeRoot()
	outcomeRoot := p.BlockHeaderLite.InnerLite.OutcomeRoot
	if got := merkle.ComputeRoot(crypto.HashCanonical(shardRoot), p.OutcomeRootProof); got != outcomeRoot {
		return ErrMerklePathMismatch{Step: StepOutcome, Expected: outcomeRoot, Got: got}
	}

	headerHash := p.BlockHeaderLite.Hash()
	if got := merkle.ComputeRoot(headerHash, p.BlockProof); got != blockMerkleRoot {
		return ErrMerklePathMismatch{Step: StepBlock, Expected: blockMerkleRoot, Got: got}
	}
	return nil
}

// VerifyLcProof checks an execution proof against the block Merkle root it
// was bundled with. The caller is responsible for trusting that root.
func VerifyLcProof(p types.LcProof) error {
	if err := p.ValidateBasic(); err != nil {
		return err
	}
	return VerifyExecutionProof(p.HeadBlockRoot, p.Proof)
}
