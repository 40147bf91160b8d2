package factory

import (
	"fmt"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/merkle"
	"github.com/nearlight/nearlight/types"
)

// Outcome returns a successful outcome executed by executorID. The id and
// receipt ids are derived from the executor and seq.
func Outcome(executorID string, seq int, logs ...string) types.ExecutionOutcomeWithIDView {
	return types.ExecutionOutcomeWithIDView{
		ID: crypto.Sum([]byte(fmt.Sprintf("%s/%d", executorID, seq))),
		Outcome: types.ExecutionOutcomeView{
			Logs:        logs,
			ReceiptIDs:  []crypto.Hash{crypto.Sum([]byte(fmt.Sprintf("%s/%d/receipt", executorID, seq)))},
			GasBurnt:    2428000000000,
			TokensBurnt: types.NewBalance(242800000000000000),
			ExecutorID:  executorID,
			Status: types.ExecutionStatus{
				Kind:         types.StatusSuccessValue,
				SuccessValue: []byte(fmt.Sprintf(`"ok %d"`, seq)),
			},
		},
	}
}

// CommitOutcomes places outcomes in shard `shard` of `numShards`. The other
// shards hold unrelated roots. Each outcome's shard path is filled in, and
// the chain-level outcome root is returned with the path of the shard's
// root in it.
func CommitOutcomes(outcomes []types.ExecutionOutcomeWithIDView, shard, numShards int) (crypto.Hash, merkle.Path) {
	leaves := make([]crypto.Hash, len(outcomes))
	for i := range outcomes {
		leaves[i] = outcomes[i].LeafHash()
	}
	shardRoot, paths := merkle.ProofsFromHashes(leaves)
	for i := range outcomes {
		outcomes[i].Proof = paths[i]
	}

	shardLeaves := make([]crypto.Hash, numShards)
	for i := range shardLeaves {
		root := crypto.Sum([]byte(fmt.Sprintf("shard %d", i)))
		if i == shard {
			root = shardRoot
		}
		shardLeaves[i] = crypto.HashCanonical(root)
	}
	outcomeRoot, rootPaths := merkle.ProofsFromHashes(shardLeaves)
	return outcomeRoot, rootPaths[shard]
}

// InclusionProof builds a proof that outcome, committed by header, is part
// of a chain whose block accumulator root is reached by blockProof. The
// paths are copied, so proofs built from the same paths can be modified
// independently.
func InclusionProof(
	outcome types.ExecutionOutcomeWithIDView,
	outcomeRootProof merkle.Path,
	header types.LightClientBlockLiteView,
	blockProof merkle.Path,
) *types.ExecutionProof {
	outcome.BlockHash = header.Hash()
	outcome.Proof = append(merkle.Path(nil), outcome.Proof...)
	return &types.ExecutionProof{
		OutcomeProof:     outcome,
		OutcomeRootProof: append(merkle.Path(nil), outcomeRootProof...),
		BlockHeaderLite:  header,
		BlockProof:       append(merkle.Path(nil), blockProof...),
	}
}
