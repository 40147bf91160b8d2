package light_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/merkle"
	"github.com/nearlight/nearlight/internal/test/factory"
	"github.com/nearlight/nearlight/light"
	"github.com/nearlight/nearlight/types"
)

// inclusionChain is a chain of a few trusted blocks, the second of which
// commits to three outcomes in shard 1 of 4.
type inclusionChain struct {
	cp       light.Checkpoint
	chain    *factory.Chain
	header   types.LightClientBlockLiteView
	index    int
	outcomes []types.ExecutionOutcomeWithIDView
	rootPath merkle.Path
}

func newInclusionChain(t *testing.T) inclusionChain {
	t.Helper()

	outcomes := []types.ExecutionOutcomeWithIDView{
		factory.Outcome("alice.near", 0, "transfer 10", "memo"),
		factory.Outcome("bob.near", 1),
		factory.Outcome("carol.near", 2, "EVENT_JSON:{}"),
	}
	outcomeRoot, rootPath := factory.CommitOutcomes(outcomes, 1, 4)

	chain, cp := newChain(t, 50, 1, 1, 1)
	ic := inclusionChain{chain: chain, outcomes: outcomes, rootPath: rootPath}
	for i := 0; i < 4; i++ {
		var opts []factory.HeaderOption
		if i == 1 {
			opts = append(opts, factory.WithOutcomeRoot(outcomeRoot))
		}
		ev := chain.Next(opts...)
		if i == 1 {
			ic.header, ic.index = ev.LiteView(), chain.Len()-1
		}
		var err error
		cp, err = cp.Advance(ev)
		require.NoError(t, err)
	}
	ic.cp = cp
	return ic
}

// proofs returns a proof for each outcome against the tree over the first
// size blocks of the chain.
func (ic inclusionChain) proofs(t *testing.T, size int) (crypto.Hash, []*types.ExecutionProof) {
	t.Helper()

	root, blockProof := ic.chain.BlockProof(ic.index, size)
	proofs := make([]*types.ExecutionProof, len(ic.outcomes))
	for i, o := range ic.outcomes {
		proofs[i] = factory.InclusionProof(o, ic.rootPath, ic.header, blockProof)
	}
	return root, proofs
}

// inclusionFixture returns a checkpoint and a proof for each outcome
// against the checkpoint's own block accumulator. Every call builds fresh
// values.
func inclusionFixture(t *testing.T) (light.Checkpoint, []*types.ExecutionProof) {
	t.Helper()

	ic := newInclusionChain(t)
	root, proofs := ic.proofs(t, ic.chain.Len())
	require.Equal(t, ic.cp.BlockMerkleRoot(), root)
	return ic.cp, proofs
}

func TestVerifyInclusion(t *testing.T) {
	cp, proofs := inclusionFixture(t)

	for _, p := range proofs {
		outcome, err := cp.VerifyInclusion(p)
		require.NoError(t, err)
		assert.Equal(t, p.OutcomeProof.ID, outcome.ID)
		assert.Equal(t, p.OutcomeProof.Outcome.ExecutorID, outcome.Outcome.ExecutorID)
		assert.Equal(t, p.BlockHeaderLite.Hash(), outcome.BlockHash)
	}

	_, err := cp.VerifyInclusion(nil)
	assert.ErrorAs(t, err, &types.ErrMalformedInput{})
}

func TestVerifyInclusion_HeadBlockRoot(t *testing.T) {
	ic := newInclusionChain(t)
	cp := ic.cp

	// The trusted header commits to every block before it.
	root, proofs := ic.proofs(t, ic.chain.Len()-1)
	require.Equal(t, cp.HeadBlockRoot(), root)
	require.NotEqual(t, cp.BlockMerkleRoot(), root)

	for _, p := range proofs {
		outcome, err := cp.VerifyInclusion(p)
		require.NoError(t, err)
		assert.Equal(t, p.OutcomeProof.ID, outcome.ID)
	}

	// A root committed by neither is reported against the header's root.
	_, stale := ic.proofs(t, ic.chain.Len()-2)
	_, err := cp.VerifyInclusion(stale[0])
	var mismatch light.ErrMerklePathMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, light.StepBlock, mismatch.Step)
	assert.Equal(t, cp.HeadBlockRoot(), mismatch.Expected)

	// Batches resolve the same way.
	c, err := light.NewClient(cp, newStore())
	require.NoError(t, err)
	results, err := c.VerifyInclusionBatch(context.Background(), append(proofs, stale[0]))
	require.NoError(t, err)
	for _, res := range results[:len(proofs)] {
		assert.NoError(t, res)
	}
	assert.ErrorIs(t, results[len(proofs)], light.ErrInvalidProof)
}

// The shard outcome root is hashed once more before it is looked up in the
// block's outcome root, as the chain merklizes the canonical encoding of
// each shard's root.
func TestVerifyExecutionProof_ShardRootLeaf(t *testing.T) {
	outcome := factory.Outcome("alice.near", 0, "hello")
	leaf := outcome.LeafHash()

	proofFor := func(outcomeRoot crypto.Hash) (crypto.Hash, *types.ExecutionProof) {
		header := types.LightClientBlockLiteView{
			InnerLite: types.BlockHeaderInnerLiteView{Height: 7, OutcomeRoot: outcomeRoot},
		}
		return header.Hash(), factory.InclusionProof(outcome, nil, header, nil)
	}

	root, p := proofFor(crypto.HashCanonical(leaf))
	require.NoError(t, light.VerifyExecutionProof(root, p))

	root, p = proofFor(leaf)
	err := light.VerifyExecutionProof(root, p)
	var mismatch light.ErrMerklePathMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, light.StepOutcome, mismatch.Step)
	assert.Equal(t, crypto.HashCanonical(leaf), mismatch.Got)
}

func TestVerifyInclusion_Mutations(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(p *types.ExecutionProof)
		step   string
	}{
		{"log byte", func(p *types.ExecutionProof) {
			log := []byte(p.OutcomeProof.Outcome.Logs[0])
			log[0] ^= 1
			p.OutcomeProof.Outcome.Logs[0] = string(log)
		}, light.StepOutcome},
		{"dropped log", func(p *types.ExecutionProof) {
			p.OutcomeProof.Outcome.Logs = p.OutcomeProof.Outcome.Logs[:1]
		}, light.StepOutcome},
		{"status value byte", func(p *types.ExecutionProof) {
			p.OutcomeProof.Outcome.Status.SuccessValue[0] ^= 1
		}, light.StepOutcome},
		{"status kind", func(p *types.ExecutionProof) {
			p.OutcomeProof.Outcome.Status = types.ExecutionStatus{Kind: types.StatusUnknown}
		}, light.StepOutcome},
		{"gas burnt", func(p *types.ExecutionProof) {
			p.OutcomeProof.Outcome.GasBurnt++
		}, light.StepOutcome},
		{"outcome id", func(p *types.ExecutionProof) {
			p.OutcomeProof.ID[31] ^= 1
		}, light.StepOutcome},
		{"shard path sibling", func(p *types.ExecutionProof) {
			p.OutcomeProof.Proof[0].Hash[0] ^= 1
		}, light.StepOutcome},
		{"shard path direction", func(p *types.ExecutionProof) {
			p.OutcomeProof.Proof[0].Direction = flip(p.OutcomeProof.Proof[0].Direction)
		}, light.StepOutcome},
		{"outcome root path sibling", func(p *types.ExecutionProof) {
			p.OutcomeRootProof[1].Hash[7] ^= 0x80
		}, light.StepOutcome},
		{"outcome root path direction", func(p *types.ExecutionProof) {
			p.OutcomeRootProof[0].Direction = flip(p.OutcomeRootProof[0].Direction)
		}, light.StepOutcome},
		{"outcome root path truncated", func(p *types.ExecutionProof) {
			p.OutcomeRootProof = p.OutcomeRootProof[:1]
		}, light.StepOutcome},
		{"header outcome root", func(p *types.ExecutionProof) {
			p.BlockHeaderLite.InnerLite.OutcomeRoot[0] ^= 1
		}, light.StepOutcome},
		{"header height", func(p *types.ExecutionProof) {
			p.BlockHeaderLite.InnerLite.Height++
		}, light.StepBlock},
		{"header prev hash", func(p *types.ExecutionProof) {
			p.BlockHeaderLite.PrevBlockHash[3] ^= 1
		}, light.StepBlock},
		{"block path sibling", func(p *types.ExecutionProof) {
			p.BlockProof[0].Hash[0] ^= 1
		}, light.StepBlock},
		{"block path direction", func(p *types.ExecutionProof) {
			last := len(p.BlockProof) - 1
			p.BlockProof[last].Direction = flip(p.BlockProof[last].Direction)
		}, light.StepBlock},
		{"block path extended", func(p *types.ExecutionProof) {
			p.BlockProof = append(p.BlockProof, merkle.PathItem{Direction: merkle.Right})
		}, light.StepBlock},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cp, proofs := inclusionFixture(t)
			p := proofs[0]
			tc.mutate(p)

			_, err := cp.VerifyInclusion(p)
			var mismatch light.ErrMerklePathMismatch
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tc.step, mismatch.Step)
			assert.True(t, errors.Is(err, light.ErrInvalidProof))
			assert.False(t, errors.Is(err, light.ErrInvalidEvidence))
		})
	}
}

func TestVerifyInclusion_FailureDetailsNotCommitted(t *testing.T) {
	cp, proofs := inclusionFixture(t)
	p := proofs[1]
	p.OutcomeProof.Outcome.Status = types.ExecutionStatus{
		Kind:    types.StatusFailure,
		Failure: []byte(`{"ActionError":{"index":0}}`),
	}
	_, err := cp.VerifyInclusion(p)
	require.ErrorAs(t, err, &light.ErrMerklePathMismatch{})

	// Two failures differing only in their debug details commit to the
	// same leaf.
	a, b := p.OutcomeProof, p.OutcomeProof
	b.Outcome.Status.Failure = []byte(`{"ActionError":{"index":1}}`)
	assert.Equal(t, a.LeafHash(), b.LeafHash())
}

func TestVerifyLcProof(t *testing.T) {
	cp, proofs := inclusionFixture(t)

	require.NoError(t, light.VerifyLcProof(types.NewLcProof(cp.BlockMerkleRoot(), proofs[2])))

	err := light.VerifyLcProof(types.NewLcProof(crypto.Sum([]byte("other root")), proofs[2]))
	var mismatch light.ErrMerklePathMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, light.StepBlock, mismatch.Step)
	assert.Equal(t, cp.BlockMerkleRoot(), mismatch.Got)

	err = light.VerifyLcProof(types.LcProof{HeadBlockRoot: cp.BlockMerkleRoot()})
	var malformed types.ErrMalformedInput
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "proof", malformed.Field)
}

func flip(d merkle.Direction) merkle.Direction {
	if d == merkle.Left {
		return merkle.Right
	}
	return merkle.Left
}
