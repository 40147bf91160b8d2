package light_test

import (
	"context"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearlight/nearlight/light"
	"github.com/nearlight/nearlight/types"
)

func TestVerifyExecutionProofs(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	cp, proofs := inclusionFixture(t)
	proofs[1].OutcomeRootProof[0].Hash[0] ^= 1
	proofs = append(proofs, nil)

	for _, parallel := range []int{0, 1, 2, 16} {
		results, err := light.VerifyExecutionProofs(context.Background(), cp.BlockMerkleRoot(), proofs, parallel)
		require.NoError(t, err)
		require.Len(t, results, len(proofs))

		assert.NoError(t, results[0])
		assert.ErrorAs(t, results[1], &light.ErrMerklePathMismatch{})
		assert.NoError(t, results[2])
		assert.ErrorAs(t, results[3], &types.ErrMalformedInput{})
	}

	results, err := light.VerifyExecutionProofs(context.Background(), cp.BlockMerkleRoot(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVerifyExecutionProofs_Canceled(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	cp, proofs := inclusionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	many := make([]*types.ExecutionProof, 0, 300)
	for len(many) < cap(many) {
		many = append(many, proofs...)
	}
	_, err := light.VerifyExecutionProofs(ctx, cp.BlockMerkleRoot(), many, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_VerifyInclusionBatch(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	cp, proofs := inclusionFixture(t)
	c, err := light.NewClient(cp, newStore(),
		light.MaxParallelProofs(2),
		light.WithMetrics(light.PrometheusMetrics("client_batch")))
	require.NoError(t, err)

	proofs[2].OutcomeProof.Outcome.Logs = nil
	results, err := c.VerifyInclusionBatch(context.Background(), proofs)
	require.NoError(t, err)
	assert.NoError(t, results[0])
	assert.NoError(t, results[1])
	assert.ErrorIs(t, results[2], light.ErrInvalidProof)

	assert.EqualValues(t, 2, metricValue(t, "client_batch_light_verified_proofs"))
	assert.EqualValues(t, 1, metricValue(t, "client_batch_light_rejected_proofs", "outcome_path_mismatch"))
}
