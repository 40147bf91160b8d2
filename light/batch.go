package light

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/types"
)

// VerifyExecutionProofs checks every proof against blockMerkleRoot, running
// at most parallel checks at once. The i-th returned error is the result for
// proofs[i]. The second return value is non-nil only if ctx was canceled
// before all proofs were checked.
func VerifyExecutionProofs(
	ctx context.Context,
	blockMerkleRoot crypto.Hash,
	proofs []*types.ExecutionProof,
	parallel int,
) ([]error, error) {
	return verifyProofs(ctx, proofs, parallel, func(p *types.ExecutionProof) error {
		return VerifyExecutionProof(blockMerkleRoot, p)
	})
}

func verifyProofs(
	ctx context.Context,
	proofs []*types.ExecutionProof,
	parallel int,
	verify func(*types.ExecutionProof) error,
) ([]error, error) {
	if parallel < 1 {
		parallel = 1
	}

	var (
		results = make([]error, len(proofs))
		indices = make(chan int)
	)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(indices)
		for i := range proofs {
			select {
			case indices <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < parallel && w < len(proofs); w++ {
		g.Go(func() error {
			for i := range indices {
				results[i] = verify(proofs[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// VerifyInclusionBatch checks many proofs against the latest trusted
// checkpoint in parallel, the way Checkpoint.VerifyInclusion checks one.
// See VerifyExecutionProofs.
func (c *Client) VerifyInclusionBatch(ctx context.Context, proofs []*types.ExecutionProof) ([]error, error) {
	cp := c.TrustedCheckpoint()

	results, err := verifyProofs(ctx, proofs, c.maxParallelProofs, cp.verifyExecutionProof)
	if err != nil {
		return nil, err
	}

	var failed int
	for _, err := range results {
		c.recordProof(err)
		if err != nil {
			failed++
		}
	}
	c.logger.Info("Verified inclusion proofs", "total", len(proofs), "failed", failed)
	return results, nil
}
