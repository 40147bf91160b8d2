package light

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nearlight/nearlight/libs/log"
	"github.com/nearlight/nearlight/types"
)

const (
	defaultPruningSize       = 1000
	defaultMaxParallelProofs = 8
)

// ErrNoTrustedCheckpoint is returned when a client is restored from a store
// that holds no checkpoint.
var ErrNoTrustedCheckpoint = errors.New("no trusted checkpoint in store")

// TrustedStore persists the checkpoints a client trusts.
type TrustedStore interface {
	// SaveCheckpoint stores cp. It fails unless cp is above every stored
	// checkpoint.
	SaveCheckpoint(cp Checkpoint) error
	// LastCheckpoint returns the highest stored checkpoint, or nil if there
	// is none.
	LastCheckpoint() (*Checkpoint, error)
	// Prune removes all but the size highest checkpoints.
	Prune(size uint16) error
}

// Option sets a parameter for the light client.
type Option func(*Client)

// Logger option can be used to set a logger for the client.
func Logger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics the client reports to. Default: NopMetrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// PruningSize option sets the maximum amount of checkpoints that the light
// client stores. Default: 1000. A pruning size of 0 will not prune the light
// client at all.
func PruningSize(h uint16) Option {
	return func(c *Client) {
		c.pruningSize = h
	}
}

// MaxParallelProofs sets how many inclusion proofs VerifyInclusionBatch
// checks at once. Default: 8.
func MaxParallelProofs(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxParallelProofs = n
		}
	}
}

// Client holds the trusted checkpoint of a light client. It advances the
// checkpoint one piece of evidence at a time, persists every accepted
// checkpoint in a trusted store, and checks inclusion proofs against the
// latest one.
//
// Client is safe for concurrent use. Updates are serialized.
type Client struct {
	mtx sync.RWMutex
	// Latest trusted checkpoint. Also the highest one in trustedStore.
	latest Checkpoint

	trustedStore      TrustedStore
	pruningSize       uint16
	maxParallelProofs int

	logger  log.Logger
	metrics *Metrics
}

// NewClient returns a light client trusting the given checkpoint. If the
// store already holds a checkpoint at or above it, the stored one is
// resumed instead; a stored checkpoint at the same height with a different
// header is an error.
func NewClient(trusted Checkpoint, trustedStore TrustedStore, options ...Option) (*Client, error) {
	if err := trusted.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid trusted checkpoint: %w", err)
	}

	c := newClient(trustedStore, options...)

	stored, err := trustedStore.LastCheckpoint()
	if err != nil {
		return nil, fmt.Errorf("can't get last trusted checkpoint: %w", err)
	}

	switch {
	case stored == nil || stored.Height() < trusted.Height():
		c.logger.Info("Initializing with trusted checkpoint", "height", trusted.Height(), "hash", trusted.Hash())
		if err := c.updateTrustedCheckpoint(trusted); err != nil {
			return nil, err
		}
	case stored.Height() == trusted.Height() && stored.Hash() != trusted.Hash():
		return nil, fmt.Errorf("stored checkpoint %v conflicts with trusted checkpoint %v at height %d",
			stored.Hash(), trusted.Hash(), trusted.Height())
	default:
		c.logger.Info("Resuming from stored checkpoint", "height", stored.Height(), "hash", stored.Hash())
		c.setLatest(*stored)
	}

	return c, nil
}

// NewClientFromTrustedStore initializes existing client from the trusted store.
//
// See NewClient
func NewClientFromTrustedStore(trustedStore TrustedStore, options ...Option) (*Client, error) {
	c := newClient(trustedStore, options...)

	stored, err := trustedStore.LastCheckpoint()
	if err != nil {
		return nil, fmt.Errorf("can't get last trusted checkpoint: %w", err)
	}
	if stored == nil {
		return nil, ErrNoTrustedCheckpoint
	}
	if err := stored.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid stored checkpoint: %w", err)
	}

	c.setLatest(*stored)
	c.logger.Info("Restored trusted checkpoint", "height", stored.Height())
	return c, nil
}

func newClient(trustedStore TrustedStore, options ...Option) *Client {
	c := &Client{
		trustedStore:      trustedStore,
		pruningSize:       defaultPruningSize,
		maxParallelProofs: defaultMaxParallelProofs,
		logger:            log.NewNopLogger(),
		metrics:           NopMetrics(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// TrustedCheckpoint returns the latest trusted checkpoint.
func (c *Client) TrustedCheckpoint() Checkpoint {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.latest
}

// Update verifies ev against the latest trusted checkpoint and, if it is
// valid, persists and returns the next checkpoint.
func (c *Client) Update(ctx context.Context, ev *types.LightClientBlockView) (Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return Checkpoint{}, err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	trusted := c.latest
	stake, err := VerifyNextBlock(trusted, ev)
	if err != nil {
		c.metrics.RejectedBlocks.With("reason", errorReason(err)).Add(1)
		keyVals := []interface{}{"trusted", trusted.Height(), "err", err}
		if ev != nil {
			keyVals = append(keyVals, "height", ev.InnerLite.Height)
		}
		c.logger.Error("Rejected next block evidence", keyVals...)
		return Checkpoint{}, err
	}

	next := trusted.next(ev)
	if err := c.saveCheckpoint(next); err != nil {
		return Checkpoint{}, err
	}
	c.latest = next

	c.metrics.AcceptedBlocks.Add(1)
	c.metrics.TrustedHeight.Set(float64(next.Height()))
	c.metrics.ApprovedStakeRatio.Set(stake.Ratio())
	if next.EpochID() != trusted.EpochID() {
		c.metrics.EpochChanges.Add(1)
		c.logger.Info("Entered new epoch", "epoch", next.EpochID(), "producers", len(next.CurrentBPs))
	}
	c.logger.Info("Advanced trusted checkpoint",
		"height", next.Height(), "hash", next.Hash(), "stake", stake.String())

	return next, nil
}

// VerifyInclusion checks p against the latest trusted checkpoint.
func (c *Client) VerifyInclusion(p *types.ExecutionProof) (*types.ExecutionOutcomeWithIDView, error) {
	outcome, err := c.TrustedCheckpoint().VerifyInclusion(p)
	c.recordProof(err)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Verified inclusion proof", "outcome", outcome.ID, "block", p.BlockHeaderLite.Height())
	return outcome, nil
}

func (c *Client) recordProof(err error) {
	if err != nil {
		c.metrics.RejectedProofs.With("reason", errorReason(err)).Add(1)
		return
	}
	c.metrics.VerifiedProofs.Add(1)
}

// Cleanup removes all the stored checkpoints but the latest.
func (c *Client) Cleanup() error {
	c.logger.Info("Removing all but the latest checkpoint")
	return c.trustedStore.Prune(1)
}

func (c *Client) saveCheckpoint(cp Checkpoint) error {
	c.logger.Debug("updating trusted checkpoint", "checkpoint", cp.String())

	if err := c.trustedStore.SaveCheckpoint(cp); err != nil {
		return fmt.Errorf("failed to save trusted checkpoint: %w", err)
	}

	if c.pruningSize > 0 {
		if err := c.trustedStore.Prune(c.pruningSize); err != nil {
			return fmt.Errorf("prune: %w", err)
		}
	}
	return nil
}

func (c *Client) updateTrustedCheckpoint(cp Checkpoint) error {
	if err := c.saveCheckpoint(cp); err != nil {
		return err
	}
	c.setLatest(cp)
	return nil
}

func (c *Client) setLatest(cp Checkpoint) {
	c.mtx.Lock()
	c.latest = cp
	c.mtx.Unlock()
	c.metrics.TrustedHeight.Set(float64(cp.Height()))
}
