package factory

import (
	"fmt"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/ed25519"
	"github.com/nearlight/nearlight/crypto/merkle"
	"github.com/nearlight/nearlight/types"
)

// genesisTime is 2021-01-01T00:00:00Z in nanoseconds.
const genesisTime uint64 = 1609459200 * 1e9

// Chain produces a sequence of headers and signed evidence the way block
// producers would. It tracks the hash of every header it made, so it can
// also produce block proofs against any prefix of the chain.
type Chain struct {
	epoch     int
	producers types.BlockProducers
	keys      []ed25519.PrivKey
	nextBPs   types.BlockProducers
	nextKeys  []ed25519.PrivKey

	head   types.LightClientBlockLiteView
	hashes []crypto.Hash
}

// EpochID returns the deterministic id of the n-th epoch.
func EpochID(n int) crypto.Hash {
	return crypto.Sum([]byte(fmt.Sprintf("epoch-%d", n)))
}

// NewChain returns a chain whose head, at the given height, is in epoch 0
// with the given producers and commits to next as epoch 1's producers.
func NewChain(
	height uint64,
	producers types.BlockProducers, keys []ed25519.PrivKey,
	next types.BlockProducers, nextKeys []ed25519.PrivKey,
) *Chain {
	c := &Chain{
		producers: producers,
		keys:      keys,
		nextBPs:   next,
		nextKeys:  nextKeys,
	}
	c.head = types.LightClientBlockLiteView{
		PrevBlockHash: crypto.Sum([]byte("before genesis")),
		InnerRestHash: crypto.Sum([]byte(fmt.Sprintf("inner rest %d", height))),
		InnerLite: types.BlockHeaderInnerLiteView{
			Height:           height,
			EpochID:          EpochID(0),
			NextEpochID:      EpochID(1),
			PrevStateRoot:    crypto.Sum([]byte("state")),
			Timestamp:        genesisTime,
			TimestampNanosec: types.U64(genesisTime),
			NextBPHash:       next.Hash(),
		},
	}
	c.hashes = []crypto.Hash{c.head.Hash()}
	return c
}

// Head returns the latest header.
func (c *Chain) Head() types.LightClientBlockLiteView {
	return c.head
}

// Producers returns the current epoch's producers and their keys.
func (c *Chain) Producers() (types.BlockProducers, []ed25519.PrivKey) {
	return c.producers, c.keys
}

// NextProducers returns the next epoch's producers and their keys.
func (c *Chain) NextProducers() (types.BlockProducers, []ed25519.PrivKey) {
	return c.nextBPs, c.nextKeys
}

// HeaderOption modifies a header before it is hashed and signed.
type HeaderOption func(*types.BlockHeaderInnerLiteView)

// WithOutcomeRoot sets the outcome root committed by the header.
func WithOutcomeRoot(root crypto.Hash) HeaderOption {
	return func(h *types.BlockHeaderInnerLiteView) {
		h.OutcomeRoot = root
	}
}

// Next produces evidence for the next height in the current epoch, approved
// by every current producer.
func (c *Chain) Next(opts ...HeaderOption) *types.LightClientBlockView {
	ev := c.makeEvidence(c.head.InnerLite.EpochID, c.head.InnerLite.NextEpochID, c.nextBPs.Hash(), opts)
	Approve(ev, c.keys...)
	c.push(ev)
	return ev
}

// NextEpoch produces evidence for the first block of the next epoch. The new
// block is approved by the producers of the epoch it enters, carries
// upcoming as the producer set of the epoch after, and commits to it.
func (c *Chain) NextEpoch(
	upcoming types.BlockProducers, upcomingKeys []ed25519.PrivKey,
	opts ...HeaderOption,
) *types.LightClientBlockView {
	c.epoch++
	ev := c.makeEvidence(EpochID(c.epoch), EpochID(c.epoch+1), upcoming.Hash(), opts)
	ev.NextBPs = upcoming.Views()

	c.producers, c.keys = c.nextBPs, c.nextKeys
	c.nextBPs, c.nextKeys = upcoming, upcomingKeys

	Approve(ev, c.keys...)
	c.push(ev)
	return ev
}

func (c *Chain) makeEvidence(
	epoch, nextEpoch, nextBPHash crypto.Hash,
	opts []HeaderOption,
) *types.LightClientBlockView {
	height := c.head.InnerLite.Height + 1
	ts := uint64(c.head.InnerLite.TimestampNanosec) + 1e9
	inner := types.BlockHeaderInnerLiteView{
		Height:           height,
		EpochID:          epoch,
		NextEpochID:      nextEpoch,
		PrevStateRoot:    crypto.Sum([]byte(fmt.Sprintf("state %d", height))),
		Timestamp:        ts,
		TimestampNanosec: types.U64(ts),
		NextBPHash:       nextBPHash,
		BlockMerkleRoot:  merkle.HashFromHashes(c.hashes),
	}
	for _, opt := range opts {
		opt(&inner)
	}
	return &types.LightClientBlockView{
		PrevBlockHash:      c.head.Hash(),
		NextBlockInnerHash: crypto.Sum([]byte(fmt.Sprintf("next inner %d", height))),
		InnerLite:          inner,
		InnerRestHash:      crypto.Sum([]byte(fmt.Sprintf("inner rest %d", height))),
	}
}

func (c *Chain) push(ev *types.LightClientBlockView) {
	c.head = ev.LiteView()
	c.hashes = append(c.hashes, c.head.Hash())
}

// Len returns the number of headers made so far, including the first.
func (c *Chain) Len() int {
	return len(c.hashes)
}

// BlockProof returns the root of the tree over the first size headers made
// by the chain and the path of the i-th header in it.
func (c *Chain) BlockProof(i, size int) (crypto.Hash, merkle.Path) {
	root, paths := merkle.ProofsFromHashes(c.hashes[:size])
	return root, paths[i]
}

// Approve fills the approval slots of ev. keys are aligned with the producer
// set; a nil key leaves its slot empty.
func Approve(ev *types.LightClientBlockView, keys ...ed25519.PrivKey) {
	msg := ev.ApprovalMessage(ev.CurrentBlockHash())
	ev.ApprovalsAfterNext = make([]*ed25519.Signature, len(keys))
	for i, key := range keys {
		if key == nil {
			continue
		}
		sig, err := key.Sign(msg)
		if err != nil {
			panic(err)
		}
		ev.ApprovalsAfterNext[i] = &sig
	}
}
