package light

import (
	"errors"
	"fmt"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/merkle"
	"github.com/nearlight/nearlight/libs/borsh"
	"github.com/nearlight/nearlight/types"
)

// Checkpoint is the whole of the light client's trusted state: the latest
// trusted header, the block producers of its epoch and, once known, of the
// next epoch, and a Merkle accumulator over every header trusted since the
// client was bootstrapped.
//
// Checkpoint is a value. Advance returns a new checkpoint and never
// modifies its receiver, so a caller can keep the old one until the new one
// has been persisted.
type Checkpoint struct {
	Header     types.LightClientBlockLiteView `json:"header"`
	CurrentBPs types.BlockProducers           `json:"current_bps"`
	// NextBPs is nil until a header committing to the next epoch's
	// producers has been verified together with them.
	NextBPs     types.BlockProducers `json:"next_bps"`
	Accumulator merkle.PartialTree   `json:"accumulator"`
}

// NewCheckpoint returns a checkpoint trusting header. It is the subjective
// starting point of the client: nothing about header or current is
// verified, except that next, if given, must be the set header commits to.
func NewCheckpoint(header types.LightClientBlockLiteView, current, next types.BlockProducers) (Checkpoint, error) {
	if next != nil && next.Hash() != header.InnerLite.NextBPHash {
		return Checkpoint{}, ErrValidatorSetMismatch{
			Expected: header.InnerLite.NextBPHash,
			Got:      next.Hash(),
		}
	}
	return Checkpoint{
		Header:      header,
		CurrentBPs:  current,
		NextBPs:     next,
		Accumulator: merkle.PartialTree{}.Append(header.Hash()),
	}, nil
}

// Height returns the trusted height.
func (cp Checkpoint) Height() uint64 {
	return cp.Header.Height()
}

// Hash returns the hash of the trusted header.
func (cp Checkpoint) Hash() crypto.Hash {
	return cp.Header.Hash()
}

// EpochID returns the epoch of the trusted header.
func (cp Checkpoint) EpochID() crypto.Hash {
	return cp.Header.InnerLite.EpochID
}

// BlockMerkleRoot returns the root of the accumulator over all headers
// trusted since the client was bootstrapped, the trusted header included.
func (cp Checkpoint) BlockMerkleRoot() crypto.Hash {
	return cp.Accumulator.Root()
}

// HeadBlockRoot returns the block Merkle root committed to by the trusted
// header. It covers every block of the chain before the trusted one and is
// the root light_client_proof responses are built against.
func (cp Checkpoint) HeadBlockRoot() crypto.Hash {
	return cp.Header.InnerLite.BlockMerkleRoot
}

// ValidateBasic checks the internal consistency of a checkpoint restored
// from storage.
func (cp Checkpoint) ValidateBasic() error {
	if len(cp.CurrentBPs) == 0 {
		return errors.New("no current block producers")
	}
	if cp.NextBPs != nil && cp.NextBPs.Hash() != cp.Header.InnerLite.NextBPHash {
		return ErrValidatorSetMismatch{Expected: cp.Header.InnerLite.NextBPHash, Got: cp.NextBPs.Hash()}
	}
	if cp.Accumulator.Size() == 0 {
		return errors.New("empty block accumulator")
	}
	return nil
}

// Advance verifies ev against the checkpoint and returns the checkpoint
// trusting ev's header. On error the receiver remains the trusted state.
func (cp Checkpoint) Advance(ev *types.LightClientBlockView) (Checkpoint, error) {
	if _, err := VerifyNextBlock(cp, ev); err != nil {
		return Checkpoint{}, err
	}
	return cp.next(ev), nil
}

// next builds the checkpoint following cp once ev has been verified.
func (cp Checkpoint) next(ev *types.LightClientBlockView) Checkpoint {
	header := ev.LiteView()
	out := Checkpoint{
		Header:      header,
		CurrentBPs:  cp.CurrentBPs,
		NextBPs:     cp.NextBPs,
		Accumulator: cp.Accumulator.Append(header.Hash()),
	}

	var next types.BlockProducers
	if ev.HasNextBPs() {
		// Verified by VerifyNextBlock, so conversion cannot fail.
		next, _ = types.ValidatorStakeViews(ev.NextBPs).BlockProducers()
	}

	if header.InnerLite.EpochID != cp.EpochID() {
		out.CurrentBPs = cp.NextBPs
		out.NextBPs = next
	} else if next != nil {
		out.NextBPs = next
	}
	return out
}

// VerifyInclusion checks p and returns the proven outcome. The block proof
// must lead either to HeadBlockRoot or to BlockMerkleRoot. When it leads to
// neither, the error reports the mismatch against HeadBlockRoot.
func (cp Checkpoint) VerifyInclusion(p *types.ExecutionProof) (*types.ExecutionOutcomeWithIDView, error) {
	if err := cp.verifyExecutionProof(p); err != nil {
		return nil, err
	}
	outcome := p.OutcomeProof
	return &outcome, nil
}

func (cp Checkpoint) verifyExecutionProof(p *types.ExecutionProof) error {
	err := VerifyExecutionProof(cp.HeadBlockRoot(), p)
	var mismatch ErrMerklePathMismatch
	if errors.As(err, &mismatch) && mismatch.Step == StepBlock {
		if VerifyExecutionProof(cp.BlockMerkleRoot(), p) == nil {
			return nil
		}
	}
	return err
}

func (cp Checkpoint) String() string {
	return fmt.Sprintf("Checkpoint{%v bps:%d next:%v blocks:%d}",
		cp.Header, len(cp.CurrentBPs), cp.NextBPs != nil, cp.Accumulator.Size())
}

func (cp Checkpoint) MarshalBorsh(e *borsh.Encoder) {
	cp.Header.MarshalBorsh(e)
	cp.CurrentBPs.MarshalBorsh(e)
	e.WriteOption(cp.NextBPs != nil)
	if cp.NextBPs != nil {
		cp.NextBPs.MarshalBorsh(e)
	}
	cp.Accumulator.MarshalBorsh(e)
}

func (cp *Checkpoint) UnmarshalBorsh(d *borsh.Decoder) error {
	var out Checkpoint
	if err := out.Header.UnmarshalBorsh(d); err != nil {
		return err
	}
	if err := out.CurrentBPs.UnmarshalBorsh(d); err != nil {
		return err
	}
	some, err := d.ReadOption()
	if err != nil {
		return err
	}
	if some {
		if err := out.NextBPs.UnmarshalBorsh(d); err != nil {
			return err
		}
	}
	if err := out.Accumulator.UnmarshalBorsh(d); err != nil {
		return err
	}
	*cp = out
	return nil
}
