package light

import (
	"errors"
	"fmt"

	"github.com/nearlight/nearlight/crypto"
)

var (
	// ErrInvalidEvidence is matched by every error that rejects next-block
	// evidence. Use errors.Is to test for it.
	ErrInvalidEvidence = errors.New("invalid next block evidence")

	// ErrInvalidProof is matched by every error that rejects an inclusion
	// proof.
	ErrInvalidProof = errors.New("invalid inclusion proof")
)

// ErrNonMonotonicHeight means the evidence header is not above the trusted
// one.
type ErrNonMonotonicHeight struct {
	Trusted uint64
	Got     uint64
}

func (e ErrNonMonotonicHeight) Error() string {
	return fmt.Sprintf("expected new header height %d to be greater than trusted height %d", e.Got, e.Trusted)
}

func (e ErrNonMonotonicHeight) Is(target error) bool { return target == ErrInvalidEvidence }

// ErrDiscontinuousChain means the evidence header does not build on the
// trusted header.
type ErrDiscontinuousChain struct {
	Trusted crypto.Hash
	Prev    crypto.Hash
}

func (e ErrDiscontinuousChain) Error() string {
	return fmt.Sprintf("header builds on %v, trusted header is %v", e.Prev, e.Trusted)
}

func (e ErrDiscontinuousChain) Is(target error) bool { return target == ErrInvalidEvidence }

// ErrUnknownEpoch means the evidence belongs to an epoch whose producers the
// checkpoint does not know.
type ErrUnknownEpoch struct {
	EpochID crypto.Hash
	Reason  string
}

func (e ErrUnknownEpoch) Error() string {
	return fmt.Sprintf("no known block producers for epoch %v: %s", e.EpochID, e.Reason)
}

func (e ErrUnknownEpoch) Is(target error) bool { return target == ErrInvalidEvidence }

// ErrInvalidSignature means a present approval does not verify under the
// public key of the producer in its slot.
type ErrInvalidSignature struct {
	Index   int
	Account string
}

func (e ErrInvalidSignature) Error() string {
	return fmt.Sprintf("invalid approval #%d from %s", e.Index, e.Account)
}

func (e ErrInvalidSignature) Is(target error) bool { return target == ErrInvalidEvidence }

// ErrInsufficientStake means the approving producers hold 2/3 or less of
// the total stake.
type ErrInsufficientStake struct {
	StakeInfo
}

func (e ErrInsufficientStake) Error() string {
	return fmt.Sprintf("insufficient approved stake: got %v, needed more than 2/3 of %v",
		e.Approved.Dec(), e.Total.Dec())
}

func (e ErrInsufficientStake) Is(target error) bool { return target == ErrInvalidEvidence }

// ErrValidatorSetMismatch means the producer set carried by the evidence
// does not match the hash its header commits to, or is missing where one is
// required.
type ErrValidatorSetMismatch struct {
	Expected crypto.Hash
	Got      crypto.Hash
	Reason   string
}

func (e ErrValidatorSetMismatch) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("next block producers %s (header commits to %v)", e.Reason, e.Expected)
	}
	return fmt.Sprintf("next block producers hash %v does not match header's %v", e.Got, e.Expected)
}

func (e ErrValidatorSetMismatch) Is(target error) bool { return target == ErrInvalidEvidence }

// ErrMerklePathMismatch means a Merkle path of an inclusion proof does not
// lead to the expected root. Step is either "outcome" or "block".
type ErrMerklePathMismatch struct {
	Step     string
	Expected crypto.Hash
	Got      crypto.Hash
}

// Steps of an inclusion proof.
const (
	StepOutcome = "outcome"
	StepBlock   = "block"
)

func (e ErrMerklePathMismatch) Error() string {
	return fmt.Sprintf("%s proof leads to %v, expected %v", e.Step, e.Got, e.Expected)
}

func (e ErrMerklePathMismatch) Is(target error) bool { return target == ErrInvalidProof }

// errorReason returns the metrics label of a verification error.
func errorReason(err error) string {
	var (
		height ErrNonMonotonicHeight
		chain  ErrDiscontinuousChain
		epoch  ErrUnknownEpoch
		sig    ErrInvalidSignature
		stake  ErrInsufficientStake
		bps    ErrValidatorSetMismatch
		path   ErrMerklePathMismatch
	)
	switch {
	case errors.As(err, &height):
		return "non_monotonic_height"
	case errors.As(err, &chain):
		return "discontinuous_chain"
	case errors.As(err, &epoch):
		return "unknown_epoch"
	case errors.As(err, &sig):
		return "invalid_signature"
	case errors.As(err, &stake):
		return "insufficient_stake"
	case errors.As(err, &bps):
		return "validator_set_mismatch"
	case errors.As(err, &path):
		return path.Step + "_path_mismatch"
	default:
		return "malformed_input"
	}
}
