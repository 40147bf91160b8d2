package light

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/ed25519"
	"github.com/nearlight/nearlight/types"
)

// batchVerifyThreshold is the number of approvals from which signatures are
// checked with a single batch verification.
const batchVerifyThreshold = 2

// StakeInfo is the result of tallying approvals: the stake of every producer
// of the epoch, and the stake of those whose approval verified.
type StakeInfo struct {
	Total    uint256.Int
	Approved uint256.Int
}

// Ratio returns Approved/Total, for display and metrics only.
func (s StakeInfo) Ratio() float64 {
	if s.Total.IsZero() {
		return 0
	}
	return s.Approved.Float64() / s.Total.Float64()
}

// exceedsTwoThirds reports approved*3 > total*2. Both sides fit in 256 bits
// for any set of 128-bit stakes.
func (s StakeInfo) exceedsTwoThirds() bool {
	var lhs, rhs uint256.Int
	lhs.Mul(&s.Approved, uint256.NewInt(3))
	rhs.Mul(&s.Total, uint256.NewInt(2))
	return lhs.Gt(&rhs)
}

func (s StakeInfo) String() string {
	return fmt.Sprintf("%s/%s", s.Approved.Dec(), s.Total.Dec())
}

// VerifyNextBlock verifies next-block evidence against the checkpoint. It
// ensures that:
//
//	a) the evidence header is above the trusted one (ErrNonMonotonicHeight)
//	b) the evidence header builds on the trusted one (ErrDiscontinuousChain)
//	c) its epoch is the trusted epoch or the next one, and the producers of
//	   that epoch are known (ErrUnknownEpoch)
//	d) every present approval verifies (ErrInvalidSignature)
//	e) more than 2/3 of the epoch's stake approved (ErrInsufficientStake)
//	f) a carried producer set matches the hash the header commits to, and
//	   one is carried when the evidence enters a new epoch
//	   (ErrValidatorSetMismatch)
//
// Structural problems are reported as types.ErrMalformedInput. The returned
// StakeInfo is valid whenever the approvals were tallied.
func VerifyNextBlock(cp Checkpoint, ev *types.LightClientBlockView) (StakeInfo, error) {
	if ev == nil {
		return StakeInfo{}, types.ErrMalformedInput{Field: "evidence", Reason: errors.New("missing")}
	}
	if err := ev.ValidateBasic(); err != nil {
		return StakeInfo{}, err
	}

	trusted := cp.Header
	if ev.InnerLite.Height <= trusted.Height() {
		return StakeInfo{}, ErrNonMonotonicHeight{Trusted: trusted.Height(), Got: ev.InnerLite.Height}
	}

	trustedHash := trusted.Hash()
	if ev.PrevBlockHash != trustedHash {
		return StakeInfo{}, ErrDiscontinuousChain{Trusted: trustedHash, Prev: ev.PrevBlockHash}
	}

	producers, err := producersFor(cp, ev.InnerLite.EpochID)
	if err != nil {
		return StakeInfo{}, err
	}

	if len(ev.ApprovalsAfterNext) > len(producers) {
		return StakeInfo{}, types.ErrMalformedInput{
			Field: "approvals_after_next",
			Reason: fmt.Errorf("%d approvals for %d block producers",
				len(ev.ApprovalsAfterNext), len(producers)),
		}
	}

	currentHash := ev.CurrentBlockHash()
	stake, err := tallyApprovals(producers, ev.ApprovalsAfterNext, ev.ApprovalMessage(currentHash))
	if err != nil {
		return stake, err
	}
	if !stake.exceedsTwoThirds() {
		return stake, ErrInsufficientStake{stake}
	}

	if ev.HasNextBPs() {
		got := types.ValidatorStakeViews(ev.NextBPs).Hash()
		if got != ev.InnerLite.NextBPHash {
			return stake, ErrValidatorSetMismatch{Expected: ev.InnerLite.NextBPHash, Got: got}
		}
	} else if ev.InnerLite.EpochID != trusted.InnerLite.EpochID {
		return stake, ErrValidatorSetMismatch{Expected: ev.InnerLite.NextBPHash, Reason: "missing on epoch change"}
	}

	return stake, nil
}

// producersFor returns the producers that approve blocks of the given epoch,
// as far as the checkpoint knows them.
func producersFor(cp Checkpoint, epochID crypto.Hash) (types.BlockProducers, error) {
	switch epochID {
	case cp.Header.InnerLite.EpochID:
		return cp.CurrentBPs, nil
	case cp.Header.InnerLite.NextEpochID:
		if cp.NextBPs == nil {
			return nil, ErrUnknownEpoch{EpochID: epochID, Reason: "next epoch producers not yet known"}
		}
		return cp.NextBPs, nil
	default:
		return nil, ErrUnknownEpoch{EpochID: epochID, Reason: "neither the trusted nor the next epoch"}
	}
}

// tallyApprovals sums the stake of all producers and of those whose approval
// of msg verifies. Slots beyond the end of approvals are absent.
func tallyApprovals(producers types.BlockProducers, approvals []*ed25519.Signature, msg []byte) (StakeInfo, error) {
	var (
		stake   StakeInfo
		present = 0
	)
	for i, p := range producers {
		stake.Total.Add(&stake.Total, p.Stake.Int())
		if i < len(approvals) && approvals[i] != nil {
			present++
		}
	}

	if present >= batchVerifyThreshold {
		if err := verifyApprovalsBatch(producers, approvals, msg); err != nil {
			return stake, err
		}
	} else if err := verifyApprovalsSingle(producers, approvals, msg); err != nil {
		return stake, err
	}

	for i, sig := range approvals {
		if sig != nil {
			stake.Approved.Add(&stake.Approved, producers[i].Stake.Int())
		}
	}
	return stake, nil
}

func verifyApprovalsSingle(producers types.BlockProducers, approvals []*ed25519.Signature, msg []byte) error {
	for i, sig := range approvals {
		if sig == nil {
			continue
		}
		if !producers[i].PublicKey.VerifySignature(msg, sig[:]) {
			return ErrInvalidSignature{Index: i, Account: producers[i].AccountID}
		}
	}
	return nil
}

// verifyApprovalsBatch checks all present approvals at once. If the batch
// fails, the first invalid approval is reported.
func verifyApprovalsBatch(producers types.BlockProducers, approvals []*ed25519.Signature, msg []byte) error {
	var (
		bv      = ed25519.NewBatchVerifier()
		indices = make([]int, 0, len(approvals))
	)
	for i, sig := range approvals {
		if sig == nil {
			continue
		}
		if err := bv.Add(producers[i].PublicKey, msg, sig[:]); err != nil {
			return ErrInvalidSignature{Index: i, Account: producers[i].AccountID}
		}
		indices = append(indices, i)
	}

	ok, valid := bv.Verify()
	if ok {
		return nil
	}
	for j, i := range indices {
		if !valid[j] {
			return ErrInvalidSignature{Index: i, Account: producers[i].AccountID}
		}
	}
	// The batch failed as a whole but every entry verified on its own. Fall
	// back to checking them one by one.
	return verifyApprovalsSingle(producers, approvals, msg)
}
