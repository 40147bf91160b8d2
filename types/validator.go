package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/holiman/uint256"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/ed25519"
	"github.com/nearlight/nearlight/libs/borsh"
)

// validatorStakeV1 is the borsh discriminant and the JSON version tag of the
// only validator stake layout this build knows.
const (
	validatorStakeV1    uint8 = 0
	validatorStakeV1Tag       = "V1"
)

// ValidatorStake is a block producer and its stake.
type ValidatorStake struct {
	// Account that stakes money.
	AccountID string
	// Public key of the proposed validator.
	PublicKey ed25519.PubKey
	// Stake / weight of the validator.
	Stake Balance
}

// NewValidatorStake returns a ValidatorStake.
func NewValidatorStake(accountID string, pubKey ed25519.PubKey, stake Balance) ValidatorStake {
	return ValidatorStake{AccountID: accountID, PublicKey: pubKey, Stake: stake}
}

// View returns the current versioned rendering of v.
func (v ValidatorStake) View() ValidatorStakeView {
	return NewValidatorStakeView(v.AccountID, v.PublicKey, v.Stake)
}

// MarshalBorsh encodes v the way the chain encodes its versioned
// ValidatorStake: version tag, then the V1 fields.
func (v ValidatorStake) MarshalBorsh(e *borsh.Encoder) {
	v.View().MarshalBorsh(e)
}

func (v *ValidatorStake) UnmarshalBorsh(d *borsh.Decoder) error {
	var view ValidatorStakeView
	if err := view.UnmarshalBorsh(d); err != nil {
		return err
	}
	stake, err := view.ValidatorStake()
	if err != nil {
		return err
	}
	*v = stake
	return nil
}

func (v ValidatorStake) String() string {
	return fmt.Sprintf("Validator{%s %v stake:%v}", v.AccountID, v.PublicKey, v.Stake)
}

//-----------------------------------------------------------------------------

// ValidatorStakeViewV1 holds the fields of version 1 of the validator stake
// record.
type ValidatorStakeViewV1 struct {
	AccountID string         `json:"account_id"`
	PublicKey ed25519.PubKey `json:"public_key"`
	Stake     Balance        `json:"stake"`
}

// ValidatorStakeView is a versioned validator stake record. It is a closed
// union: the only way to obtain one is through a known version, and decoding
// an unknown version fails instead of producing a default value.
type ValidatorStakeView struct {
	v1 *ValidatorStakeViewV1
}

// NewValidatorStakeView returns a V1 record.
func NewValidatorStakeView(accountID string, pubKey ed25519.PubKey, stake Balance) ValidatorStakeView {
	return ValidatorStakeView{v1: &ValidatorStakeViewV1{
		AccountID: accountID,
		PublicKey: pubKey,
		Stake:     stake,
	}}
}

// Version returns the version tag of the record.
func (v ValidatorStakeView) Version() string {
	if v.v1 != nil {
		return validatorStakeV1Tag
	}
	return ""
}

// V1 returns the V1 fields. ok is false for any other version.
func (v ValidatorStakeView) V1() (ValidatorStakeViewV1, bool) {
	if v.v1 == nil {
		return ValidatorStakeViewV1{}, false
	}
	return *v.v1, true
}

// ValidateBasic rejects records of no known version.
func (v ValidatorStakeView) ValidateBasic() error {
	if v.v1 == nil {
		return ErrUnknownVersion{Type: "validator stake", Version: "<none>"}
	}
	if !utf8.ValidString(v.v1.AccountID) {
		return errors.New("account id is not valid UTF-8")
	}
	return nil
}

// ValidatorStake converts the record into its unversioned form.
func (v ValidatorStakeView) ValidatorStake() (ValidatorStake, error) {
	v1, ok := v.V1()
	if !ok {
		return ValidatorStake{}, ErrUnknownVersion{Type: "validator stake", Version: "<none>"}
	}
	return NewValidatorStake(v1.AccountID, v1.PublicKey, v1.Stake), nil
}

func (v ValidatorStakeView) MarshalBorsh(e *borsh.Encoder) {
	v1, ok := v.V1()
	if !ok {
		panic("borsh: cannot encode validator stake of unknown version")
	}
	e.WriteU8(validatorStakeV1)
	e.WriteString(v1.AccountID)
	v1.PublicKey.MarshalBorsh(e)
	v1.Stake.MarshalBorsh(e)
}

func (v *ValidatorStakeView) UnmarshalBorsh(d *borsh.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	if tag != validatorStakeV1 {
		return ErrUnknownVersion{Type: "validator stake", Version: fmt.Sprintf("tag %d", tag)}
	}
	var v1 ValidatorStakeViewV1
	if v1.AccountID, err = d.ReadString(); err != nil {
		return err
	}
	if err := v1.PublicKey.UnmarshalBorsh(d); err != nil {
		return err
	}
	if err := v1.Stake.UnmarshalBorsh(d); err != nil {
		return err
	}
	v.v1 = &v1
	return nil
}

type validatorStakeViewJSON struct {
	Version string `json:"validator_stake_struct_version"`
	ValidatorStakeViewV1
}

func (v ValidatorStakeView) MarshalJSON() ([]byte, error) {
	v1, ok := v.V1()
	if !ok {
		return nil, ErrUnknownVersion{Type: "validator stake", Version: "<none>"}
	}
	return json.Marshal(validatorStakeViewJSON{Version: validatorStakeV1Tag, ValidatorStakeViewV1: v1})
}

func (v *ValidatorStakeView) UnmarshalJSON(bz []byte) error {
	var raw validatorStakeViewJSON
	if err := json.Unmarshal(bz, &raw); err != nil {
		return err
	}
	if raw.Version != validatorStakeV1Tag {
		return ErrUnknownVersion{Type: "validator stake", Version: fmt.Sprintf("%q", raw.Version)}
	}
	v1 := raw.ValidatorStakeViewV1
	v.v1 = &v1
	return nil
}

//-----------------------------------------------------------------------------

// ValidatorStakeViews is a producer set as carried in evidence.
type ValidatorStakeViews []ValidatorStakeView

// Hash returns the hash the chain commits to in next_bp_hash.
func (vs ValidatorStakeViews) Hash() crypto.Hash {
	return crypto.HashCanonical(vs)
}

// BlockProducers converts the views into a BlockProducers set.
func (vs ValidatorStakeViews) BlockProducers() (BlockProducers, error) {
	out := make(BlockProducers, len(vs))
	for i, v := range vs {
		stake, err := v.ValidatorStake()
		if err != nil {
			return nil, ErrMalformedInput{Field: fmt.Sprintf("next_bps[%d]", i), Reason: err}
		}
		out[i] = stake
	}
	return out, nil
}

func (vs ValidatorStakeViews) MarshalBorsh(e *borsh.Encoder) {
	e.WriteLen(len(vs))
	for _, v := range vs {
		v.MarshalBorsh(e)
	}
}

// minValidatorStakeSize is the encoded size of a V1 record with an empty
// account id.
const minValidatorStakeSize = 1 + 4 + 1 + ed25519.PubKeySize + 16

func (vs *ValidatorStakeViews) UnmarshalBorsh(d *borsh.Decoder) error {
	n, err := d.ReadLen(minValidatorStakeSize)
	if err != nil {
		return err
	}
	out := make(ValidatorStakeViews, n)
	for i := range out {
		if err := out[i].UnmarshalBorsh(d); err != nil {
			return err
		}
	}
	*vs = out
	return nil
}

//-----------------------------------------------------------------------------

// BlockProducers is the ordered producer set of one epoch. Approval slots in
// evidence are aligned with this order.
type BlockProducers []ValidatorStake

// Hash returns the hash the chain commits to in next_bp_hash.
func (bps BlockProducers) Hash() crypto.Hash {
	return crypto.HashCanonical(bps)
}

// TotalStake returns the sum of all stakes. The sum is computed in 256 bits
// and cannot overflow for any realistic set size.
func (bps BlockProducers) TotalStake() *uint256.Int {
	total := new(uint256.Int)
	for _, v := range bps {
		total.Add(total, v.Stake.Int())
	}
	return total
}

// Views returns the versioned rendering of the set.
func (bps BlockProducers) Views() ValidatorStakeViews {
	out := make(ValidatorStakeViews, len(bps))
	for i, v := range bps {
		out[i] = v.View()
	}
	return out
}

func (bps BlockProducers) MarshalBorsh(e *borsh.Encoder) {
	e.WriteLen(len(bps))
	for _, v := range bps {
		v.MarshalBorsh(e)
	}
}

func (bps *BlockProducers) UnmarshalBorsh(d *borsh.Decoder) error {
	var views ValidatorStakeViews
	if err := views.UnmarshalBorsh(d); err != nil {
		return err
	}
	out, err := views.BlockProducers()
	if err != nil {
		return err
	}
	*bps = out
	return nil
}

// MarshalJSON renders the set as versioned records. A nil set, meaning no
// set at all, is rendered as null.
func (bps BlockProducers) MarshalJSON() ([]byte, error) {
	if bps == nil {
		return []byte("null"), nil
	}
	return json.Marshal(bps.Views())
}

func (bps *BlockProducers) UnmarshalJSON(bz []byte) error {
	if string(bz) == "null" {
		*bps = nil
		return nil
	}
	var views ValidatorStakeViews
	if err := json.Unmarshal(bz, &views); err != nil {
		return err
	}
	out, err := views.BlockProducers()
	if err != nil {
		return err
	}
	*bps = out
	return nil
}
