package types

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/merkle"
	"github.com/nearlight/nearlight/libs/borsh"
)

// ExecutionStatusKind enumerates the outcomes of executing a transaction or
// receipt. The values are the borsh discriminants of the partial status.
type ExecutionStatusKind uint8

const (
	// StatusUnknown means the execution is pending or unknown.
	StatusUnknown ExecutionStatusKind = iota
	// StatusFailure means the execution has failed.
	StatusFailure
	// StatusSuccessValue means the final action succeeded and returned a value.
	StatusSuccessValue
	// StatusSuccessReceiptID means the final action returned a promise, or the
	// transaction was converted to a receipt with the given id.
	StatusSuccessReceiptID
)

func (k ExecutionStatusKind) String() string {
	switch k {
	case StatusUnknown:
		return "Unknown"
	case StatusFailure:
		return "Failure"
	case StatusSuccessValue:
		return "SuccessValue"
	case StatusSuccessReceiptID:
		return "SuccessReceiptId"
	default:
		return fmt.Sprintf("ExecutionStatusKind(%d)", uint8(k))
	}
}

// ExecutionStatus is the status of an execution outcome as the RPC reports
// it. Failure details are informational only and excluded from hashing.
type ExecutionStatus struct {
	Kind             ExecutionStatusKind
	SuccessValue     []byte
	SuccessReceiptID crypto.Hash
	Failure          json.RawMessage
}

// Partial returns the part of the status that is committed to on chain.
func (s ExecutionStatus) Partial() PartialExecutionStatus {
	p := PartialExecutionStatus{Kind: s.Kind}
	switch s.Kind {
	case StatusSuccessValue:
		p.SuccessValue = s.SuccessValue
	case StatusSuccessReceiptID:
		p.SuccessReceiptID = s.SuccessReceiptID
	}
	return p
}

func (s ExecutionStatus) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case StatusUnknown:
		return json.Marshal("Unknown")
	case StatusFailure:
		failure := s.Failure
		if len(failure) == 0 {
			failure = json.RawMessage("null")
		}
		return json.Marshal(map[string]json.RawMessage{"Failure": failure})
	case StatusSuccessValue:
		return json.Marshal(map[string]string{
			"SuccessValue": base64.StdEncoding.EncodeToString(s.SuccessValue),
		})
	case StatusSuccessReceiptID:
		return json.Marshal(map[string]crypto.Hash{"SuccessReceiptId": s.SuccessReceiptID})
	default:
		return nil, fmt.Errorf("unknown execution status %v", s.Kind)
	}
}

// UnmarshalJSON decodes the RPC rendering: the string "Unknown" or an object
// with exactly one of Failure, SuccessValue or SuccessReceiptId.
func (s *ExecutionStatus) UnmarshalJSON(bz []byte) error {
	var str string
	if err := json.Unmarshal(bz, &str); err == nil {
		if str != "Unknown" {
			return fmt.Errorf("unknown execution status %q", str)
		}
		*s = ExecutionStatus{Kind: StatusUnknown}
		return nil
	}

	var variants map[string]json.RawMessage
	if err := json.Unmarshal(bz, &variants); err != nil {
		return fmt.Errorf("execution status: %w", err)
	}
	if len(variants) != 1 {
		return fmt.Errorf("execution status must have exactly one variant, got %d", len(variants))
	}

	for name, payload := range variants {
		switch name {
		case "Failure":
			*s = ExecutionStatus{Kind: StatusFailure, Failure: append(json.RawMessage(nil), payload...)}
		case "SuccessValue":
			var encoded string
			if err := json.Unmarshal(payload, &encoded); err != nil {
				return fmt.Errorf("SuccessValue: %w", err)
			}
			value, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return fmt.Errorf("SuccessValue: %w", err)
			}
			*s = ExecutionStatus{Kind: StatusSuccessValue, SuccessValue: value}
		case "SuccessReceiptId":
			var id crypto.Hash
			if err := json.Unmarshal(payload, &id); err != nil {
				return fmt.Errorf("SuccessReceiptId: %w", err)
			}
			*s = ExecutionStatus{Kind: StatusSuccessReceiptID, SuccessReceiptID: id}
		default:
			return fmt.Errorf("unknown execution status %q", name)
		}
	}
	return nil
}

// PartialExecutionStatus is the status as committed on chain.
type PartialExecutionStatus struct {
	Kind             ExecutionStatusKind
	SuccessValue     []byte
	SuccessReceiptID crypto.Hash
}

func (s PartialExecutionStatus) MarshalBorsh(e *borsh.Encoder) {
	e.WriteU8(uint8(s.Kind))
	switch s.Kind {
	case StatusSuccessValue:
		e.WriteBytes(s.SuccessValue)
	case StatusSuccessReceiptID:
		s.SuccessReceiptID.MarshalBorsh(e)
	}
}

func (s *PartialExecutionStatus) UnmarshalBorsh(d *borsh.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	out := PartialExecutionStatus{Kind: ExecutionStatusKind(tag)}
	switch out.Kind {
	case StatusUnknown, StatusFailure:
	case StatusSuccessValue:
		if out.SuccessValue, err = d.ReadBytes(); err != nil {
			return err
		}
	case StatusSuccessReceiptID:
		if err := out.SuccessReceiptID.UnmarshalBorsh(d); err != nil {
			return err
		}
	default:
		return borsh.ErrInvalidTag{Type: "execution status", Tag: tag}
	}
	*s = out
	return nil
}

//-----------------------------------------------------------------------------

// ExecutionOutcomeView is the result of executing a transaction or receipt.
type ExecutionOutcomeView struct {
	// Logs from this transaction or receipt.
	Logs []string `json:"logs"`
	// Receipt IDs generated by this transaction or receipt.
	ReceiptIDs []crypto.Hash `json:"receipt_ids"`
	// The amount of the gas burnt by the given transaction or receipt.
	GasBurnt uint64 `json:"gas_burnt"`
	// The amount of tokens burnt corresponding to the burnt gas amount.
	TokensBurnt Balance `json:"tokens_burnt"`
	// Signer for transactions, receiver for receipts.
	ExecutorID string `json:"executor_id"`
	// Execution status.
	Status ExecutionStatus `json:"status"`
}

// Partial returns the consensus-relevant subset of the outcome.
func (o ExecutionOutcomeView) Partial() PartialExecutionOutcome {
	return PartialExecutionOutcome{
		ReceiptIDs:  o.ReceiptIDs,
		GasBurnt:    o.GasBurnt,
		TokensBurnt: o.TokensBurnt,
		ExecutorID:  o.ExecutorID,
		Status:      o.Status.Partial(),
	}
}

// ToHashes returns the hashes committed to for the outcome with the given
// id: the id, the hash of the partial outcome, then the hash of every log.
func (o ExecutionOutcomeView) ToHashes(id crypto.Hash) crypto.Hashes {
	hashes := make(crypto.Hashes, 0, len(o.Logs)+2)
	hashes = append(hashes, id, crypto.HashCanonical(o.Partial()))
	for _, log := range o.Logs {
		hashes = append(hashes, crypto.Sum([]byte(log)))
	}
	return hashes
}

// PartialExecutionOutcome is the part of an outcome that is hashed for
// inclusion. Logs and failure details are not part of it.
type PartialExecutionOutcome struct {
	ReceiptIDs  []crypto.Hash
	GasBurnt    uint64
	TokensBurnt Balance
	ExecutorID  string
	Status      PartialExecutionStatus
}

func (p PartialExecutionOutcome) MarshalBorsh(e *borsh.Encoder) {
	crypto.Hashes(p.ReceiptIDs).MarshalBorsh(e)
	e.WriteU64(p.GasBurnt)
	p.TokensBurnt.MarshalBorsh(e)
	e.WriteString(p.ExecutorID)
	p.Status.MarshalBorsh(e)
}

func (p *PartialExecutionOutcome) UnmarshalBorsh(d *borsh.Decoder) (err error) {
	var ids crypto.Hashes
	if err := ids.UnmarshalBorsh(d); err != nil {
		return err
	}
	p.ReceiptIDs = ids
	if p.GasBurnt, err = d.ReadU64(); err != nil {
		return err
	}
	if err := p.TokensBurnt.UnmarshalBorsh(d); err != nil {
		return err
	}
	if p.ExecutorID, err = d.ReadString(); err != nil {
		return err
	}
	return p.Status.UnmarshalBorsh(d)
}

//-----------------------------------------------------------------------------

// ExecutionOutcomeWithIDView is an outcome together with its id, the block
// it was executed in and its path to the shard outcome root.
type ExecutionOutcomeWithIDView struct {
	Proof     merkle.Path          `json:"proof"`
	BlockHash crypto.Hash          `json:"block_hash"`
	ID        crypto.Hash          `json:"id"`
	Outcome   ExecutionOutcomeView `json:"outcome"`
}

// LeafHash returns the leaf the outcome occupies in its shard's outcome tree.
func (o *ExecutionOutcomeWithIDView) LeafHash() crypto.Hash {
	return crypto.HashCanonical(o.Outcome.ToHashes(o.ID))
}

// ShardOutcomeRoot returns the shard outcome root the outcome's own path
// leads to.
func (o *ExecutionOutcomeWithIDView) ShardOutcomeRoot() crypto.Hash {
	return merkle.ComputeRoot(o.LeafHash(), o.Proof)
}
