package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nearlight/nearlight/libs/borsh"
)

// rpcResponse is the JSON-RPC 2.0 envelope the NEAR RPC wraps results in.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// unwrapRPCResult returns the result carried by a JSON-RPC response, or bz
// itself if it is not one.
func unwrapRPCResult(bz []byte) ([]byte, error) {
	var resp rpcResponse
	if err := json.Unmarshal(bz, &resp); err != nil || resp.JSONRPC == "" {
		return bz, nil
	}
	if !isNullJSON(resp.Error) {
		return nil, fmt.Errorf("rpc error: %s", resp.Error)
	}
	if isNullJSON(resp.Result) {
		return nil, errors.New("rpc response without result")
	}
	return resp.Result, nil
}

func isNullJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// DecodeLightClientBlockJSON decodes evidence as returned by the
// next_light_client_block RPC method, with or without the JSON-RPC envelope.
func DecodeLightClientBlockJSON(bz []byte) (*LightClientBlockView, error) {
	bz, err := unwrapRPCResult(bz)
	if err != nil {
		return nil, ErrMalformedInput{Field: "light client block", Reason: err}
	}
	var b LightClientBlockView
	if err := json.Unmarshal(bz, &b); err != nil {
		return nil, ErrMalformedInput{Field: "light client block", Reason: err}
	}
	if err := b.ValidateBasic(); err != nil {
		return nil, err
	}
	return &b, nil
}

// DecodeLightClientBlock decodes evidence from its canonical encoding.
func DecodeLightClientBlock(bz []byte) (*LightClientBlockView, error) {
	var b LightClientBlockView
	if err := borsh.Unmarshal(bz, &b); err != nil {
		return nil, ErrMalformedInput{Field: "light client block", Reason: err}
	}
	if err := b.ValidateBasic(); err != nil {
		return nil, err
	}
	return &b, nil
}

// DecodeExecutionProofJSON decodes a proof as returned by the
// light_client_proof RPC method, with or without the JSON-RPC envelope.
func DecodeExecutionProofJSON(bz []byte) (*ExecutionProof, error) {
	bz, err := unwrapRPCResult(bz)
	if err != nil {
		return nil, ErrMalformedInput{Field: "execution proof", Reason: err}
	}
	var p ExecutionProof
	if err := json.Unmarshal(bz, &p); err != nil {
		return nil, ErrMalformedInput{Field: "execution proof", Reason: err}
	}
	return &p, nil
}

// DecodeLcProofJSON decodes a proof bundled with its head block root.
func DecodeLcProofJSON(bz []byte) (*LcProof, error) {
	var p LcProof
	if err := json.Unmarshal(bz, &p); err != nil {
		return nil, ErrMalformedInput{Field: "lc proof", Reason: err}
	}
	if err := p.ValidateBasic(); err != nil {
		return nil, err
	}
	return &p, nil
}
