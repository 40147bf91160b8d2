package types_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/ed25519"
	"github.com/nearlight/nearlight/internal/test/factory"
	"github.com/nearlight/nearlight/libs/borsh"
	"github.com/nearlight/nearlight/types"
)

func makeHeader() types.LightClientBlockLiteView {
	return types.LightClientBlockLiteView{
		PrevBlockHash: crypto.Sum([]byte("prev")),
		InnerRestHash: crypto.Sum([]byte("rest")),
		InnerLite: types.BlockHeaderInnerLiteView{
			Height:           100,
			EpochID:          crypto.Sum([]byte("epoch")),
			NextEpochID:      crypto.Sum([]byte("next epoch")),
			PrevStateRoot:    crypto.Sum([]byte("state")),
			OutcomeRoot:      crypto.Sum([]byte("outcomes")),
			Timestamp:        1609459200000000000,
			TimestampNanosec: 1609459200000000000,
			NextBPHash:       crypto.Sum([]byte("bps")),
			BlockMerkleRoot:  crypto.Sum([]byte("blocks")),
		},
	}
}

func TestInnerLiteLayout(t *testing.T) {
	h := makeHeader()
	bz := borsh.Marshal(h.InnerLite.InnerLite())
	require.Len(t, bz, 8+4*crypto.HashSize+8+2*crypto.HashSize)

	assert.Equal(t, []byte{100, 0, 0, 0, 0, 0, 0, 0}, bz[:8])
	assert.Equal(t, h.InnerLite.EpochID[:], bz[8:40])
	assert.Equal(t, h.InnerLite.OutcomeRoot[:], bz[104:136])
	assert.Equal(t, h.InnerLite.BlockMerkleRoot[:], bz[176:208])
}

func TestHeaderHash(t *testing.T) {
	h := makeHeader()

	innerLiteHash := crypto.Sum(borsh.Marshal(h.InnerLite.InnerLite()))
	want := crypto.CombineHashes(crypto.CombineHashes(innerLiteHash, h.InnerRestHash), h.PrevBlockHash)
	assert.Equal(t, want, h.Hash())

	// Recomputed, never cached.
	assert.Equal(t, h.Hash(), h.Hash())
	h2 := h
	h2.InnerLite.Height++
	assert.NotEqual(t, h.Hash(), h2.Hash())
}

func TestHeaderHashFieldSensitivity(t *testing.T) {
	base := makeHeader()
	flip := func(h *crypto.Hash) { h[0] ^= 1 }

	testCases := map[string]func(h *types.LightClientBlockLiteView){
		"prev block hash": func(h *types.LightClientBlockLiteView) { flip(&h.PrevBlockHash) },
		"inner rest hash": func(h *types.LightClientBlockLiteView) { flip(&h.InnerRestHash) },
		"height":          func(h *types.LightClientBlockLiteView) { h.InnerLite.Height++ },
		"epoch id":        func(h *types.LightClientBlockLiteView) { flip(&h.InnerLite.EpochID) },
		"next epoch id":   func(h *types.LightClientBlockLiteView) { flip(&h.InnerLite.NextEpochID) },
		"prev state root": func(h *types.LightClientBlockLiteView) { flip(&h.InnerLite.PrevStateRoot) },
		"outcome root":    func(h *types.LightClientBlockLiteView) { flip(&h.InnerLite.OutcomeRoot) },
		"timestamp":       func(h *types.LightClientBlockLiteView) { h.InnerLite.TimestampNanosec++ },
		"next bp hash":    func(h *types.LightClientBlockLiteView) { flip(&h.InnerLite.NextBPHash) },
		"block merkle":    func(h *types.LightClientBlockLiteView) { flip(&h.InnerLite.BlockMerkleRoot) },
	}
	for name, mutate := range testCases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			h := base
			mutate(&h)
			assert.NotEqual(t, base.Hash(), h.Hash())
		})
	}

	// The legacy timestamp of the view is not part of the header.
	h := base
	h.InnerLite.Timestamp++
	assert.Equal(t, base.Hash(), h.Hash())
}

func TestLightClientBlockBorsh(t *testing.T) {
	bps, keys := factory.Producers("bp", 10, 20, 30)
	next, _ := factory.Producers("next", 5, 5)
	chain := factory.NewChain(10, bps, keys, next, nil)

	ev := chain.Next()
	factory.Approve(ev, keys[0], nil, keys[2])
	ev.NextBPs = next.Views()

	bz := borsh.Marshal(ev)
	decoded, err := types.DecodeLightClientBlock(bz)
	require.NoError(t, err)
	assert.Equal(t, ev.CurrentBlockHash(), decoded.CurrentBlockHash())
	assert.Nil(t, decoded.ApprovalsAfterNext[1])
	assert.Equal(t, *ev.ApprovalsAfterNext[2], *decoded.ApprovalsAfterNext[2])
	assert.Equal(t, bz, borsh.Marshal(decoded))

	// No producer set is distinct from an empty one.
	ev.NextBPs = nil
	decoded, err = types.DecodeLightClientBlock(borsh.Marshal(ev))
	require.NoError(t, err)
	assert.False(t, decoded.HasNextBPs())

	ev.NextBPs = types.ValidatorStakeViews{}
	decoded, err = types.DecodeLightClientBlock(borsh.Marshal(ev))
	require.NoError(t, err)
	assert.True(t, decoded.HasNextBPs())
	assert.Empty(t, decoded.NextBPs)
}

func TestDecodeLightClientBlockTruncated(t *testing.T) {
	bps, keys := factory.Producers("bp", 1, 1)
	chain := factory.NewChain(1, bps, keys, bps, keys)
	bz := borsh.Marshal(chain.Next())

	for _, n := range []int{0, 31, 100, len(bz) - 1} {
		_, err := types.DecodeLightClientBlock(bz[:n])
		var malformed types.ErrMalformedInput
		require.True(t, errors.As(err, &malformed), "prefix %d: %v", n, err)
	}

	_, err := types.DecodeLightClientBlock(append(bz, 0))
	assert.ErrorAs(t, err, &borsh.ErrTrailingBytes{})
}

var (
	zeroHash = strings.Repeat("1", 32)
	zeroKey  = "ed25519:" + zeroHash
	zeroSig  = "ed25519:" + strings.Repeat("1", 64)
)

func lightClientBlockJSON(version, signature string) []byte {
	return []byte(`{
  "prev_block_hash": "` + zeroHash + `",
  "next_block_inner_hash": "` + zeroHash + `",
  "inner_lite": {
    "height": 100,
    "epoch_id": "` + zeroHash + `",
    "next_epoch_id": "` + zeroHash + `",
    "prev_state_root": "` + zeroHash + `",
    "outcome_root": "` + zeroHash + `",
    "timestamp": 1609459200000000000,
    "timestamp_nanosec": "1609459200000000000",
    "next_bp_hash": "` + zeroHash + `",
    "block_merkle_root": "` + zeroHash + `"
  },
  "inner_rest_hash": "` + zeroHash + `",
  "next_bps": [
    {
      "validator_stake_struct_version": "` + version + `",
      "account_id": "node0.near",
      "public_key": "` + zeroKey + `",
      "stake": "340282366920938463463374607431768211455"
    }
  ],
  "approvals_after_next": [null, "` + signature + `"]
}`)
}

func TestDecodeLightClientBlockJSON(t *testing.T) {
	ev, err := types.DecodeLightClientBlockJSON(lightClientBlockJSON("V1", zeroSig))
	require.NoError(t, err)

	assert.EqualValues(t, 100, ev.InnerLite.Height)
	assert.EqualValues(t, 1609459200000000000, ev.InnerLite.TimestampNanosec)
	require.Len(t, ev.ApprovalsAfterNext, 2)
	assert.Nil(t, ev.ApprovalsAfterNext[0])
	assert.Equal(t, ed25519.Signature{}, *ev.ApprovalsAfterNext[1])

	require.True(t, ev.HasNextBPs())
	bps, err := types.ValidatorStakeViews(ev.NextBPs).BlockProducers()
	require.NoError(t, err)
	assert.Equal(t, "node0.near", bps[0].AccountID)
	assert.Equal(t, "340282366920938463463374607431768211455", bps[0].Stake.String())
}

func TestDecodeLightClientBlockJSONRejects(t *testing.T) {
	testCases := map[string][]byte{
		"unknown validator version": lightClientBlockJSON("V2", zeroSig),
		"short signature":           lightClientBlockJSON("V1", "ed25519:"+strings.Repeat("1", 63)),
		"foreign key type":          lightClientBlockJSON("V1", "secp256k1:"+strings.Repeat("1", 64)),
		"not json":                  []byte("{"),
	}
	for name, bz := range testCases {
		bz := bz
		t.Run(name, func(t *testing.T) {
			_, err := types.DecodeLightClientBlockJSON(bz)
			var malformed types.ErrMalformedInput
			assert.True(t, errors.As(err, &malformed), "got %v", err)
		})
	}
}

func TestDecodeLightClientBlockJSONEnvelope(t *testing.T) {
	inner := lightClientBlockJSON("V1", zeroSig)
	wrapped := []byte(`{"jsonrpc":"2.0","id":"dontcare","result":` + string(inner) + `}`)

	ev, err := types.DecodeLightClientBlockJSON(wrapped)
	require.NoError(t, err)
	bare, err := types.DecodeLightClientBlockJSON(inner)
	require.NoError(t, err)
	assert.Equal(t, bare, ev)

	testCases := map[string]string{
		"rpc error":      `{"jsonrpc":"2.0","id":"dontcare","error":{"code":-32000,"message":"Server error"}}`,
		"missing result": `{"jsonrpc":"2.0","id":"dontcare"}`,
		"null result":    `{"jsonrpc":"2.0","id":"dontcare","result":null,"error":null}`,
	}
	for name, bz := range testCases {
		bz := bz
		t.Run(name, func(t *testing.T) {
			_, err := types.DecodeLightClientBlockJSON([]byte(bz))
			var malformed types.ErrMalformedInput
			assert.True(t, errors.As(err, &malformed), "got %v", err)
		})
	}
}

func TestApprovalMessage(t *testing.T) {
	bps, keys := factory.Producers("bp", 1)
	chain := factory.NewChain(41, bps, keys, bps, keys)
	ev := chain.Next()

	current := ev.CurrentBlockHash()
	msg := ev.ApprovalMessage(current)
	require.Len(t, msg, 1+crypto.HashSize+8)

	assert.EqualValues(t, 0, msg[0])
	next := crypto.CombineHashes(ev.NextBlockInnerHash, current)
	assert.Equal(t, next[:], msg[1:33])
	assert.Equal(t, []byte{44, 0, 0, 0, 0, 0, 0, 0}, msg[33:])

	assert.True(t, bps[0].PublicKey.VerifySignature(msg, ev.ApprovalsAfterNext[0][:]))
}
