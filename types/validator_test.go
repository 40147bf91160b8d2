package types_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/ed25519"
	"github.com/nearlight/nearlight/internal/test/factory"
	"github.com/nearlight/nearlight/libs/borsh"
	"github.com/nearlight/nearlight/types"
)

func TestValidatorStakeLayout(t *testing.T) {
	var pk ed25519.PubKey
	for i := range pk {
		pk[i] = byte(i)
	}
	v := types.NewValidatorStake("ab", pk, types.NewBalance(258))

	bz := borsh.Marshal(v)
	require.Len(t, bz, 1+4+2+1+ed25519.PubKeySize+16)
	assert.EqualValues(t, 0, bz[0], "version tag")
	assert.Equal(t, []byte{2, 0, 0, 0, 'a', 'b'}, bz[1:7])
	assert.EqualValues(t, 0, bz[7], "key type")
	assert.Equal(t, pk[:], bz[8:40])
	assert.Equal(t, []byte{2, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, bz[40:])
}

func TestBlockProducersHash(t *testing.T) {
	bps, _ := factory.Producers("bp", 1, 2, 3)

	bz := borsh.Marshal(bps)
	assert.Equal(t, []byte{3, 0, 0, 0}, bz[:4])
	assert.Equal(t, crypto.Sum(bz), bps.Hash())

	// Views and producers commit to the same bytes.
	assert.Equal(t, bps.Hash(), bps.Views().Hash())

	// Order matters.
	swapped := types.BlockProducers{bps[1], bps[0], bps[2]}
	assert.NotEqual(t, bps.Hash(), swapped.Hash())

	var decoded types.BlockProducers
	require.NoError(t, borsh.Unmarshal(bz, &decoded))
	assert.Equal(t, bps, decoded)
}

func TestBlockProducersTotalStake(t *testing.T) {
	max, err := types.ParseBalance("340282366920938463463374607431768211455")
	require.NoError(t, err)
	pk := ed25519.GenPrivKeyFromSecret([]byte("x")).PubKey()

	bps := types.BlockProducers{
		types.NewValidatorStake("a", pk, max),
		types.NewValidatorStake("b", pk, max),
	}
	// 2 * (2^128 - 1) needs 129 bits.
	assert.Equal(t, "680564733841876926926749214863536422910", bps.TotalStake().Dec())
	assert.True(t, types.BlockProducers{}.TotalStake().IsZero())
}

func TestValidatorStakeViewUnknownVersion(t *testing.T) {
	v, _ := factory.Producer("a.near", 1)
	bz := borsh.Marshal(v)
	bz[0] = 1

	var view types.ValidatorStakeView
	err := borsh.Unmarshal(bz, &view)
	var unknown types.ErrUnknownVersion
	require.True(t, errors.As(err, &unknown), "got %v", err)

	// The zero value is not a record of any version.
	assert.Error(t, types.ValidatorStakeView{}.ValidateBasic())
	_, err = json.Marshal(types.ValidatorStakeView{})
	assert.Error(t, err)
}

func TestValidatorStakeViewJSON(t *testing.T) {
	v, _ := factory.Producer("a.near", 1000)

	bz, err := json.Marshal(v.View())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"validator_stake_struct_version": "V1",
		"account_id": "a.near",
		"public_key": "`+v.PublicKey.String()+`",
		"stake": "1000"
	}`, string(bz))

	var view types.ValidatorStakeView
	require.NoError(t, json.Unmarshal(bz, &view))
	assert.Equal(t, "V1", view.Version())
	got, err := view.ValidatorStake()
	require.NoError(t, err)
	assert.Equal(t, v, got)
}
