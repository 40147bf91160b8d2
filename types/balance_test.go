package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearlight/nearlight/libs/borsh"
	"github.com/nearlight/nearlight/types"
)

func TestParseBalance(t *testing.T) {
	b, err := types.ParseBalance("340282366920938463463374607431768211455")
	require.NoError(t, err)
	assert.Equal(t, 128, b.Int().BitLen())

	_, err = types.ParseBalance("340282366920938463463374607431768211456")
	assert.Error(t, err, "2^128 overflows")
	_, err = types.ParseBalance("-1")
	assert.Error(t, err)
	_, err = types.ParseBalance("1e3")
	assert.Error(t, err)
}

func TestBalanceEncoding(t *testing.T) {
	b, err := types.ParseBalance("18446744073709551617") // 2^64 + 1
	require.NoError(t, err)

	bz := borsh.Marshal(b)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, bz)
	var decoded types.Balance
	require.NoError(t, borsh.Unmarshal(bz, &decoded))
	assert.Zero(t, b.Cmp(decoded))

	js, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `"18446744073709551617"`, string(js))

	require.NoError(t, json.Unmarshal([]byte(`1000`), &decoded))
	assert.Equal(t, "1000", decoded.String())
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &decoded))
}

func TestU64JSON(t *testing.T) {
	var u types.U64
	require.NoError(t, json.Unmarshal([]byte(`"18446744073709551615"`), &u))
	assert.EqualValues(t, uint64(18446744073709551615), u)
	require.NoError(t, json.Unmarshal([]byte(`42`), &u))
	assert.EqualValues(t, 42, u)

	bz, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Equal(t, `"42"`, string(bz))
}
