package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/libs/borsh"
	"github.com/nearlight/nearlight/types"
)

func TestApprovalSignBytes(t *testing.T) {
	h := crypto.Sum([]byte("block"))

	bz := types.NewEndorsement(h).SignBytes(7)
	require.Len(t, bz, 41)
	assert.EqualValues(t, 0, bz[0])
	assert.Equal(t, h[:], bz[1:33])
	assert.Equal(t, []byte{7, 0, 0, 0, 0, 0, 0, 0}, bz[33:])

	bz = types.NewSkip(5).SignBytes(7)
	assert.Equal(t, []byte{1, 5, 0, 0, 0, 0, 0, 0, 0, 7, 0, 0, 0, 0, 0, 0, 0}, bz)
}

func TestApprovalInnerBorsh(t *testing.T) {
	h := crypto.Sum([]byte("block"))
	for _, a := range []types.ApprovalInner{types.NewEndorsement(h), types.NewSkip(12)} {
		var decoded types.ApprovalInner
		require.NoError(t, borsh.Unmarshal(borsh.Marshal(a), &decoded))
		assert.Equal(t, a, decoded)
	}

	endorsed, ok := types.NewEndorsement(h).EndorsedHash()
	assert.True(t, ok)
	assert.Equal(t, h, endorsed)
	_, ok = types.NewSkip(1).EndorsedHash()
	assert.False(t, ok)

	var decoded types.ApprovalInner
	err := borsh.Unmarshal([]byte{2, 0, 0, 0, 0, 0, 0, 0, 0}, &decoded)
	assert.ErrorAs(t, err, &borsh.ErrInvalidTag{})
}
