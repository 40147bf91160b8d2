package ed25519_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/crypto/ed25519"
	"github.com/nearlight/nearlight/libs/borsh"
)

func TestSignAndValidateEd25519(t *testing.T) {
	privKey := ed25519.GenPrivKey()
	pubKey := privKey.PubKey()

	msg := crypto.CRandBytes(128)
	sig, err := privKey.Sign(msg)
	require.NoError(t, err)

	// Test the signature
	assert.True(t, pubKey.VerifySignature(msg, sig[:]))
	assert.NoError(t, sig.ValidateBasic())

	// Mutate the signature, just one bit.
	sig[7] ^= byte(0x01)
	assert.False(t, pubKey.VerifySignature(msg, sig[:]))

	// Truncated signatures are invalid, not a panic.
	assert.False(t, pubKey.VerifySignature(msg, sig[:10]))
}

func TestGenPrivKeyFromSecretIsDeterministic(t *testing.T) {
	a := ed25519.GenPrivKeyFromSecret([]byte("validator-0"))
	b := ed25519.GenPrivKeyFromSecret([]byte("validator-0"))
	c := ed25519.GenPrivKeyFromSecret([]byte("validator-1"))

	assert.Equal(t, a.PubKey(), b.PubKey())
	assert.NotEqual(t, a.PubKey(), c.PubKey())
}

func TestSignatureBorsh(t *testing.T) {
	privKey := ed25519.GenPrivKeyFromSecret([]byte("borsh"))
	sig, err := privKey.Sign([]byte("msg"))
	require.NoError(t, err)

	bz := borsh.Marshal(sig)
	require.Len(t, bz, 1+ed25519.SignatureSize)
	assert.EqualValues(t, 0, bz[0])

	var decoded ed25519.Signature
	require.NoError(t, borsh.Unmarshal(bz, &decoded))
	assert.Equal(t, sig, decoded)

	// Unknown key type.
	bad := append([]byte{1}, bz[1:]...)
	assert.Equal(t, borsh.ErrInvalidTag{Type: "key type", Tag: 1}, borsh.Unmarshal(bad, &decoded))

	// Scalar with high bits set.
	bad = append([]byte(nil), bz...)
	bad[len(bad)-1] |= 0x80
	assert.ErrorIs(t, borsh.Unmarshal(bad, &decoded), ed25519.ErrMalleableSignature)
}

func TestPubKeyJSON(t *testing.T) {
	pubKey := ed25519.GenPrivKeyFromSecret([]byte("json")).PubKey()

	bz, err := json.Marshal(pubKey)
	require.NoError(t, err)
	assert.Contains(t, string(bz), `"ed25519:`)

	var decoded ed25519.PubKey
	require.NoError(t, json.Unmarshal(bz, &decoded))
	assert.Equal(t, pubKey, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"secp256k1:abc"`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`"ed25519:abc"`), &decoded))
}

func TestBatchVerifier(t *testing.T) {
	bv := ed25519.NewBatchVerifier()
	for i := 0; i < 4; i++ {
		priv := ed25519.GenPrivKey()
		msg := crypto.CRandBytes(32)
		sig, err := priv.Sign(msg)
		require.NoError(t, err)
		if i == 2 {
			msg[0] ^= 0xff
		}
		require.NoError(t, bv.Add(priv.PubKey(), msg, sig[:]))
	}
	require.Error(t, bv.Add(ed25519.PubKey{}, nil, []byte{1, 2, 3}))
	assert.Equal(t, 4, bv.Len())

	ok, valid := bv.Verify()
	assert.False(t, ok)
	assert.Equal(t, []bool{true, true, false, true}, valid)
}
