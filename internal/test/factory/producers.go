package factory

import (
	"fmt"

	"github.com/nearlight/nearlight/crypto/ed25519"
	"github.com/nearlight/nearlight/types"
)

// Producer returns a block producer whose key is derived from its account
// id, so the same account always signs with the same key.
func Producer(accountID string, stake uint64) (types.ValidatorStake, ed25519.PrivKey) {
	privKey := ed25519.GenPrivKeyFromSecret([]byte(accountID))
	return types.NewValidatorStake(accountID, privKey.PubKey(), types.NewBalance(stake)), privKey
}

// Producers returns one producer per stake, named <prefix>0.near,
// <prefix>1.near, and so on, with the keys in the same order.
func Producers(prefix string, stakes ...uint64) (types.BlockProducers, []ed25519.PrivKey) {
	var (
		bps  = make(types.BlockProducers, len(stakes))
		keys = make([]ed25519.PrivKey, len(stakes))
	)
	for i, stake := range stakes {
		bps[i], keys[i] = Producer(fmt.Sprintf("%s%d.near", prefix, i), stake)
	}
	return bps, keys
}

// EqualStakes returns n stakes of the given amount.
func EqualStakes(n int, stake uint64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = stake
	}
	return out
}
