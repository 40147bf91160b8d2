package crypto

import (
	"crypto/sha256"

	"github.com/nearlight/nearlight/libs/borsh"
)

// Sum returns the SHA-256 digest of bz.
func Sum(bz []byte) Hash {
	return sha256.Sum256(bz)
}

// CombineHashes hashes the ordered pair (a, b). It is the step function of
// every binary Merkle tree on the chain and is not commutative.
func CombineHashes(a, b Hash) Hash {
	var pair [2 * HashSize]byte
	copy(pair[:HashSize], a[:])
	copy(pair[HashSize:], b[:])
	return Sum(pair[:])
}

// HashCanonical returns the digest of the canonical encoding of v.
func HashCanonical(v borsh.Marshaler) Hash {
	return Sum(borsh.Marshal(v))
}
