package merkle

import (
	"math/bits"

	"github.com/nearlight/nearlight/crypto"
)

// HashFromHashes computes the root of the Merkle tree over leaves, in the
// provided order. The tree is left-heavy: each node splits its leaves at the
// largest power of two strictly below their count. This is the shape of both
// the chain's outcome trees and its block accumulator.
//
// The root of an empty tree is the zero hash.
func HashFromHashes(leaves []crypto.Hash) crypto.Hash {
	switch len(leaves) {
	case 0:
		return crypto.Hash{}
	case 1:
		return leaves[0]
	default:
		k := getSplitPoint(len(leaves))
		left := HashFromHashes(leaves[:k])
		right := HashFromHashes(leaves[k:])
		return crypto.CombineHashes(left, right)
	}
}

// ProofsFromHashes computes the root of the tree over leaves and the path
// from every leaf to it. Verification never needs this; it exists for
// producers of proofs and for fixtures.
func ProofsFromHashes(leaves []crypto.Hash) (crypto.Hash, []Path) {
	paths := make([]Path, len(leaves))
	root := buildProofs(leaves, paths)
	return root, paths
}

func buildProofs(leaves []crypto.Hash, paths []Path) crypto.Hash {
	switch len(leaves) {
	case 0:
		return crypto.Hash{}
	case 1:
		return leaves[0]
	}

	k := getSplitPoint(len(leaves))
	left := buildProofs(leaves[:k], paths[:k])
	right := buildProofs(leaves[k:], paths[k:])
	for i := 0; i < k; i++ {
		paths[i] = append(paths[i], PathItem{Hash: right, Direction: Right})
	}
	for i := k; i < len(leaves); i++ {
		paths[i] = append(paths[i], PathItem{Hash: left, Direction: Left})
	}
	return crypto.CombineHashes(left, right)
}

// getSplitPoint returns the largest power of 2 less than length
func getSplitPoint(length int) int {
	if length < 1 {
		panic("Trying to split a tree with size < 1")
	}
	uLength := uint(length)
	bitlen := bits.Len(uLength)
	k := 1 << uint(bitlen-1)
	if k == length {
		k >>= 1
	}
	return k
}
