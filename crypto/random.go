package crypto

import (
	crand "crypto/rand"
)

// CRandBytes returns numBytes bytes read from the OS entropy source.
func CRandBytes(numBytes int) []byte {
	b := make([]byte, numBytes)
	_, err := crand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// CRandHash returns a uniformly random Hash.
func CRandHash() Hash {
	var h Hash
	copy(h[:], CRandBytes(HashSize))
	return h
}
