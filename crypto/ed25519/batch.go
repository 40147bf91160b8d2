package ed25519

import (
	crand "crypto/rand"
	"fmt"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
)

// BatchVerifier checks many signatures at once. It is cheaper than verifying
// them one by one when most of them are valid.
type BatchVerifier struct {
	*ed25519.BatchVerifier
	n int
}

func NewBatchVerifier() *BatchVerifier {
	return &BatchVerifier{BatchVerifier: ed25519.NewBatchVerifier()}
}

// Add appends an entry into the BatchVerifier.
func (b *BatchVerifier) Add(key PubKey, msg, signature []byte) error {
	if len(signature) != SignatureSize {
		return fmt.Errorf("invalid signature length %d", len(signature))
	}
	b.BatchVerifier.AddWithOptions(ed25519.PublicKey(key[:]), msg, signature, verifyOptions)
	b.n++
	return nil
}

// Len returns the number of entries added so far.
func (b *BatchVerifier) Len() int {
	return b.n
}

// Verify verifies all the entries in the BatchVerifier. It reports whether
// every signature is valid, and the verification status of each signature in
// the order they were added.
func (b *BatchVerifier) Verify() (bool, []bool) {
	return b.BatchVerifier.Verify(crand.Reader)
}
