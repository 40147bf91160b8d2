package ed25519

import (
	"bytes"
	crand "crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/nearlight/nearlight/libs/borsh"
)

const (
	// KeyType is the textual prefix of keys and signatures in JSON.
	KeyType = "ed25519"
	// PubKeySize is the size, in bytes, of public keys as used in this package.
	PubKeySize = 32
	// PrivateKeySize is the size, in bytes, of private keys as used in this package.
	PrivateKeySize = 64
	// SignatureSize is the size of an Edwards25519 signature. Namely the size of
	// a compressed Edwards25519 point, and a field element. Both of which are 32
	// bytes.
	SignatureSize = 64
	// SeedSize is the size, in bytes, of private key seeds.
	SeedSize = 32

	// keyTypeTag is the borsh discriminant of ed25519 in the chain's KeyType enum.
	keyTypeTag uint8 = 0
)

// verifyOptions follows ZIP-215, so every node and light client accepts
// exactly the same set of signatures.
var verifyOptions = &ed25519.Options{
	Verify: ed25519.VerifyOptionsZIP_215,
}

//-------------------------------------

// PrivKey implements signing for tests and fixture generation. The light
// client itself never signs.
type PrivKey []byte

// Bytes returns the privkey byte format.
func (privKey PrivKey) Bytes() []byte {
	return []byte(privKey)
}

// Sign produces a signature on the provided message.
func (privKey PrivKey) Sign(msg []byte) (Signature, error) {
	var sig Signature
	if len(privKey) != PrivateKeySize {
		return sig, fmt.Errorf("invalid private key length %d", len(privKey))
	}
	copy(sig[:], ed25519.Sign(ed25519.PrivateKey(privKey), msg))
	return sig, nil
}

// PubKey gets the corresponding public key from the private key.
func (privKey PrivKey) PubKey() PubKey {
	var pubKey PubKey
	copy(pubKey[:], privKey[32:])
	return pubKey
}

// GenPrivKey generates a new ed25519 private key using crypto/rand.
func GenPrivKey() PrivKey {
	return genPrivKey(crand.Reader)
}

func genPrivKey(rand io.Reader) PrivKey {
	_, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		panic(err)
	}
	return PrivKey(priv)
}

// GenPrivKeyFromSecret hashes the secret with SHA2, and uses
// that 32 byte output to create the private key.
//
// NOTE: secret should be the output of a KDF like bcrypt,
// if it's derived from user input.
func GenPrivKeyFromSecret(secret []byte) PrivKey {
	seed := sha256.Sum256(secret)
	return PrivKey(ed25519.NewKeyFromSeed(seed[:]))
}

//-------------------------------------

// PubKey is a raw ed25519 public key.
type PubKey [PubKeySize]byte

// PubKeyFromBytes copies bz into a PubKey.
func PubKeyFromBytes(bz []byte) (PubKey, error) {
	var pk PubKey
	if len(bz) != PubKeySize {
		return pk, fmt.Errorf("expected %d byte public key, got %d bytes", PubKeySize, len(bz))
	}
	copy(pk[:], bz)
	return pk, nil
}

// Bytes returns a copy of the key bytes.
func (pubKey PubKey) Bytes() []byte {
	return append([]byte(nil), pubKey[:]...)
}

// VerifySignature reports whether sig is a valid signature of msg by
// pubKey. Malformed signatures are reported as invalid.
func (pubKey PubKey) VerifySignature(msg []byte, sig []byte) bool {
	// make sure we use the same algorithm to sign
	if len(sig) != SignatureSize {
		return false
	}
	return ed25519.VerifyWithOptions(ed25519.PublicKey(pubKey[:]), msg, sig, verifyOptions)
}

func (pubKey PubKey) Equals(other PubKey) bool {
	return bytes.Equal(pubKey[:], other[:])
}

func (pubKey PubKey) String() string {
	return KeyType + ":" + base58.Encode(pubKey[:])
}

func (pubKey PubKey) MarshalText() ([]byte, error) {
	return []byte(pubKey.String()), nil
}

func (pubKey *PubKey) UnmarshalText(text []byte) error {
	bz, err := decodeTagged(string(text), PubKeySize)
	if err != nil {
		return fmt.Errorf("public key: %w", err)
	}
	copy(pubKey[:], bz)
	return nil
}

// MarshalBorsh writes the key as the chain's PublicKey enum: key type tag
// followed by the raw key.
func (pubKey PubKey) MarshalBorsh(e *borsh.Encoder) {
	e.WriteU8(keyTypeTag)
	e.WriteFixed(pubKey[:])
}

func (pubKey *PubKey) UnmarshalBorsh(d *borsh.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	if tag != keyTypeTag {
		return borsh.ErrInvalidTag{Type: "key type", Tag: tag}
	}
	return d.ReadFixed(pubKey[:])
}

//-------------------------------------

// ErrMalleableSignature is returned when a signature's scalar has any of its
// three most significant bits set. Such a signature can never be valid.
var ErrMalleableSignature = errors.New("signature scalar out of range")

// Signature is a raw ed25519 signature.
type Signature [SignatureSize]byte

// SignatureFromBytes copies bz into a Signature and applies the same range
// check as the borsh decoder.
func SignatureFromBytes(bz []byte) (Signature, error) {
	var sig Signature
	if len(bz) != SignatureSize {
		return sig, fmt.Errorf("expected %d byte signature, got %d bytes", SignatureSize, len(bz))
	}
	copy(sig[:], bz)
	if err := sig.ValidateBasic(); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// ValidateBasic performs the cheap structural check the chain applies when
// decoding signatures.
func (sig Signature) ValidateBasic() error {
	if sig[SignatureSize-1]&0b1110_0000 != 0 {
		return ErrMalleableSignature
	}
	return nil
}

func (sig Signature) String() string {
	return KeyType + ":" + base58.Encode(sig[:])
}

func (sig Signature) MarshalText() ([]byte, error) {
	return []byte(sig.String()), nil
}

func (sig *Signature) UnmarshalText(text []byte) error {
	bz, err := decodeTagged(string(text), SignatureSize)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	parsed, err := SignatureFromBytes(bz)
	if err != nil {
		return err
	}
	*sig = parsed
	return nil
}

func (sig Signature) MarshalBorsh(e *borsh.Encoder) {
	e.WriteU8(keyTypeTag)
	e.WriteFixed(sig[:])
}

func (sig *Signature) UnmarshalBorsh(d *borsh.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	if tag != keyTypeTag {
		return borsh.ErrInvalidTag{Type: "key type", Tag: tag}
	}
	var raw Signature
	if err := d.ReadFixed(raw[:]); err != nil {
		return err
	}
	if err := raw.ValidateBasic(); err != nil {
		return err
	}
	*sig = raw
	return nil
}

func decodeTagged(s string, size int) ([]byte, error) {
	body := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if s[:i] != KeyType {
			return nil, fmt.Errorf("unsupported key type %q", s[:i])
		}
		body = s[i+1:]
	}
	bz := base58.Decode(body)
	if len(bz) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(bz))
	}
	return bz, nil
}
