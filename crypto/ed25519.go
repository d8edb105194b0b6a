package crypto

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/iov-one/iou/errors"
	"golang.org/x/crypto/ed25519"
)

// PublicKey is the verifying half of an ed25519 key pair.
type PublicKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// PrivateKey is the signing half of an ed25519 key pair. It is never sent
// over the wire.
type PrivateKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// Signature is an ed25519 signature.
type Signature struct {
	Ed25519 []byte `json:"ed25519"`
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() PublicKey
}

var _ Signer = (*PrivateKey)(nil)

// Verify verifies the signature was created with this message and public key
func (p PublicKey) Verify(message []byte, sig *Signature) bool {
	if sig == nil || len(sig.Ed25519) != ed25519.SignatureSize {
		return false
	}
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p.Ed25519), message, sig.Ed25519)
}

// Validate returns an error if the key is not a well formed ed25519 public
// key.
func (p PublicKey) Validate() error {
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrapf(errors.ErrInvalidInput, "public key must be %d bytes, got %d", ed25519.PublicKeySize, len(p.Ed25519))
	}
	return nil
}

// Equals checks if two keys are the same
func (p PublicKey) Equals(o PublicKey) bool {
	return bytes.Equal(p.Ed25519, o.Ed25519)
}

// IsEmpty returns true when no key material is set.
func (p PublicKey) IsEmpty() bool {
	return len(p.Ed25519) == 0
}

// String returns the upper case hex representation of the key.
func (p PublicKey) String() string {
	if p.IsEmpty() {
		return "(nil)"
	}
	return strings.ToUpper(hex.EncodeToString(p.Ed25519))
}

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(errors.ErrInvalidInput, "malformed private key")
	}
	bz := ed25519.Sign(ed25519.PrivateKey(p.Ed25519), message)
	return &Signature{Ed25519: bz}, nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() PublicKey {
	privateKey := ed25519.PrivateKey(p.Ed25519)
	pub := privateKey.Public().(ed25519.PublicKey)
	return PublicKey{Ed25519: pub}
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}
}
