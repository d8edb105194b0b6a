package crypto

import (
	"github.com/iov-one/iou/errors"
	"github.com/stellar/go/exp/crypto/derivation"
)

// DefaultPathPrefix is the SLIP-10 account path prefix node identities are
// derived under. The account index is appended to it.
const DefaultPathPrefix = "m/44'/234'"

// DeriveKey derives an ed25519 private key from a master seed along given
// SLIP-10 path, for example "m/44'/234'/0'".
func DeriveKey(seed []byte, path string) (*PrivateKey, error) {
	if len(seed) < 16 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "seed must be at least 16 bytes")
	}
	k, err := derivation.DeriveForPath(path, seed)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "derive %q: %s", path, err)
	}
	return PrivKeyEd25519FromSeed(k.Key), nil
}
