package iou

import (
	"crypto/sha512"

	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/errors"
	tmcrypto "github.com/tendermint/tendermint/crypto"
	"github.com/tendermint/tendermint/crypto/tmhash"
	cmn "github.com/tendermint/tendermint/libs/common"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// Command expresses the intent of a transaction. The path selects the
// contract that verifies the transaction.
type Command interface {
	Path() string
}

// CommandData binds a command to the keys that must sign for it.
type CommandData struct {
	Value   Command            `json:"value"`
	Signers []crypto.PublicKey `json:"signers"`
}

// SaltSize is the length of the random salt every transaction carries.
const SaltSize = 32

// NewSalt returns a fresh transaction salt.
func NewSalt() cmn.HexBytes {
	return tmcrypto.CRandBytes(SaltSize)
}

// Transaction is a proposed state transition: the states it consumes, the
// states it creates, the command that justifies it and the notary that
// guarantees its uniqueness.
//
// Salt makes every proposal unique, so two proposals with the same content
// never share an ID.
type Transaction struct {
	Notary  Party        `json:"notary"`
	Inputs  []StateRef   `json:"inputs"`
	Outputs []State      `json:"outputs"`
	Command CommandData  `json:"command"`
	Salt    cmn.HexBytes `json:"salt"`
}

// Validate checks that the transaction is well formed. It does not run the
// contract, see VerifyTransaction for that.
func (tx *Transaction) Validate() error {
	if len(tx.Salt) != SaltSize {
		return errors.Wrapf(errors.ErrInvalidInput, "salt must be %d bytes", SaltSize)
	}
	if err := tx.Notary.Validate(); err != nil {
		return errors.Wrap(err, "notary")
	}
	for i, ref := range tx.Inputs {
		if err := ref.Validate(); err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
	}
	for i, out := range tx.Outputs {
		if out == nil {
			return errors.Wrapf(errors.ErrInvalidInput, "output %d is nil", i)
		}
	}
	if tx.Command.Value == nil {
		return errors.Wrap(errors.ErrInvalidInput, "missing command")
	}
	if len(tx.Command.Signers) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "missing required signers")
	}
	for i, k := range tx.Command.Signers {
		if err := k.Validate(); err != nil {
			return errors.Wrapf(err, "signer %d", i)
		}
	}
	return nil
}

// ID returns the hash of the transaction encoding. Any change to the
// transaction content changes its ID.
func (tx *Transaction) ID() (cmn.HexBytes, error) {
	bz, err := Marshal(tx)
	if err != nil {
		return nil, errors.Wrap(err, "encode transaction")
	}
	return tmhash.Sum(bz), nil
}

// RequiresSigner returns true if key is one of the command signers.
func (tx *Transaction) RequiresSigner(key crypto.PublicKey) bool {
	return containsKey(tx.Command.Signers, key)
}

/*
BuildSignBytes combines the transaction id with the chain id before
signing, using the following format:

version | len(chainID) | chainID      | txID
4bytes  | uint8        | ascii string | tmhash size

This is then prehashed with sha512 before fed into
the public key signing/verification step
*/
func BuildSignBytes(txID []byte, chainID string) ([]byte, error) {
	if !IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "chain id: %v", chainID)
	}
	if len(txID) != tmhash.Size {
		return nil, errors.Wrap(errors.ErrInvalidInput, "transaction id")
	}

	output := make([]byte, 0, len(SignCodeV1)+1+len(chainID)+len(txID))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, []byte(chainID)...)
	output = append(output, txID...)

	hashed := sha512.Sum512(output)
	return hashed[:], nil
}

// StdSignature is a signature over the transaction sign bytes together with
// the key that produced it.
type StdSignature struct {
	Pubkey    crypto.PublicKey `json:"pubkey"`
	Signature crypto.Signature `json:"signature"`
}

// SignedTransaction is a transaction together with the signatures
// collected so far.
type SignedTransaction struct {
	Tx         Transaction    `json:"tx"`
	Signatures []StdSignature `json:"signatures"`
}

// ID returns the ID of the wrapped transaction. Signatures are not part of
// it.
func (stx *SignedTransaction) ID() (cmn.HexBytes, error) {
	return stx.Tx.ID()
}

// SignTx creates a signature for the given tx
func SignTx(signer crypto.Signer, tx *Transaction, chainID string) (*StdSignature, error) {
	id, err := tx.ID()
	if err != nil {
		return nil, err
	}
	bz, err := BuildSignBytes(id, chainID)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(bz)
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	return &StdSignature{Pubkey: signer.PublicKey(), Signature: *sig}, nil
}

// WithSignature returns a copy of the signed transaction with sig appended.
// The receiver is not modified.
func (stx SignedTransaction) WithSignature(sig StdSignature) SignedTransaction {
	sigs := make([]StdSignature, 0, len(stx.Signatures)+1)
	sigs = append(sigs, stx.Signatures...)
	stx.Signatures = append(sigs, sig)
	return stx
}

// VerifySignature checks a single signature against the transaction. The
// signer must be one of the required signers.
func (stx *SignedTransaction) VerifySignature(sig StdSignature, chainID string) error {
	if !stx.Tx.RequiresSigner(sig.Pubkey) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not a required signer", sig.Pubkey)
	}
	id, err := stx.ID()
	if err != nil {
		return err
	}
	bz, err := BuildSignBytes(id, chainID)
	if err != nil {
		return err
	}
	if !sig.Pubkey.Verify(bz, &sig.Signature) {
		return errors.Wrapf(errors.ErrUnauthorized, "invalid signature of %s", sig.Pubkey)
	}
	return nil
}

// VerifySignatures checks every attached signature. Duplicated signers are
// rejected. It does not require the set to be complete, see
// VerifyRequiredSignatures.
func (stx *SignedTransaction) VerifySignatures(chainID string) error {
	seen := make([]crypto.PublicKey, 0, len(stx.Signatures))
	for _, sig := range stx.Signatures {
		if containsKey(seen, sig.Pubkey) {
			return errors.Wrapf(errors.ErrDuplicate, "signature of %s", sig.Pubkey)
		}
		if err := stx.VerifySignature(sig, chainID); err != nil {
			return err
		}
		seen = append(seen, sig.Pubkey)
	}
	return nil
}

// VerifyRequiredSignatures checks every attached signature and that every
// required signer has signed.
func (stx *SignedTransaction) VerifyRequiredSignatures(chainID string) error {
	if err := stx.VerifySignatures(chainID); err != nil {
		return err
	}
	if missing := stx.MissingSigners(); len(missing) != 0 {
		return errors.Wrapf(errors.ErrUnauthorized, "missing %d signatures, first %s", len(missing), missing[0])
	}
	return nil
}

// Signers returns the keys of all attached signatures.
func (stx *SignedTransaction) Signers() []crypto.PublicKey {
	keys := make([]crypto.PublicKey, len(stx.Signatures))
	for i, s := range stx.Signatures {
		keys[i] = s.Pubkey
	}
	return keys
}

// MissingSigners returns the required signers that did not sign yet, in
// the order they are declared by the command.
func (stx *SignedTransaction) MissingSigners() []crypto.PublicKey {
	signed := stx.Signers()
	var missing []crypto.PublicKey
	for _, k := range stx.Tx.Command.Signers {
		if !containsKey(signed, k) {
			missing = append(missing, k)
		}
	}
	return missing
}

func containsKey(keys []crypto.PublicKey, key crypto.PublicKey) bool {
	for _, k := range keys {
		if k.Equals(key) {
			return true
		}
	}
	return false
}
