package iou

import (
	"bytes"
	"crypto/sha512"
	"encoding/binary"

	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
)

// AttestCodeV1 prefixes the bytes a notary signs, so that an attestation
// signature can never be mistaken for a transaction signature.
var AttestCodeV1 = []byte{0, 0xA7, 0x7E, 0}

// Attestation is the proof, signed by a notary, that a transaction was
// recorded in its uniqueness index at given index version.
type Attestation struct {
	Notary    Party            `json:"notary"`
	TxID      cmn.HexBytes     `json:"tx_id"`
	Version   int64            `json:"version"`
	IndexHash cmn.HexBytes     `json:"index_hash"`
	Signature crypto.Signature `json:"signature"`
}

// AttestationSignBytes returns the bytes a notary signs for an attestation.
func AttestationSignBytes(chainID string, txID, indexHash []byte, version int64) ([]byte, error) {
	if !IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "chain id: %v", chainID)
	}
	ver := make([]byte, 8)
	binary.BigEndian.PutUint64(ver, uint64(version))

	output := make([]byte, 0, len(AttestCodeV1)+1+len(chainID)+len(txID)+8+len(indexHash))
	output = append(output, AttestCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, []byte(chainID)...)
	output = append(output, txID...)
	output = append(output, ver...)
	output = append(output, indexHash...)

	hashed := sha512.Sum512(output)
	return hashed[:], nil
}

// Verify checks that the attestation was signed by the expected notary for
// the expected transaction.
func (a *Attestation) Verify(chainID string, notary Party, txID []byte) error {
	if a == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing attestation")
	}
	if !a.Notary.Equals(notary) {
		return errors.Wrapf(errors.ErrUnauthorized, "attested by %s, want %s", a.Notary.Name, notary.Name)
	}
	if !bytes.Equal(a.TxID, txID) {
		return errors.Wrapf(errors.ErrUnauthorized, "attestation is for transaction %s", a.TxID)
	}
	bz, err := AttestationSignBytes(chainID, a.TxID, a.IndexHash, a.Version)
	if err != nil {
		return err
	}
	if !a.Notary.Key.Verify(bz, &a.Signature) {
		return errors.Wrap(errors.ErrUnauthorized, "invalid notary signature")
	}
	return nil
}
