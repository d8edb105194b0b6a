package flow

import (
	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
)

func init() {
	iou.RegisterInterface((*Message)(nil))
	iou.RegisterConcrete(&ProposeIssuance{}, "flow/ProposeIssuance")
	iou.RegisterConcrete(&SignatureResponse{}, "flow/SignatureResponse")
	iou.RegisterConcrete(&Rejection{}, "flow/Rejection")
	iou.RegisterConcrete(&FinalityNotification{}, "flow/FinalityNotification")
}

// Message is anything sent over a session.
type Message interface {
	Validate() error
}

// ProposeIssuance asks the counterparty to sign a transaction. The
// transaction carries the proposer's signature.
type ProposeIssuance struct {
	Tx iou.SignedTransaction `json:"tx"`
}

// Validate implements Message.
func (m *ProposeIssuance) Validate() error {
	if len(m.Tx.Signatures) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "proposal is not signed")
	}
	return m.Tx.Tx.Validate()
}

// SignatureResponse carries the counterparty signature of a proposal.
type SignatureResponse struct {
	Signature iou.StdSignature `json:"signature"`
}

// Validate implements Message.
func (m *SignatureResponse) Validate() error {
	return m.Signature.Pubkey.Validate()
}

// Rejection declines a proposal.
type Rejection struct {
	Reason string `json:"reason"`
}

// Validate implements Message.
func (m *Rejection) Validate() error {
	if m.Reason == "" {
		return errors.Wrap(errors.ErrInvalidInput, "missing reason")
	}
	return nil
}

// FinalityNotification delivers the notarized, fully signed transaction.
type FinalityNotification struct {
	Tx          iou.SignedTransaction `json:"tx"`
	Attestation iou.Attestation       `json:"attestation"`
}

// Validate implements Message.
func (m *FinalityNotification) Validate() error {
	if len(m.Attestation.TxID) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "missing attestation")
	}
	return m.Tx.Tx.Validate()
}
