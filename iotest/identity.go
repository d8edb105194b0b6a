/*
Package iotest provides helpers to set up parties, records and networks in
tests.
*/
package iotest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/coin"
	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/x/obligation"
)

// testSeed is the master seed every derived test identity comes from.
var testSeed = bytes.Repeat([]byte{0x1d}, 64)

// Identity is a party together with its signing key.
type Identity struct {
	iou.Party
	Signer *crypto.PrivateKey
}

// NewIdentity returns an identity with a random key.
func NewIdentity(name string) Identity {
	key := crypto.GenPrivKeyEd25519()
	return Identity{Party: iou.NewParty(name, key.PublicKey()), Signer: key}
}

// DerivedIdentity returns an identity whose key is derived from a fixed
// test seed at given account index. The same index always gives the same
// key.
func DerivedIdentity(t testing.TB, name string, account uint32) Identity {
	t.Helper()
	path := fmt.Sprintf("%s/%d'", crypto.DefaultPathPrefix, account)
	key, err := crypto.DeriveKey(testSeed, path)
	if err != nil {
		t.Fatalf("cannot derive key for %q: %s", name, err)
	}
	return Identity{Party: iou.NewParty(name, key.PublicKey()), Signer: key}
}

// NewRecord returns a fresh obligation of given human readable amount, for
// example "100 USD".
func NewRecord(t testing.TB, amount string, lender, borrower iou.Party) *obligation.ObligationRecord {
	t.Helper()
	c, err := coin.ParseHumanFormat(amount)
	if err != nil {
		t.Fatalf("cannot parse amount %q: %s", amount, err)
	}
	return obligation.NewObligation(c, lender, borrower)
}

// IssueTx returns a freshly salted transaction issuing rec through given
// notary. The participants of rec are the required signers.
func IssueTx(notary iou.Party, rec *obligation.ObligationRecord) *iou.Transaction {
	var signers []crypto.PublicKey
	for _, p := range rec.Participants() {
		signers = append(signers, p.Key)
	}
	return &iou.Transaction{
		Notary:  notary,
		Outputs: []iou.State{rec},
		Command: iou.CommandData{Value: obligation.NewIssue(), Signers: signers},
		Salt:    iou.NewSalt(),
	}
}

// SignTx signs tx by all given identities.
func SignTx(t testing.TB, chainID string, tx *iou.Transaction, by ...Identity) *iou.SignedTransaction {
	t.Helper()
	stx := iou.SignedTransaction{Tx: *tx}
	for _, id := range by {
		sig, err := iou.SignTx(id.Signer, tx, chainID)
		if err != nil {
			t.Fatalf("%s cannot sign: %s", id.Name, err)
		}
		stx = stx.WithSignature(*sig)
	}
	return &stx
}
