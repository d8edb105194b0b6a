package iou_test

import (
	"testing"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/iotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attest(t *testing.T, notary iotest.Identity, txID []byte, version int64) *iou.Attestation {
	t.Helper()
	indexHash := make([]byte, 32)
	bz, err := iou.AttestationSignBytes(testChainID, txID, indexHash, version)
	require.NoError(t, err)
	sig, err := notary.Signer.Sign(bz)
	require.NoError(t, err)
	return &iou.Attestation{
		Notary:    notary.Party,
		TxID:      txID,
		Version:   version,
		IndexHash: indexHash,
		Signature: *sig,
	}
}

func TestAttestationVerify(t *testing.T) {
	f := newTxFixture(t)
	txID, err := f.tx.ID()
	require.NoError(t, err)

	a := attest(t, f.notary, txID, 3)
	require.NoError(t, a.Verify(testChainID, f.notary.Party, txID))

	cases := map[string]func() error{
		"missing": func() error {
			var none *iou.Attestation
			return none.Verify(testChainID, f.notary.Party, txID)
		},
		"unexpected notary": func() error {
			return a.Verify(testChainID, f.alice.Party, txID)
		},
		"other transaction": func() error {
			return a.Verify(testChainID, f.notary.Party, make([]byte, 32))
		},
		"other chain": func() error {
			return a.Verify("other-chain", f.notary.Party, txID)
		},
		"tampered version": func() error {
			b := *a
			b.Version = 4
			return b.Verify(testChainID, f.notary.Party, txID)
		},
		"signed by impostor": func() error {
			b := attest(t, f.alice, txID, 3)
			b.Notary = f.notary.Party
			return b.Verify(testChainID, f.notary.Party, txID)
		},
	}
	for testName, verify := range cases {
		t.Run(testName, func(t *testing.T) {
			err := verify()
			assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)
		})
	}
}

func TestAttestationSignBytesDifferFromTxSignBytes(t *testing.T) {
	f := newTxFixture(t)
	txID, err := f.tx.ID()
	require.NoError(t, err)

	txBytes, err := iou.BuildSignBytes(txID, testChainID)
	require.NoError(t, err)
	attBytes, err := iou.AttestationSignBytes(testChainID, txID, nil, 0)
	require.NoError(t, err)
	assert.NotEqual(t, txBytes, attBytes)
}
