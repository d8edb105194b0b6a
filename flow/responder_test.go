package flow_test

import (
	"context"
	"testing"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/flow"
	"github.com/iov-one/iou/iotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// propose opens a session from proposer to responder, sends a proposal of
// tx signed by given identities and returns the answer.
func propose(t *testing.T, tn *testNet, proposer, responder *party, tx *iou.Transaction, by ...iotest.Identity) (flow.Session, flow.Message) {
	t.Helper()
	ctx := context.Background()
	s, err := tn.net.Opener(proposer.Party).OpenSession(ctx, responder.Party)
	require.NoError(t, err)
	stx := iotest.SignTx(t, chainID, tx, by...)
	require.NoError(t, s.Send(ctx, &flow.ProposeIssuance{Tx: *stx}))
	answer, err := s.Receive(ctx)
	require.NoError(t, err)
	return s, answer
}

func TestResponderRejects(t *testing.T) {
	tn := newTestNet(t, "Alice", "Bob", "Carol")
	a, b, c := tn.party("Alice"), tn.party("Bob"), tn.party("Carol")
	mallory := iotest.NewIdentity("Mallory")

	cases := map[string]struct {
		tx         func() *iou.Transaction
		signers    []iotest.Identity
		wantReason string
	}{
		"invalid obligation": {
			tx: func() *iou.Transaction {
				rec := iotest.NewRecord(t, "100 USD", a.Party, b.Party)
				rec.Paid = rec.Amount
				return iotest.IssueTx(tn.notaryID.Party, rec)
			},
			signers:    []iotest.Identity{a.Identity},
			wantReason: "partially paid",
		},
		"not signed by the proposer": {
			tx: func() *iou.Transaction {
				rec := iotest.NewRecord(t, "100 USD", c.Party, b.Party)
				return iotest.IssueTx(tn.notaryID.Party, rec)
			},
			signers:    []iotest.Identity{c.Identity},
			wantReason: "not signed by Alice",
		},
		"responder is not a signer": {
			tx: func() *iou.Transaction {
				rec := iotest.NewRecord(t, "100 USD", a.Party, c.Party)
				return iotest.IssueTx(tn.notaryID.Party, rec)
			},
			signers:    []iotest.Identity{a.Identity},
			wantReason: "Bob is not a required signer",
		},
		"unknown participant": {
			tx: func() *iou.Transaction {
				rec := iotest.NewRecord(t, "100 USD", a.Party, mallory.Party)
				tx := iotest.IssueTx(tn.notaryID.Party, rec)
				tx.Command.Signers = append(tx.Command.Signers, b.Key)
				return tx
			},
			signers:    []iotest.Identity{a.Identity},
			wantReason: "Mallory",
		},
		"unknown notary": {
			tx: func() *iou.Transaction {
				rec := iotest.NewRecord(t, "100 USD", a.Party, b.Party)
				return iotest.IssueTx(mallory.Party, rec)
			},
			signers:    []iotest.Identity{a.Identity},
			wantReason: "notary",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			s, answer := propose(t, tn, a, b, tc.tx(), tc.signers...)
			defer s.Close()
			rejection, ok := answer.(*flow.Rejection)
			require.True(t, ok, "want rejection, got %T", answer)
			assert.Contains(t, rejection.Reason, tc.wantReason)
		})
	}
	tn.net.Wait()

	for _, r := range b.responses() {
		assert.Equal(t, flow.ValidationFailed, flow.PhaseOf(r.err))
		assert.Nil(t, r.tx)
	}
	obligations, err := b.vault.Obligations()
	require.NoError(t, err)
	assert.Empty(t, obligations)
}

func TestResponderVerifiesFinality(t *testing.T) {
	tn := newTestNet(t, "Alice", "Bob")
	a, b := tn.party("Alice"), tn.party("Bob")
	ctx := context.Background()
	impostor := iotest.NewIdentity("Notary")

	cases := map[string]func(stx *iou.SignedTransaction, att *iou.Attestation) *flow.FinalityNotification{
		"missing signature": func(stx *iou.SignedTransaction, att *iou.Attestation) *flow.FinalityNotification {
			partial := *stx
			partial.Signatures = partial.Signatures[:1]
			return &flow.FinalityNotification{Tx: partial, Attestation: *att}
		},
		"attested by someone else": func(stx *iou.SignedTransaction, att *iou.Attestation) *flow.FinalityNotification {
			forged := *att
			forged.Notary = impostor.Party
			return &flow.FinalityNotification{Tx: *stx, Attestation: forged}
		},
		"forged attestation signature": func(stx *iou.SignedTransaction, att *iou.Attestation) *flow.FinalityNotification {
			forged := *att
			forged.Version++
			return &flow.FinalityNotification{Tx: *stx, Attestation: forged}
		},
		"another transaction": func(stx *iou.SignedTransaction, att *iou.Attestation) *flow.FinalityNotification {
			other := iotest.NewRecord(t, "1 USD", a.Party, b.Party)
			otherTx := iotest.SignTx(t, chainID, iotest.IssueTx(tn.notaryID.Party, other), a.Identity, b.Identity)
			return &flow.FinalityNotification{Tx: *otherTx, Attestation: *att}
		},
	}

	for testName, corrupt := range cases {
		t.Run(testName, func(t *testing.T) {
			rec := iotest.NewRecord(t, "100 USD", a.Party, b.Party)
			tx := iotest.IssueTx(tn.notaryID.Party, rec)
			s, answer := propose(t, tn, a, b, tx, a.Identity)
			defer s.Close()

			resp, ok := answer.(*flow.SignatureResponse)
			require.True(t, ok, "want signature, got %T", answer)
			stx := iotest.SignTx(t, chainID, tx, a.Identity).WithSignature(resp.Signature)
			id := mustID(t, &stx)
			att, err := tn.notary.Notarize(ctx, id, nil, &stx)
			require.NoError(t, err)

			require.NoError(t, s.Send(ctx, corrupt(&stx, att)))
			tn.net.Wait()

			responses := b.responses()
			last := responses[len(responses)-1]
			assert.Nil(t, last.tx)
			assert.Equal(t, flow.ValidationFailed, flow.PhaseOf(last.err))
			assertNotRecorded(t, rec.LinearID, b)
		})
	}
}

func TestResponderUnexpectedMessage(t *testing.T) {
	tn := newTestNet(t, "Alice", "Bob")
	a, b := tn.party("Alice"), tn.party("Bob")
	ctx := context.Background()

	s, err := tn.net.Opener(a.Party).OpenSession(ctx, b.Party)
	require.NoError(t, err)
	require.NoError(t, s.Send(ctx, &flow.Rejection{Reason: "hello?"}))
	tn.net.Wait()
	require.NoError(t, s.Close())

	responses := b.responses()
	require.Len(t, responses, 1)
	assert.Equal(t, flow.SessionError, flow.PhaseOf(responses[0].err))
	assert.True(t, errors.ErrSession.Is(responses[0].err))
}

func TestResponderRecoversFromPanic(t *testing.T) {
	tn := newTestNet(t, "Alice", "Bob")
	a, b := tn.party("Alice"), tn.party("Bob")
	b.setCheck(func(*iou.SignedTransaction) error {
		panic("check exploded")
	})

	rec := iotest.NewRecord(t, "100 USD", a.Party, b.Party)
	_, err := flow.Issue(context.Background(), a.node, rec)
	tn.net.Wait()

	assert.Equal(t, flow.SessionError, flow.PhaseOf(err), "the proposer sees the session end")
	responses := b.responses()
	require.Len(t, responses, 1)
	assert.True(t, errors.ErrPanic.Is(responses[0].err))
}

func TestRequireObligation(t *testing.T) {
	alice := iotest.DerivedIdentity(t, "Alice", 0)
	bob := iotest.DerivedIdentity(t, "Bob", 1)

	rec := iotest.NewRecord(t, "100 USD", alice.Party, bob.Party)
	stx := &iou.SignedTransaction{Tx: *iotest.IssueTx(alice.Party, rec)}
	assert.NoError(t, flow.RequireObligation(stx))

	stx.Tx.Outputs = []iou.State{newTicket(alice.Party)}
	err := flow.RequireObligation(stx)
	assert.True(t, errors.ErrRejected.Is(err))
	assert.Contains(t, err.Error(), "This must be an IOU transaction")
}
