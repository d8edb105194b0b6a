package flow

import (
	"bytes"
	"context"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/x/obligation"
)

// CheckFunc is the counterparty specific acceptance check of a proposal. It
// runs in addition to the contract rules and returns an error to reject.
type CheckFunc func(stx *iou.SignedTransaction) error

// RequireObligation accepts only transactions issuing an obligation.
func RequireObligation(stx *iou.SignedTransaction) error {
	for _, out := range stx.Tx.Outputs {
		if _, ok := obligation.AsObligation(out); ok {
			return nil
		}
	}
	return errors.Wrap(errors.ErrRejected, "This must be an IOU transaction")
}

// Responder is the counterparty side of an issuance.
type Responder struct {
	node  *Node
	check CheckFunc
}

// NewResponder returns a responder acting for node. A nil check defaults
// to RequireObligation.
func NewResponder(node *Node, check CheckFunc) *Responder {
	if check == nil {
		check = RequireObligation
	}
	return &Responder{node: node, check: check}
}

// Handle serves one proposal received through s and returns the
// transaction once it is final and recorded.
//
// A proposal that fails any check is answered with a Rejection and a
// ValidationFailed error is returned. The proposal must arrive within the
// session timeout. Once signed, the responder waits for the finality
// notification for as long as ctx allows, since notarization may take
// any time. If the session ends first, nothing is recorded and a
// SessionError is returned.
func (r *Responder) Handle(ctx context.Context, s Session) (stx *iou.SignedTransaction, err error) {
	defer errors.Recover(&err)
	defer s.Close()

	ctx = iou.WithLogInfo(ctx, "flow", "respond", "party", r.node.Identity.Name, "proposer", s.Counterparty().Name)
	logger := iou.GetLogger(ctx)
	timeout := r.node.Config.SessionTimeout.Duration()

	msg, err := receive(ctx, s, timeout)
	if err != nil {
		return nil, &FlowError{Phase: SessionError, Err: err}
	}
	proposal, ok := msg.(*ProposeIssuance)
	if !ok {
		return nil, &FlowError{Phase: SessionError, Err: errors.Wrapf(errors.ErrSession, "expected a proposal, got %T", msg)}
	}
	txID, err := proposal.Tx.ID()
	if err != nil {
		return nil, &FlowError{Phase: SessionError, Err: errors.Wrap(errors.ErrSession, err.Error())}
	}
	logger = logger.With("tx", txID)

	if err := r.verifyProposal(ctx, s.Counterparty(), &proposal.Tx); err != nil {
		logger.Info("proposal rejected", "err", err)
		if serr := send(ctx, s, &Rejection{Reason: err.Error()}); serr != nil {
			logger.Error("cannot deliver rejection", "err", serr)
		}
		return nil, &FlowError{Phase: ValidationFailed, Err: err}
	}

	sig, err := iou.SignTx(r.node.Signer, &proposal.Tx.Tx, r.node.Config.ChainID)
	if err != nil {
		return nil, &FlowError{Phase: ValidationFailed, Err: err}
	}
	if err := send(ctx, s, &SignatureResponse{Signature: *sig}); err != nil {
		return nil, &FlowError{Phase: SessionError, Err: err}
	}
	logger.Debug("proposal signed")

	msg, err = receive(ctx, s, 0)
	if err != nil {
		logger.Info("proposal abandoned", "err", err)
		return nil, &FlowError{Phase: SessionError, Err: err}
	}
	final, ok := msg.(*FinalityNotification)
	if !ok {
		return nil, &FlowError{Phase: SessionError, Err: errors.Wrapf(errors.ErrSession, "expected a finality notification, got %T", msg)}
	}
	if err := r.verifyFinality(txID, final); err != nil {
		logger.Error("invalid finality notification", "err", err)
		return nil, &FlowError{Phase: ValidationFailed, Err: err}
	}
	if err := r.node.Vault.Record(ctx, &final.Tx); err != nil {
		return nil, &FlowError{Phase: Notarized, Err: err}
	}
	logger.Info("obligation recorded")
	return &final.Tx, nil
}

// verifyProposal runs every check a counterparty does before signing.
func (r *Responder) verifyProposal(ctx context.Context, proposer iou.Party, stx *iou.SignedTransaction) error {
	tx := &stx.Tx
	if err := r.check(stx); err != nil {
		return errors.Wrap(errors.ErrRejected, err.Error())
	}
	if err := iou.VerifyTransaction(tx, nil); err != nil {
		return err
	}
	if err := iou.ResolveParty(ctx, r.node.Identities, tx.Notary); err != nil {
		return errors.Wrap(err, "notary")
	}
	for _, out := range tx.Outputs {
		for _, p := range out.Participants() {
			if err := iou.ResolveParty(ctx, r.node.Identities, p); err != nil {
				return err
			}
		}
	}
	if !tx.RequiresSigner(r.node.Identity.Key) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not a required signer", r.node.Identity.Name)
	}
	if err := stx.VerifySignatures(r.node.Config.ChainID); err != nil {
		return err
	}
	if !containsSigner(stx, proposer) {
		return errors.Wrapf(errors.ErrUnauthorized, "proposal is not signed by %s", proposer.Name)
	}
	return nil
}

func (r *Responder) verifyFinality(txID []byte, final *FinalityNotification) error {
	id, err := final.Tx.ID()
	if err != nil {
		return err
	}
	if !bytes.Equal(id, txID) {
		return errors.Wrapf(errors.ErrUnauthorized, "notification is for transaction %s", id)
	}
	if err := final.Tx.VerifyRequiredSignatures(r.node.Config.ChainID); err != nil {
		return err
	}
	return final.Attestation.Verify(r.node.Config.ChainID, final.Tx.Tx.Notary, id)
}
