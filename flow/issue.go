package flow

import (
	"context"
	"sync"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/x/obligation"
	cmn "github.com/tendermint/tendermint/libs/common"
	"golang.org/x/sync/errgroup"
)

// Issue runs the issuance of rec on behalf of node and returns the
// finalized record. On failure the returned error is a *FlowError naming
// the phase the flow ended in.
func Issue(ctx context.Context, node *Node, rec *obligation.ObligationRecord) (*obligation.ObligationRecord, error) {
	stx, err := NewIssueFlow(node, rec).Run(ctx)
	if err != nil {
		return nil, err
	}
	final, _ := obligation.AsObligation(stx.Tx.Outputs[0])
	return final, nil
}

// IssueFlow is the proposer side of an issuance. Its whole progress is held
// in the struct, so it can be inspected at any point with Snapshot.
type IssueFlow struct {
	node   *Node
	output iou.LinearState
	cmd    iou.Command

	mu          sync.Mutex
	phase       Phase
	notary      NotaryClient
	txID        cmn.HexBytes
	stx         *iou.SignedTransaction
	sessions    []Session
	attestation *iou.Attestation
	err         error
}

// NewIssueFlow returns a flow issuing rec. Each flow runs at most once.
func NewIssueFlow(node *Node, rec *obligation.ObligationRecord) *IssueFlow {
	var out iou.LinearState
	if rec != nil {
		out = rec
	}
	return NewIssueFlowOf(node, out, obligation.NewIssue())
}

// NewIssueFlowOf returns a flow issuing any linear state through cmd. The
// participants of out are the required signers.
func NewIssueFlowOf(node *Node, out iou.LinearState, cmd iou.Command) *IssueFlow {
	return &IssueFlow{node: node, output: out, cmd: cmd}
}

// Snapshot is a point in time copy of the flow progress.
type Snapshot struct {
	Phase       Phase
	TxID        cmn.HexBytes
	Tx          *iou.SignedTransaction
	Pending     []iou.Party
	Attestation *iou.Attestation
	Err         error
}

// Snapshot returns the current progress of the flow.
func (f *IssueFlow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := Snapshot{
		Phase:       f.phase,
		TxID:        f.txID,
		Attestation: f.attestation,
		Err:         f.err,
	}
	if f.stx != nil {
		cp := *f.stx
		cp.Signatures = append([]iou.StdSignature(nil), f.stx.Signatures...)
		s.Tx = &cp
		if f.phase == AwaitingSignatures {
			for _, sess := range f.sessions {
				if !containsSigner(f.stx, sess.Counterparty()) {
					s.Pending = append(s.Pending, sess.Counterparty())
				}
			}
		}
	}
	return s
}

func (f *IssueFlow) enter(ctx context.Context, p Phase) {
	f.mu.Lock()
	f.phase = p
	f.mu.Unlock()
	iou.GetLogger(ctx).Debug("phase", "phase", p)
}

func (f *IssueFlow) fail(ctx context.Context, p Phase, err error) error {
	f.mu.Lock()
	f.phase = p
	f.err = err
	sessions := f.sessions
	f.mu.Unlock()

	closeAll(sessions)
	iou.GetLogger(ctx).Info("issuance failed", "phase", p, "err", err)
	return &FlowError{Phase: p, Err: err}
}

// Run drives the flow to a terminal phase.
func (f *IssueFlow) Run(ctx context.Context) (*iou.SignedTransaction, error) {
	f.mu.Lock()
	if f.phase != 0 {
		f.mu.Unlock()
		return nil, errors.Wrapf(errors.ErrInvalidState, "flow already in phase %s", f.phase)
	}
	f.phase = Built
	f.mu.Unlock()

	ctx = iou.WithLogInfo(ctx, "flow", "issue", "party", f.node.Identity.Name)

	if phase, err := f.build(ctx); err != nil {
		return nil, f.fail(ctx, phase, err)
	}
	ctx = iou.WithLogInfo(ctx, "tx", f.txID)
	f.enter(ctx, Built)

	if err := f.selfSign(); err != nil {
		return nil, f.fail(ctx, ValidationFailed, err)
	}
	f.enter(ctx, SelfSigned)

	if phase, err := f.collectSignatures(ctx); err != nil {
		return nil, f.fail(ctx, phase, err)
	}
	f.enter(ctx, FullySigned)

	att, err := Notarize(ctx, f.notary, f.stx)
	if err != nil {
		if errors.ErrConflict.Is(err) {
			return nil, f.fail(ctx, NotarizationConflict, err)
		}
		return nil, f.fail(ctx, SessionError, errors.Wrap(errors.ErrSession, err.Error()))
	}
	f.mu.Lock()
	f.attestation = att
	f.mu.Unlock()
	f.enter(ctx, Notarized)

	Distribute(ctx, f.node.Vault, f.stx, att, f.sessions)
	closeAll(f.sessions)
	f.enter(ctx, Finalized)
	iou.GetLogger(ctx).Info("state issued", "linear_id", f.output.GetLinearID())
	return f.stx, nil
}

// build checks everything that can be checked locally and creates the
// transaction. No session is open yet. Rule violations end the flow in
// ValidationFailed. Failing to reach the vault or a notary is a
// SessionError.
func (f *IssueFlow) build(ctx context.Context) (Phase, error) {
	if f.output == nil {
		return ValidationFailed, errors.Wrap(errors.ErrValidation, "nothing to issue")
	}
	participants := f.output.Participants()
	if !iou.ContainsParty(participants, f.node.Identity) {
		return ValidationFailed, errors.Wrapf(errors.ErrValidation, "%s is not a participant", f.node.Identity.Name)
	}
	for _, p := range participants {
		if err := iou.ResolveParty(ctx, f.node.Identities, p); err != nil {
			return ValidationFailed, errors.Wrap(errors.ErrValidation, err.Error())
		}
	}
	lid := f.output.GetLinearID()
	if known, err := f.node.Vault.HasLinearID(lid); err != nil {
		return SessionError, errors.Wrapf(errors.ErrSession, "vault: %s", err)
	} else if known {
		return ValidationFailed, errors.Wrapf(errors.ErrValidation, "%s was already issued", lid)
	}

	notary, err := f.node.Notaries.SelectNotary(ctx)
	if err != nil {
		return SessionError, errors.Wrapf(errors.ErrSession, "select notary: %s", err)
	}
	tx := &iou.Transaction{
		Notary:  notary.Identity(),
		Outputs: []iou.State{f.output},
		Command: iou.CommandData{Value: f.cmd},
		Salt:    iou.NewSalt(),
	}
	for _, p := range participants {
		tx.Command.Signers = append(tx.Command.Signers, p.Key)
	}
	if err := iou.VerifyTransaction(tx, nil); err != nil {
		return ValidationFailed, err
	}
	id, err := tx.ID()
	if err != nil {
		return ValidationFailed, err
	}

	f.mu.Lock()
	f.notary = notary
	f.txID = id
	f.stx = &iou.SignedTransaction{Tx: *tx}
	f.mu.Unlock()
	return Built, nil
}

func (f *IssueFlow) selfSign() error {
	sig, err := iou.SignTx(f.node.Signer, &f.stx.Tx, f.node.Config.ChainID)
	if err != nil {
		return err
	}
	signed := f.stx.WithSignature(*sig)
	f.mu.Lock()
	f.stx = &signed
	f.mu.Unlock()
	return nil
}

// collectSignatures proposes the transaction to every other participant
// and waits for all answers. Answers are processed in participant order, so
// the outcome does not depend on which counterparty answered first.
func (f *IssueFlow) collectSignatures(ctx context.Context) (Phase, error) {
	counterparties := f.counterparties()
	logger := iou.GetLogger(ctx)

	sessions := make([]Session, 0, len(counterparties))
	for _, p := range counterparties {
		s, err := f.node.Sessions.OpenSession(ctx, p)
		if err != nil {
			closeAll(sessions)
			return SessionError, errors.Wrapf(errors.ErrSession, "open session with %s: %s", p.Name, err)
		}
		sessions = append(sessions, s)
	}
	f.mu.Lock()
	f.sessions = sessions
	proposal := &ProposeIssuance{Tx: *f.stx}
	f.mu.Unlock()
	f.enter(ctx, AwaitingSignatures)

	timeout := f.node.Config.SessionTimeout.Duration()
	answers := make([]Message, len(sessions))
	failures := make([]error, len(sessions))
	var g errgroup.Group
	for i, s := range sessions {
		i, s := i, s
		g.Go(func() error {
			if err := send(ctx, s, proposal); err != nil {
				failures[i] = err
				return nil
			}
			answers[i], failures[i] = receive(ctx, s, timeout)
			return nil
		})
	}
	_ = g.Wait()

	for i, s := range sessions {
		party := s.Counterparty()
		if failures[i] != nil {
			return SessionError, failures[i]
		}
		switch msg := answers[i].(type) {
		case *Rejection:
			logger.Info("proposal rejected", "by", party.Name, "reason", msg.Reason)
			return SignatureRejected, errors.Wrapf(errors.ErrRejected, "%s: %s", party.Name, msg.Reason)
		case *SignatureResponse:
			if err := f.acceptSignature(party, msg.Signature); err != nil {
				return SignatureRejected, errors.Wrapf(errors.ErrRejected, "%s returned an invalid signature: %s", party.Name, err)
			}
		default:
			return SessionError, errors.Wrapf(errors.ErrSession, "unexpected %T from %s", msg, party.Name)
		}
	}

	if err := f.stx.VerifyRequiredSignatures(f.node.Config.ChainID); err != nil {
		return SignatureRejected, errors.Wrap(errors.ErrRejected, err.Error())
	}
	return FullySigned, nil
}

func (f *IssueFlow) acceptSignature(party iou.Party, sig iou.StdSignature) error {
	if !sig.Pubkey.Equals(party.Key) {
		return errors.Wrapf(errors.ErrUnauthorized, "signed with %s", sig.Pubkey)
	}
	if err := f.stx.VerifySignature(sig, f.node.Config.ChainID); err != nil {
		return err
	}
	signed := f.stx.WithSignature(sig)
	f.mu.Lock()
	f.stx = &signed
	f.mu.Unlock()
	return nil
}

// counterparties returns the participants other than this node, without
// duplicates, in participant order.
func (f *IssueFlow) counterparties() []iou.Party {
	var res []iou.Party
	for _, p := range f.output.Participants() {
		if p.Key.Equals(f.node.Identity.Key) || iou.ContainsParty(res, p) {
			continue
		}
		res = append(res, p)
	}
	return res
}

func containsSigner(stx *iou.SignedTransaction, p iou.Party) bool {
	for _, s := range stx.Signatures {
		if s.Pubkey.Equals(p.Key) {
			return true
		}
	}
	return false
}
