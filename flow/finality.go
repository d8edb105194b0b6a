package flow

import (
	"context"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
	"golang.org/x/sync/errgroup"
)

// Notarize submits a fully signed transaction to its notary and returns
// the attestation. A notary error is returned as is.
//
// Once Notarize succeeded the transaction is final, whatever happens to
// its distribution.
func Notarize(ctx context.Context, notary NotaryClient, stx *iou.SignedTransaction) (*iou.Attestation, error) {
	txID, err := stx.ID()
	if err != nil {
		return nil, err
	}
	att, err := notary.Notarize(ctx, txID, stx.Tx.Inputs, stx)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, errors.Wrap(errors.ErrHuman, "notary returned no attestation")
	}
	return att, nil
}

// Distribute records a notarized transaction in the vault and sends it
// with its attestation to every session.
//
// Failures are logged, not returned. The transaction is already final and
// nothing can be rolled back at this point.
func Distribute(ctx context.Context, vault Vault, stx *iou.SignedTransaction, att *iou.Attestation, sessions []Session) {
	logger := iou.GetLogger(ctx)

	if err := vault.Record(ctx, stx); err != nil {
		logger.Error("cannot record finalized transaction", "err", err)
	}

	note := &FinalityNotification{Tx: *stx, Attestation: *att}
	var g errgroup.Group
	for _, s := range sessions {
		s := s
		g.Go(func() error {
			if err := send(ctx, s, note); err != nil {
				logger.Error("cannot deliver finality notification", "party", s.Counterparty().Name, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
