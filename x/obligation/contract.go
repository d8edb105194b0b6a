package obligation

import (
	"github.com/iov-one/iou"
	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/errors"
)

func init() {
	iou.RegisterContract(PathIssue, Contract{})
}

// Contract verifies obligation state transitions. Only issuance is
// supported.
type Contract struct{}

var _ iou.Contract = Contract{}

// Verify implements iou.Contract.
func (Contract) Verify(cmd iou.Command, inputs, outputs []iou.State, signers []crypto.PublicKey) error {
	switch c := cmd.(type) {
	case *Issue:
		return verifyIssue(c, inputs, outputs, signers)
	default:
		return errors.Wrapf(errors.ErrValidation, "unsupported command %T", cmd)
	}
}

func verifyIssue(cmd *Issue, inputs, outputs []iou.State, signers []crypto.PublicKey) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if len(inputs) != 0 {
		return errors.Field("Inputs", errors.ErrValidation, "no inputs should be consumed when issuing an obligation")
	}
	if len(outputs) != 1 {
		return errors.Field("Outputs", errors.ErrValidation, "only one output state should be created when issuing an obligation, got %d", len(outputs))
	}
	rec, ok := AsObligation(outputs[0])
	if !ok {
		return errors.Field("Outputs", errors.ErrValidation, "output must be an obligation record, got %T", outputs[0])
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if !rec.Paid.IsZero() {
		return errors.Field("Paid", errors.ErrValidation, "cannot issue an obligation that is partially paid")
	}
	for _, p := range rec.Participants() {
		if !containsKey(signers, p.Key) {
			return errors.Field("Signers", errors.ErrValidation, "%s must sign the issuance", p.Name)
		}
	}
	return nil
}

func containsKey(keys []crypto.PublicKey, key crypto.PublicKey) bool {
	for _, k := range keys {
		if k.Equals(key) {
			return true
		}
	}
	return false
}
