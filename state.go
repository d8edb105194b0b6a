package iou

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iov-one/iou/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
)

// State is a fact recorded on the ledger. States are immutable: a new
// version of a fact is a new State that consumes the previous one.
type State interface {
	// Participants returns every party that must be informed of, and
	// usually consent to, a transaction involving this state.
	Participants() []Party
}

// LinearState is a State that evolves over time. All versions share the
// same LinearID.
type LinearState interface {
	State
	GetLinearID() LinearID
}

// LinearID identifies all versions of one logical fact over its lifetime.
type LinearID string

// NewLinearID mints a fresh random identifier.
func NewLinearID() LinearID {
	return LinearID(uuid.New().String())
}

// Validate returns an error if the id is not a canonical UUID.
func (id LinearID) Validate() error {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "linear id %q", string(id))
	}
	if u.String() != string(id) {
		return errors.Wrapf(errors.ErrInvalidInput, "linear id %q is not canonical", string(id))
	}
	return nil
}

// StateRef points to an output of a recorded transaction.
type StateRef struct {
	TxID  cmn.HexBytes `json:"tx_id"`
	Index int64        `json:"index"`
}

func (r StateRef) String() string {
	return fmt.Sprintf("%s(%d)", r.TxID, r.Index)
}

// Validate returns an error if the reference cannot point to any output.
func (r StateRef) Validate() error {
	if len(r.TxID) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "missing transaction id")
	}
	if r.Index < 0 {
		return errors.Wrap(errors.ErrInvalidInput, "negative index")
	}
	return nil
}
