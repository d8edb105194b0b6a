package obligation

import (
	"github.com/iov-one/iou"
	"github.com/iov-one/iou/coin"
	"github.com/iov-one/iou/errors"
)

func init() {
	iou.RegisterConcrete(&ObligationRecord{}, "obligation/ObligationRecord")
}

// ObligationRecord states that Borrower owes Lender the Amount, of which
// Paid was already repaid. Records are never modified, every change
// produces a new record.
type ObligationRecord struct {
	Amount   coin.Coin    `json:"amount"`
	Lender   iou.Party    `json:"lender"`
	Borrower iou.Party    `json:"borrower"`
	Paid     coin.Coin    `json:"paid"`
	LinearID iou.LinearID `json:"linear_id"`
}

var _ iou.LinearState = (*ObligationRecord)(nil)

// NewObligation returns a record of a fresh obligation: nothing paid and a
// newly minted linear id.
func NewObligation(amount coin.Coin, lender, borrower iou.Party) *ObligationRecord {
	return &ObligationRecord{
		Amount:   amount,
		Lender:   lender,
		Borrower: borrower,
		Paid:     coin.Zero(amount.Ticker),
		LinearID: iou.NewLinearID(),
	}
}

// Participants returns the lender and the borrower, in that order.
func (r *ObligationRecord) Participants() []iou.Party {
	return []iou.Party{r.Lender, r.Borrower}
}

// GetLinearID implements iou.LinearState.
func (r *ObligationRecord) GetLinearID() iou.LinearID {
	return r.LinearID
}

// Validate ensures the record holds for any version of an obligation. The
// returned error is a field error wrapping errors.ErrValidation.
func (r *ObligationRecord) Validate() error {
	if err := r.Amount.Validate(); err != nil {
		return errors.Field("Amount", errors.ErrValidation, "malformed amount: %s", err)
	}
	if !r.Amount.IsPositive() {
		return errors.Field("Amount", errors.ErrValidation, "amount must be positive, got %s", r.Amount)
	}
	if err := r.Paid.Validate(); err != nil {
		return errors.Field("Paid", errors.ErrValidation, "malformed paid amount: %s", err)
	}
	if !r.Paid.SameType(r.Amount) {
		return errors.Field("Paid", errors.ErrValidation, "paid must be in %s, got %s", r.Amount.Ticker, r.Paid.Ticker)
	}
	if !r.Paid.IsNonNegative() {
		return errors.Field("Paid", errors.ErrValidation, "paid must not be negative")
	}
	if !r.Amount.IsGTE(r.Paid) {
		return errors.Field("Paid", errors.ErrValidation, "paid %s exceeds amount %s", r.Paid, r.Amount)
	}
	if err := r.Lender.Validate(); err != nil {
		return errors.Field("Lender", errors.ErrValidation, "%s", err)
	}
	if err := r.Borrower.Validate(); err != nil {
		return errors.Field("Borrower", errors.ErrValidation, "%s", err)
	}
	if r.Lender.Name == r.Borrower.Name || r.Lender.Key.Equals(r.Borrower.Key) {
		return errors.Field("Borrower", errors.ErrValidation, "the lender and borrower cannot be the same identity")
	}
	if err := r.LinearID.Validate(); err != nil {
		return errors.Field("LinearID", errors.ErrValidation, "%s", err)
	}
	return nil
}

// Outstanding returns the part of the amount that is not paid yet.
func (r *ObligationRecord) Outstanding() (coin.Coin, error) {
	return r.Amount.Subtract(r.Paid)
}

// Pay returns the next version of the obligation with given amount added to
// the paid part. The receiver is not modified.
func (r *ObligationRecord) Pay(amount coin.Coin) (*ObligationRecord, error) {
	if !amount.IsPositive() {
		return nil, errors.Wrapf(errors.ErrInvalidAmount, "payment must be positive, got %s", amount)
	}
	paid, err := r.Paid.Add(amount)
	if err != nil {
		return nil, err
	}
	if !r.Amount.IsGTE(paid) {
		return nil, errors.Wrapf(errors.ErrInvalidAmount, "paying %s exceeds the outstanding amount", amount)
	}
	next := *r
	next.Paid = paid
	return &next, nil
}

// WithNewLender returns the next version of the obligation owed to given
// party. The receiver is not modified.
func (r *ObligationRecord) WithNewLender(lender iou.Party) *ObligationRecord {
	next := *r
	next.Lender = lender
	return &next
}

// AsObligation extracts an *ObligationRecord from a state, or returns false
// if the state is of another type.
func AsObligation(s iou.State) (*ObligationRecord, bool) {
	r, ok := s.(*ObligationRecord)
	return r, ok && r != nil
}
