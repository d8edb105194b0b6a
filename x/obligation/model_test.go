package obligation_test

import (
	"testing"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/coin"
	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/iotest"
	"github.com/iov-one/iou/x/obligation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestObligationRecord(t *testing.T) {
	alice := iotest.DerivedIdentity(t, "Alice", 0)
	bob := iotest.DerivedIdentity(t, "Bob", 1)
	carol := iotest.DerivedIdentity(t, "Carol", 2)

	Convey("Given a fresh obligation of 100 USD", t, func() {
		rec := obligation.NewObligation(coin.NewCoin(100, 0, "USD"), alice.Party, bob.Party)

		Convey("It starts with nothing paid in the same currency", func() {
			So(rec.Paid, ShouldResemble, coin.Zero("USD"))
			So(rec.Validate(), ShouldBeNil)
		})

		Convey("Participants are the lender then the borrower", func() {
			So(rec.Participants(), ShouldResemble, []iou.Party{alice.Party, bob.Party})
		})

		Convey("Each record gets its own linear id", func() {
			other := obligation.NewObligation(coin.NewCoin(100, 0, "USD"), alice.Party, bob.Party)
			So(rec.LinearID.Validate(), ShouldBeNil)
			So(other.LinearID, ShouldNotEqual, rec.LinearID)
		})

		Convey("Paying produces a new version and leaves the original intact", func() {
			next, err := rec.Pay(coin.NewCoin(40, 0, "USD"))
			So(err, ShouldBeNil)
			So(next.Paid, ShouldResemble, coin.NewCoin(40, 0, "USD"))
			So(next.LinearID, ShouldEqual, rec.LinearID)
			So(rec.Paid.IsZero(), ShouldBeTrue)

			left, err := next.Outstanding()
			So(err, ShouldBeNil)
			So(left, ShouldResemble, coin.NewCoin(60, 0, "USD"))
		})

		Convey("Paying more than owed fails", func() {
			_, err := rec.Pay(coin.NewCoin(100, 1, "USD"))
			So(errors.ErrInvalidAmount.Is(err), ShouldBeTrue)
		})

		Convey("Paying in another currency fails", func() {
			_, err := rec.Pay(coin.NewCoin(1, 0, "EUR"))
			So(errors.ErrCurrency.Is(err), ShouldBeTrue)
		})

		Convey("Paying nothing fails", func() {
			_, err := rec.Pay(coin.Zero("USD"))
			So(errors.ErrInvalidAmount.Is(err), ShouldBeTrue)
		})

		Convey("A new lender produces a new version sharing the linear id", func() {
			next := rec.WithNewLender(carol.Party)
			So(next.Lender, ShouldResemble, carol.Party)
			So(next.LinearID, ShouldEqual, rec.LinearID)
			So(rec.Lender, ShouldResemble, alice.Party)
		})
	})
}
