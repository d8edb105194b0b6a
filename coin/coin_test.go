package coin

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/iotest/assert"
)

func TestCompareCoin(t *testing.T) {
	cases := map[string]struct {
		a       Coin
		b       Coin
		wantRes int
	}{
		"a greater than b": {
			a:       NewCoin(20, 1234, "ABC"),
			b:       NewCoin(19, 999999999, "ABC"),
			wantRes: 1,
		},
		"a smaller than b": {
			a:       NewCoin(0, -2, "FOO"),
			b:       NewCoin(0, 1, "FOO"),
			wantRes: -1,
		},
		"a greater than b and both negative": {
			a:       NewCoin(-4, -2456, "BAR"),
			b:       NewCoin(-4, -4567, "BAR"),
			wantRes: 1,
		},
		"zero value coins": {
			a:       Coin{},
			b:       Coin{},
			wantRes: 0,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.wantRes, tc.a.Compare(tc.b))
		})
	}
}

func TestCoinArithmetic(t *testing.T) {
	a := NewCoin(10, 600000000, "USD")
	b := NewCoin(2, 500000000, "USD")

	sum, err := a.Add(b)
	assert.Nil(t, err)
	assert.Equal(t, NewCoin(13, 100000000, "USD"), sum)

	diff, err := b.Subtract(a)
	assert.Nil(t, err)
	assert.Equal(t, NewCoin(-8, -100000000, "USD"), diff)

	if nn := a.Negative().Negative(); !a.Equals(nn) {
		t.Fatal("double negation malformed the coin")
	}

	_, err = a.Add(NewCoin(1, 0, "EUR"))
	assert.IsErr(t, errors.ErrCurrency, err)

	_, err = NewCoin(MaxInt, 0, "USD").Add(NewCoin(1, 0, "USD"))
	assert.IsErr(t, errors.ErrOverflow, err)
}

func TestCoinPredicates(t *testing.T) {
	zero := Zero("USD")
	if !zero.IsZero() || zero.IsPositive() || !zero.IsNonNegative() {
		t.Fatal("zero coin predicates are wrong")
	}
	one := NewCoin(0, 1, "USD")
	if !one.IsPositive() || !one.IsGTE(zero) || zero.IsGTE(one) {
		t.Fatal("smallest positive coin predicates are wrong")
	}
	if one.IsGTE(NewCoin(0, 1, "EUR")) {
		t.Fatal("different currencies must not compare")
	}
}

func TestCoinValidate(t *testing.T) {
	cases := map[string]struct {
		coin    Coin
		wantErr *errors.Error
	}{
		"valid":            {coin: NewCoin(100, 0, "USD"), wantErr: nil},
		"negative allowed": {coin: NewCoin(-1, -5, "USD"), wantErr: nil},
		"missing ticker":   {coin: NewCoin(1, 0, ""), wantErr: errors.ErrCurrency},
		"lower ticker":     {coin: NewCoin(1, 0, "usd"), wantErr: errors.ErrCurrency},
		"whole overflow":   {coin: NewCoin(MaxInt+1, 0, "USD"), wantErr: errors.ErrOverflow},
		"frac overflow":    {coin: NewCoin(1, FracUnit, "USD"), wantErr: errors.ErrOverflow},
		"mismatched sign":  {coin: NewCoin(1, -1, "USD"), wantErr: errors.ErrInvalidAmount},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.coin.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %v, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestParseHumanFormat(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    Coin
		wantErr bool
	}{
		"whole only":      {raw: "100 USD", want: NewCoin(100, 0, "USD")},
		"with fraction":   {raw: "1.5 EUR", want: NewCoin(1, 500000000, "EUR")},
		"no space":        {raw: "7.000000001GBP", want: NewCoin(7, 1, "GBP")},
		"negative":        {raw: "-0.25 USD", want: NewCoin(0, -250000000, "USD")},
		"missing ticker":  {raw: "100", wantErr: true},
		"too precise":     {raw: "1.0000000001 USD", wantErr: true},
		"garbage":         {raw: "one hundred USD", wantErr: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseHumanFormat(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("want error, got %v", got)
				}
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
			// String output can always be parsed back.
			again, err := ParseHumanFormat(got.String())
			assert.Nil(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestCoinJSON(t *testing.T) {
	raw, err := json.Marshal(NewCoin(3, 250000000, "USD"))
	assert.Nil(t, err)
	assert.Equal(t, `"3.25 USD"`, string(raw))

	var c Coin
	assert.Nil(t, json.Unmarshal(raw, &c))
	assert.Equal(t, NewCoin(3, 250000000, "USD"), c)

	if err := json.Unmarshal([]byte(`{"whole": 1}`), &c); err == nil {
		t.Fatal("object form must be rejected")
	}
}
