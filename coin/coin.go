/*
Package coin implements the fixed point monetary amount used for the value
of an obligation and the part of it already repaid.
*/
package coin

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/iov-one/iou/errors"
)

// IsCC is the RegExp to ensure valid currency codes
var IsCC = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

const (
	// MaxInt is the largest whole value we accept
	MaxInt int64 = 999999999999999 // 10^15-1
	// MinInt is the lowest whole value we accept
	MinInt = -MaxInt

	// FracUnit is the smallest numbers we divide by
	FracUnit int64 = 1000000000 // fractional units = 10^9
	// MaxFrac is the highest possible fractional value
	MaxFrac = FracUnit - 1
	// MinFrac is the lowest possible fractional value
	MinFrac = -MaxFrac
)

// Coin is an amount of a single currency. The value is Whole +
// Fractional/FracUnit and both parts always carry the same sign.
type Coin struct {
	Whole      int64  `json:"whole"`
	Fractional int64  `json:"fractional"`
	Ticker     string `json:"ticker"`
}

// NewCoin creates a new coin object
func NewCoin(whole int64, fractional int64, ticker string) Coin {
	return Coin{
		Whole:      whole,
		Fractional: fractional,
		Ticker:     ticker,
	}
}

// Zero returns a coin of given currency that represents no value.
func Zero(ticker string) Coin {
	return Coin{Ticker: ticker}
}

// Add combines two coins.
// Returns error if they are of different
// currencies, or if the combination would cause
// an overflow
func (c Coin) Add(o Coin) (Coin, error) {
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "adding %s to %s", o.Ticker, c.Ticker)
	}
	c.Whole += o.Whole
	c.Fractional += o.Fractional
	return c.normalize()
}

// Negative returns the opposite coins value
//   c.Add(c.Negative()).IsZero() == true
func (c Coin) Negative() Coin {
	return Coin{
		Ticker:     c.Ticker,
		Whole:      -1 * c.Whole,
		Fractional: -1 * c.Fractional,
	}
}

// Subtract given amount.
func (c Coin) Subtract(amount Coin) (Coin, error) {
	return c.Add(amount.Negative())
}

// Compare will check values of two coins, without
// inspecting the currency code. It is up to the caller
// to determine if they want to check this.
// It also assumes they were already normalized.
//
// Returns 1 if c is larger, -1 if o is larger, 0 if equal
func (c Coin) Compare(o Coin) int {
	switch {
	case c.Whole > o.Whole:
		return 1
	case c.Whole < o.Whole:
		return -1
	case c.Fractional > o.Fractional:
		return 1
	case c.Fractional < o.Fractional:
		return -1
	default:
		return 0
	}
}

// Equals returns true if all fields are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker &&
		c.Whole == o.Whole &&
		c.Fractional == o.Fractional
}

// IsZero returns true amounts are 0
func (c Coin) IsZero() bool {
	return c.Whole == 0 && c.Fractional == 0
}

// IsPositive returns true if the value is greater than 0
func (c Coin) IsPositive() bool {
	return c.Whole > 0 ||
		(c.Whole == 0 && c.Fractional > 0)
}

// IsNonNegative returns true if the value is 0 or higher
func (c Coin) IsNonNegative() bool {
	return c.Whole >= 0 && c.Fractional >= 0
}

// IsGTE returns true if c is same type and at least
// as large as o.
// It assumes they were already normalized.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Compare(o) >= 0
}

// SameType returns true if they have the same currency
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Validate ensures that the coin is in the valid range
// and valid currency code. It accepts negative values,
// so you may want to make other checks in your business
// logic
func (c Coin) Validate() error {
	if !IsCC(c.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "invalid currency: %q", c.Ticker)
	}
	if c.Whole < MinInt || c.Whole > MaxInt {
		return errors.Wrap(errors.ErrOverflow, "whole")
	}
	if c.Fractional < MinFrac || c.Fractional > MaxFrac {
		return errors.Wrap(errors.ErrOverflow, "fractional")
	}
	if c.Whole != 0 && c.Fractional != 0 && ((c.Whole > 0) != (c.Fractional > 0)) {
		return errors.Wrap(errors.ErrInvalidAmount, "mismatched sign")
	}
	return nil
}

// normalize will adjust the fractional parts to
// correspond to the range and the integer parts.
//
// If the normalized coin is outside of the range,
// returns an error
func (c Coin) normalize() (Coin, error) {
	for c.Fractional < MinFrac {
		c.Whole--
		c.Fractional += FracUnit
	}
	for c.Fractional > MaxFrac {
		c.Whole++
		c.Fractional -= FracUnit
	}

	// make sure the signs correspond
	if (c.Whole > 0) && (c.Fractional < 0) {
		c.Whole--
		c.Fractional += FracUnit
	} else if (c.Whole < 0) && (c.Fractional > 0) {
		c.Whole++
		c.Fractional -= FracUnit
	}

	if c.Whole < MinInt || c.Whole > MaxInt {
		return Coin{}, errors.ErrOverflow
	}
	return c, nil
}

// String provides a human readable representation of the coin, in the
// format accepted by ParseHumanFormat.
func (c Coin) String() string {
	var b bytes.Buffer

	if n, err := c.normalize(); err == nil {
		c = n
	}
	if c.Whole == 0 && c.Fractional < 0 {
		io.WriteString(&b, "-")
	}
	io.WriteString(&b, strconv.FormatInt(c.Whole, 10))

	if f := c.Fractional; f != 0 {
		if f < 0 {
			f = -f
		}
		s := strconv.FormatInt(f, 10)
		// Add leading zeros to convert it to a floating point number.
		s = "." + strings.Repeat("0", 9-len(s)) + s
		// Remove trailing zeros as they provide no information.
		io.WriteString(&b, strings.TrimRight(s, "0"))
	}

	if c.Ticker != "" {
		io.WriteString(&b, " "+c.Ticker)
	}
	return b.String()
}

// MarshalJSON encodes the coin using the human readable format.
func (c Coin) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the human readable string format.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "coin must be a string")
	}
	parsed, err := ParseHumanFormat(human)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var humanCoinFormatRx = regexp.MustCompile(`^(\-?)\s*(\d+)(?:\.(\d{1,9}))?\s*([A-Z]{3,4})$`)

// ParseHumanFormat parse a human readable coin representation. Accepted format
// is a string:
//   "<whole>[.<fractional>] <ticker>"
func ParseHumanFormat(h string) (Coin, error) {
	m := humanCoinFormatRx.FindStringSubmatch(strings.TrimSpace(h))
	if m == nil {
		return Coin{}, errors.Wrapf(errors.ErrInvalidInput, "invalid coin format %q", h)
	}

	whole, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Coin{}, errors.Wrapf(errors.ErrInvalidInput, "invalid whole value: %s", err)
	}
	var fract int64
	if m[3] != "" {
		// Right pad to the full precision, so that ".5" becomes 500000000.
		fract, err = strconv.ParseInt(m[3]+strings.Repeat("0", 9-len(m[3])), 10, 64)
		if err != nil {
			return Coin{}, errors.Wrapf(errors.ErrInvalidInput, "invalid fractional value: %s", err)
		}
	}
	if m[1] == "-" {
		whole = -whole
		fract = -fract
	}
	c := Coin{Whole: whole, Fractional: fract, Ticker: m[4]}
	return c, c.Validate()
}

// MustParse is ParseHumanFormat that panics on invalid input. Use it for
// constants and in tests.
func MustParse(h string) Coin {
	c, err := ParseHumanFormat(h)
	if err != nil {
		panic(err)
	}
	return c
}
