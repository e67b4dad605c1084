package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). Arithmetic stays in integers;
// decimals only appear when crossing the JSON boundary.
type Money struct {
	Cents int64
}

// maxAmount keeps coerced wire amounts far from int64 overflow when summed.
var maxAmount = decimal.New(1<<50, -2)

// Cents builds a Money from minor units.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// MoneyFromDecimal converts a major-unit decimal, rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a plain JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Negative values
// are kept, so computed fields such as net savings survive a round trip.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		*m = Money{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("money: %w", err)
		}
		s = strings.TrimSpace(unquoted)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q", s)
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// CoerceAmount reads a wire amount leniently. Numbers and numeric strings are
// accepted. Anything else (null, empty, non-numeric, negative or out of
// range) yields zero and ok=false so the caller can flag the record.
func CoerceAmount(raw json.RawMessage) (m Money, ok bool) {
	s := string(bytes.TrimSpace(raw))
	if s == "" || s == "null" {
		return Money{}, false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return Money{}, false
		}
		s = strings.TrimSpace(str)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, false
	}
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return Money{}, false
	}
	return MoneyFromDecimal(d), true
}
