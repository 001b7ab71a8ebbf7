package tradesim

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the currency of the sandbox market.
const Currency = "INR"

// Money represents a monetary value.
//
// Money is never rounded internally: rounding to the currency fraction happens
// only when formatting or encoding.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M creates a Money from a numeric value.
func M[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// INR is a shortcut for money in the sandbox currency.
func INR[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T) Money {
	return M(value, Currency)
}

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value, e.g. ₹1,234.50.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// SignedString returns the string representation of the money value with a sign.
func (m Money) SignedString() string {
	if m.value.IsPositive() || m.value.IsZero() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) Currency() string                { return m.cur }
func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg(), cur: m.cur} }

// Mul returns the value of n units priced at m.
func (m Money) Mul(n int64) Money { return Money{value: m.value.Mul(decimal.NewFromInt(n)), cur: m.cur} }

// Div returns m divided by n units, e.g. a cost per share.
func (m Money) Div(n int64) Money { return Money{value: m.value.Div(decimal.NewFromInt(n)), cur: m.cur} }

// Ratio returns m/n as a plain decimal. It panics if n is zero.
func (m Money) Ratio(n Money) decimal.Decimal { return m.value.Div(n.value) }

// Round returns m rounded to the given number of decimal places.
func (m Money) Round(places int32) Money { return Money{value: m.value.Round(places), cur: m.cur} }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch" + A.cur + "!=" + B.cur)
	}
	return A.cur
}

// Float returns an approximation of the value, for charts only.
func (m Money) Float() float64 { return m.value.InexactFloat64() }

// MarshalJSON encodes money as {"amount": 12.34, "currency": "INR"} with the
// amount rounded to the currency fraction.
func (m Money) MarshalJSON() ([]byte, error) {
	rounded := m.value.Round(int32(m.currency().Fraction))
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency,omitempty"`
	}{json.Number(rounded.String()), m.cur})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid money %s: %w", data, err)
	}
	m.value, m.cur = v.Amount, v.Currency
	return nil
}
