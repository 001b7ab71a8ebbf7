package tradesim

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Percent is a percentage value, 1.5 means 1.5%.
type Percent float64

// percentOf returns the value as a Percent rounded to 2 decimals.
func percentOf(d decimal.Decimal) Percent {
	return Percent(d.Round(2).InexactFloat64())
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	return math.Abs(float64(p-q)) < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	return fmt.Sprintf("%+.2f%%", p)
}
