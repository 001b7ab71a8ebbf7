package tradesim

import (
	"testing"

	"github.com/shopspring/decimal"
)

// sequence is a Rand returning its values in turn, cycling.
type sequence struct {
	values []float64
	i      int
}

func seq(values ...float64) *sequence { return &sequence{values: values} }

func (s *sequence) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

// assertMoney fails if got is not within 1e-6 of want.
func assertMoney(t *testing.T, name string, got Money, want float64) {
	t.Helper()
	diff := got.Decimal().Sub(decimal.NewFromFloat(want)).Abs()
	if diff.GreaterThan(decimal.New(1, -6)) {
		t.Errorf("%s = %v (%s), want %v", name, got, got.Decimal(), want)
	}
}
