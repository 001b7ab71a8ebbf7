package session

import (
	"time"

	"github.com/etnz/tradesim"
)

// LabelFormat is the format of the history sample labels.
const LabelFormat = "15:04:05"

// DefaultInterval is the period of the market tick and value sampling.
const DefaultInterval = 2 * time.Second

// Step runs one scheduler cycle on explicit state: it ticks the market,
// recomputes the total portfolio value at the new prices and samples it.
func Step(m *tradesim.Market, l *tradesim.Ledger, rec *tradesim.Recorder, r tradesim.Rand, label string) tradesim.HistoryPoint {
	m.Tick(r)
	value := recomputeValue(l, m)
	rec.Sample(label, value)
	return tradesim.HistoryPoint{Label: label, Value: value}
}

func recomputeValue(l *tradesim.Ledger, p tradesim.Pricer) tradesim.Money { return l.TotalValue(p) }
