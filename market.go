package tradesim

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmptyCatalog is returned when a market is created without instruments.
var ErrEmptyCatalog = errors.New("empty instrument catalog")

// MaxTickMove is the largest relative price move of a single tick (±1%).
const MaxTickMove = 0.01

// DefaultSearchLimit is the number of results returned by a search when no
// limit is given.
const DefaultSearchLimit = 7

// Pricer gives the current price of an instrument.
type Pricer interface {
	Price(ticker string) (Money, bool)
}

// Prices is a fixed price list. It is mostly useful to apply trades at a
// known price.
type Prices map[string]Money

// Price implements Pricer.
func (p Prices) Price(ticker string) (Money, bool) {
	m, ok := p[ticker]
	return m, ok
}

// Market holds the tradable instruments and their current prices.
//
// The set of instruments is fixed at creation, only prices move.
type Market struct {
	instruments []Instrument
	index       map[string]int
}

// NewMarket returns a market initialized with the given catalog.
func NewMarket(catalog []Instrument) (*Market, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	m := &Market{
		instruments: slices.Clone(catalog),
		index:       make(map[string]int, len(catalog)),
	}
	for i, in := range m.instruments {
		if in.Ticker == "" {
			return nil, fmt.Errorf("instrument #%d has no ticker", i)
		}
		if _, exists := m.index[in.Ticker]; exists {
			return nil, fmt.Errorf("duplicate ticker %q in catalog", in.Ticker)
		}
		if !in.Price.IsPositive() {
			return nil, fmt.Errorf("instrument %q has a non positive price %v", in.Ticker, in.Price)
		}
		m.index[in.Ticker] = i
	}
	return m, nil
}

// Len returns the number of instruments.
func (m *Market) Len() int { return len(m.instruments) }

// Instruments returns a snapshot of all instruments in catalog order.
func (m *Market) Instruments() []Instrument { return slices.Clone(m.instruments) }

// Has reports whether the ticker is traded in this market.
func (m *Market) Has(ticker string) bool {
	_, ok := m.index[ticker]
	return ok
}

// Get returns the instrument for ticker.
func (m *Market) Get(ticker string) (Instrument, bool) {
	i, ok := m.index[ticker]
	if !ok {
		return Instrument{}, false
	}
	return m.instruments[i], true
}

// Price implements Pricer with the current market prices.
func (m *Market) Price(ticker string) (Money, bool) {
	in, ok := m.Get(ticker)
	return in.Price, ok
}

// Tick moves every price randomly and returns the new snapshot.
func (m *Market) Tick(r Rand) []Instrument {
	m.instruments = TickInstruments(m.instruments, r)
	return m.Instruments()
}

// Search returns instruments whose ticker or name contains query, ignoring
// case, in catalog order. At most limit results are returned, limit <= 0
// means DefaultSearchLimit.
func (m *Market) Search(query string, limit int) []Instrument {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	var res []Instrument
	for _, in := range m.instruments {
		if strings.Contains(strings.ToLower(in.Ticker), query) || strings.Contains(strings.ToLower(in.Name), query) {
			res = append(res, in)
			if len(res) == limit {
				break
			}
		}
	}
	return res
}

// TickInstruments computes the next price of every instrument.
//
// Each instrument moves by delta = (r-0.5)*2*MaxTickMove for the next r drawn
// from the source: uniform in [-MaxTickMove, MaxTickMove) for a random source,
// and exactly +MaxTickMove when r is 1.0.
// Price and change are rounded to 2 decimals, so is the change percent.
// The input is left untouched.
func TickInstruments(instruments []Instrument, r Rand) []Instrument {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	res := make([]Instrument, len(instruments))
	for i, in := range instruments {
		delta := decimal.NewFromFloat((r.Float64() - 0.5) * 2 * MaxTickMove)
		price := in.Price.value.Mul(one.Add(delta))
		change := price.Sub(in.Price.value)

		in.Price = Money{value: price.Round(2), cur: in.Price.cur}
		in.Change = Money{value: change.Round(2), cur: in.Price.cur}
		in.ChangePercent = percentOf(delta.Mul(hundred))
		res[i] = in
	}
	return res
}

// DateFormat is the format of the dates in a price history.
const DateFormat = "2006-01-02"

// HistoryDays is the number of past days in a synthetic price history.
const HistoryDays = 180

const (
	historyBias       = 0.48  // below 0.5 the walk drifts up towards today
	historyVolatility = 0.055 // daily fluctuation amplitude
	jumpProbability   = 0.02
	maxJump           = 0.05
)

// PricePoint is the price of an instrument on a given day.
type PricePoint struct {
	Date  string `json:"date"`
	Price Money  `json:"price"`
}

// SyntheticHistory generates a plausible daily price history ending today at
// the current price.
//
// The series is computed backward from current: each previous day divides the
// price by a small random fluctuation, and now and then by a larger jump.
// It returns HistoryDays+1 points in chronological order.
func SyntheticHistory(current Money, today time.Time, r Rand) []PricePoint {
	one := decimal.NewFromInt(1)
	points := make([]PricePoint, HistoryDays+1)
	points[HistoryDays] = PricePoint{Date: today.Format(DateFormat), Price: current}

	price := current.value
	for i := 1; i <= HistoryDays; i++ {
		f := (r.Float64() - historyBias) * historyVolatility
		price = price.Div(one.Add(decimal.NewFromFloat(f)))

		if r.Float64() > 1-jumpProbability {
			jump := (r.Float64() - 0.5) * 2 * maxJump
			price = price.Div(one.Add(decimal.NewFromFloat(jump)))
		}
		points[HistoryDays-i] = PricePoint{
			Date:  today.AddDate(0, 0, -i).Format(DateFormat),
			Price: Money{value: price.Round(2), cur: current.cur},
		}
	}
	return points
}
