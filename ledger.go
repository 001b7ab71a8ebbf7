package tradesim

import (
	"fmt"
	"slices"
)

// DefaultInitialCash is the cash a new sandbox ledger starts with.
var DefaultInitialCash = INR(100000)

// Holding is the position in one instrument.
type Holding struct {
	Ticker      string `json:"ticker"`
	Shares      int64  `json:"shares"`
	AverageCost Money  `json:"averageCost"` // weighted average of all buy fills
}

// CostBasis returns the total cost of the position.
func (h Holding) CostBasis() Money { return h.AverageCost.Mul(h.Shares) }

// Ledger holds the cash balance and the holdings of a sandbox portfolio.
//
// Cash is never negative and a holding never has zero or less shares: a buy
// or a sell that would break these rules is declined and leaves the ledger
// unchanged.
type Ledger struct {
	initial  Money
	cash     Money
	holdings []Holding // in order of first purchase, at most one per ticker
}

// NewLedger creates a ledger with initialCash and no holdings.
func NewLedger(initialCash Money) *Ledger {
	l := &Ledger{initial: initialCash}
	l.Reset()
	return l
}

// Reset restores the initial cash and drops all holdings.
func (l *Ledger) Reset() {
	l.cash = l.initial
	l.holdings = nil
}

// InitialCash returns the cash the ledger started with.
func (l *Ledger) InitialCash() Money { return l.initial }

// Cash returns the current cash balance.
func (l *Ledger) Cash() Money { return l.cash }

// Holdings returns a copy of the current holdings in order of first purchase.
func (l *Ledger) Holdings() []Holding { return slices.Clone(l.holdings) }

// Len returns the number of holdings.
func (l *Ledger) Len() int { return len(l.holdings) }

// Holding returns the holding for ticker, if any.
func (l *Ledger) Holding(ticker string) (Holding, bool) {
	i := l.index(ticker)
	if i < 0 {
		return Holding{}, false
	}
	return l.holdings[i], true
}

func (l *Ledger) index(ticker string) int {
	return slices.IndexFunc(l.holdings, func(h Holding) bool { return h.Ticker == ticker })
}

// Execute applies a trade at the current price given by p.
//
// An unknown ticker is an input error, wrapping ErrUnknownTicker. Other
// refusals are declined trades (see IsDeclined).
func (l *Ledger) Execute(p Pricer, side Side, ticker string, shares int64) (Fill, error) {
	price, ok := p.Price(ticker)
	if !ok {
		return Fill{}, fmt.Errorf("cannot %s %q: %w", side, ticker, ErrUnknownTicker)
	}
	switch side {
	case Buy:
		return l.Buy(ticker, shares, price)
	case Sell:
		return l.Sell(ticker, shares, price)
	default:
		return Fill{}, fmt.Errorf("unsupported trade side %d", side)
	}
}

// Buy buys shares of ticker at price.
//
// The cost is withdrawn from cash and the average cost of the holding is
// recomputed as the weighted average of the previous position and this fill.
func (l *Ledger) Buy(ticker string, shares int64, price Money) (Fill, error) {
	if shares <= 0 {
		return Fill{}, declined(Buy, ticker, shares, ErrInvalidShares)
	}
	if !price.IsPositive() {
		return Fill{}, fmt.Errorf("cannot buy %q at non positive price %v", ticker, price)
	}
	amount := price.Mul(shares)
	if amount.GreaterThan(l.cash) {
		return Fill{}, declined(Buy, ticker, shares, fmt.Errorf("%w: need %v, have %v", ErrInsufficientCash, amount, l.cash))
	}

	l.cash = l.cash.Sub(amount)
	if i := l.index(ticker); i >= 0 {
		h := l.holdings[i]
		total := h.Shares + shares
		h.AverageCost = h.AverageCost.Mul(h.Shares).Add(amount).Div(total)
		h.Shares = total
		l.holdings[i] = h
	} else {
		l.holdings = append(l.holdings, Holding{Ticker: ticker, Shares: shares, AverageCost: price})
	}
	return Fill{Side: Buy, Ticker: ticker, Shares: shares, Price: price, Amount: amount}, nil
}

// Sell sells shares of ticker at price.
//
// The proceeds are added to cash. The average cost is unchanged, unless the
// whole position is sold: then the holding is removed along with its cost
// basis.
func (l *Ledger) Sell(ticker string, shares int64, price Money) (Fill, error) {
	if shares <= 0 {
		return Fill{}, declined(Sell, ticker, shares, ErrInvalidShares)
	}
	if !price.IsPositive() {
		return Fill{}, fmt.Errorf("cannot sell %q at non positive price %v", ticker, price)
	}
	i := l.index(ticker)
	if i < 0 {
		return Fill{}, declined(Sell, ticker, shares, fmt.Errorf("%w: no %s held", ErrInsufficientShares, ticker))
	}
	h := l.holdings[i]
	if h.Shares < shares {
		return Fill{}, declined(Sell, ticker, shares, fmt.Errorf("%w: %d held", ErrInsufficientShares, h.Shares))
	}

	amount := price.Mul(shares)
	l.cash = l.cash.Add(amount)
	if h.Shares == shares {
		l.holdings = slices.Delete(l.holdings, i, i+1)
	} else {
		h.Shares -= shares
		l.holdings[i] = h
	}
	return Fill{Side: Sell, Ticker: ticker, Shares: shares, Price: price, Amount: amount}, nil
}
