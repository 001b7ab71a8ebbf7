package tradesim

import "github.com/shopspring/decimal"

// Position is a holding valued at the current market price.
type Position struct {
	Holding
	Name         string `json:"name,omitempty"`
	Industry     string `json:"industry,omitempty"`
	Price        Money  `json:"price"`
	MarketValue  Money  `json:"marketValue"`
	CostBasis    Money  `json:"costBasis"`
	UnrealizedPL Money  `json:"unrealizedPL"`
}

// Valuation is a consistent snapshot of a ledger valued at market prices.
type Valuation struct {
	Cash           Money      `json:"cash"`
	InitialCash    Money      `json:"initialCash"`
	MarketValue    Money      `json:"marketValue"`
	TotalValue     Money      `json:"totalValue"`
	TotalPL        Money      `json:"totalPL"`
	TotalPLPercent Percent    `json:"totalPLPercent"`
	Positions      []Position `json:"positions"`
}

// price returns the current price of ticker, zero if unknown.
func price(p Pricer, ticker string, currency string) Money {
	if m, ok := p.Price(ticker); ok {
		return m
	}
	return M(0, currency)
}

// MarketValue returns the value of the holdings at the prices given by p.
//
// A holding without a price contributes nothing.
func MarketValue(holdings []Holding, p Pricer) Money {
	total := INR(0)
	for _, h := range holdings {
		if m, ok := p.Price(h.Ticker); ok {
			total = total.Add(m.Mul(h.Shares))
		}
	}
	return total
}

// UnrealizedPL returns the gain (or loss) of h if sold at the price given by p.
func UnrealizedPL(h Holding, p Pricer) Money {
	return price(p, h.Ticker, h.AverageCost.Currency()).Mul(h.Shares).Sub(h.CostBasis())
}

// MarketValue returns the value of the ledger holdings.
func (l *Ledger) MarketValue(p Pricer) Money { return MarketValue(l.holdings, p) }

// TotalValue returns cash plus the market value of the holdings.
func (l *Ledger) TotalValue(p Pricer) Money { return l.cash.Add(l.MarketValue(p)) }

// TotalPL returns the total value minus the initial cash.
func (l *Ledger) TotalPL(p Pricer) Money { return l.TotalValue(p).Sub(l.initial) }

// TotalPLPercent returns TotalPL relative to the initial cash, 0 if there was
// no initial cash.
func (l *Ledger) TotalPLPercent(p Pricer) Percent {
	return plPercent(l.TotalPL(p), l.initial)
}

func plPercent(pl, initial Money) Percent {
	if initial.IsZero() {
		return 0
	}
	return percentOf(pl.Ratio(initial).Mul(decimal.NewFromInt(100)))
}

// Value computes the full valuation of the ledger at market prices.
//
// If p is a *Market, positions also carry the instrument name and industry.
func (l *Ledger) Value(p Pricer) Valuation {
	v := Valuation{
		Cash:        l.cash,
		InitialCash: l.initial,
		MarketValue: l.MarketValue(p),
		Positions:   make([]Position, 0, len(l.holdings)),
	}
	v.TotalValue = v.Cash.Add(v.MarketValue)
	v.TotalPL = v.TotalValue.Sub(l.initial)
	v.TotalPLPercent = plPercent(v.TotalPL, l.initial)

	market, _ := p.(*Market)
	for _, h := range l.holdings {
		pos := Position{
			Holding:   h,
			Price:     price(p, h.Ticker, h.AverageCost.Currency()),
			CostBasis: h.CostBasis(),
		}
		pos.MarketValue = pos.Price.Mul(h.Shares)
		pos.UnrealizedPL = pos.MarketValue.Sub(pos.CostBasis)
		if market != nil {
			if in, ok := market.Get(h.Ticker); ok {
				pos.Name, pos.Industry = in.Name, in.Industry
			}
		}
		v.Positions = append(v.Positions, pos)
	}
	return v
}
