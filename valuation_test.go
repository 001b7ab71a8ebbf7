package tradesim

import "testing"

func TestLedger_Value(t *testing.T) {
	l := NewLedger(INR(100000))
	l.Buy("AAA", 10, INR(500))
	l.Buy("BBB", 100, INR(100))
	l.Buy("GONE", 1, INR(50))

	prices := Prices{"AAA": INR(550), "BBB": INR(90)}
	v := l.Value(prices)

	assertMoney(t, "cash", v.Cash, 100000-5000-10000-50)
	assertMoney(t, "market value", v.MarketValue, 5500+9000)
	assertMoney(t, "total value", v.TotalValue, 84950+14500)
	assertMoney(t, "total P/L", v.TotalPL, -550)
	if !v.TotalPLPercent.Equal(-0.55) {
		t.Errorf("total P/L percent = %v, want -0.55%%", v.TotalPLPercent)
	}

	if len(v.Positions) != 3 {
		t.Fatalf("len(positions) = %d, want 3", len(v.Positions))
	}
	assertMoney(t, "AAA P/L", v.Positions[0].UnrealizedPL, 500)
	assertMoney(t, "BBB P/L", v.Positions[1].UnrealizedPL, -1000)
	// a position without price is worth nothing
	assertMoney(t, "GONE value", v.Positions[2].MarketValue, 0)
	assertMoney(t, "GONE P/L", v.Positions[2].UnrealizedPL, -50)

	// derived values agree with the valuation
	assertMoney(t, "TotalValue()", l.TotalValue(prices), v.TotalValue.Float())
	assertMoney(t, "UnrealizedPL()", UnrealizedPL(v.Positions[0].Holding, prices), 500)
}

func TestLedger_ValueWithMarket(t *testing.T) {
	m := testMarket(t)
	l := NewLedger(INR(1000))
	if _, err := l.Execute(m, Buy, "BBB", 2); err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	v := l.Value(m)
	if got := v.Positions[0]; got.Name != "Beta Bank" || got.Industry != "Banking" {
		t.Errorf("position = %+v, want name and industry from the market", got)
	}
}

func TestTotalPLPercent_NoInitialCash(t *testing.T) {
	l := NewLedger(INR(0))
	if got := l.TotalPLPercent(Prices{}); got != 0 {
		t.Errorf("TotalPLPercent() = %v, want 0", got)
	}
}
