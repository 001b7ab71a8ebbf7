package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/etnz/tradesim"
)

func mustContain(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}

func testMarket(t *testing.T) *tradesim.Market {
	t.Helper()
	m, err := tradesim.NewMarket([]tradesim.Instrument{
		{Ticker: "TCS", Name: "Tata Consultancy Services Ltd.", Industry: "Information Technology", Price: tradesim.INR(4000)},
		{Ticker: "ITC", Name: "ITC Ltd.", Industry: "FMCG", Price: tradesim.INR(400)},
	})
	if err != nil {
		t.Fatalf("NewMarket() unexpected error: %v", err)
	}
	return m
}

func TestRenderDashboard(t *testing.T) {
	m := testMarket(t)
	l := tradesim.NewLedger(tradesim.INR(100000))
	if _, err := l.Execute(m, tradesim.Buy, "TCS", 5); err != nil {
		t.Fatal(err)
	}
	got := RenderDashboard(&Dashboard{
		User:      tradesim.Identity{Name: "Demo Trader"},
		Portfolio: l.Value(m),
	})
	mustContain(t, got,
		"# Portfolio of Demo Trader",
		"| ₹100,000.00 | +₹0.00 (+0.00%) | ₹20,000.00 | ₹80,000.00 | 1 |",
		"| TCS | Tata Consultancy Services Ltd. | 5 | ₹4,000.00 | ₹4,000.00 | ₹20,000.00 | +₹0.00 |",
	)
	if strings.Contains(got, "error") {
		t.Errorf("RenderDashboard() failed:\n%s", got)
	}
}

func TestRenderDashboardEmpty(t *testing.T) {
	got := RenderDashboard(&Dashboard{Portfolio: tradesim.NewLedger(tradesim.INR(100)).Value(testMarket(t))})
	mustContain(t, got, "You have no holdings yet.")
}

func TestRenderMarket(t *testing.T) {
	got := RenderMarket(testMarket(t).Instruments())
	mustContain(t, got,
		"| TCS | Tata Consultancy Services Ltd. | Information Technology | ₹4,000.00 |",
		"| ITC | ITC Ltd. | FMCG | ₹400.00 |",
	)
}

func TestRenderTrades(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	first := tradesim.NewTrade(tradesim.Fill{Side: tradesim.Buy, Ticker: "ITC", Shares: 10, Price: tradesim.INR(400), Amount: tradesim.INR(4000)}, at)
	second := tradesim.NewTrade(tradesim.Fill{Side: tradesim.Sell, Ticker: "ITC", Shares: 4, Price: tradesim.INR(410), Amount: tradesim.INR(1640)}, at.Add(time.Minute))

	got := RenderTrades([]tradesim.Trade{first, second})
	sell := strings.Index(got, "| 09:31:00 | sell | ITC | 4 | ₹410.00 | ₹1,640.00 |")
	buy := strings.Index(got, "| 09:30:00 | buy | ITC | 10 | ₹400.00 | ₹4,000.00 |")
	if sell < 0 || buy < 0 || sell > buy {
		t.Errorf("RenderTrades() want most recent first, got:\n%s", got)
	}

	mustContain(t, RenderTrades(nil), "No trade yet.")
}

func TestRenderQuote(t *testing.T) {
	in, _ := testMarket(t).Get("ITC")
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	history := tradesim.SyntheticHistory(in.Price, today, tradesim.NewRand(1))

	got := RenderQuote(in, history, nil)
	mustContain(t, got, "# ITC Ltd. (ITC)", "| 2025-03-01 | ₹400.00 |", "| 2024-09-02 |", "| 2024-10-01 |")
	if strings.Contains(got, "Your Position") {
		t.Errorf("RenderQuote() without holding shows a position:\n%s", got)
	}

	got = RenderQuote(in, history, &tradesim.Holding{Ticker: "ITC", Shares: 3, AverageCost: tradesim.INR(390)})
	mustContain(t, got, "## Your Position", "3 shares at an average cost of ₹390.00.")
}

func TestRenderHistory(t *testing.T) {
	r := tradesim.NewRecorder(0)
	r.Sample("10:00:00", tradesim.INR(100000))
	r.Sample("10:00:02", tradesim.INR(100250.5))
	got := RenderHistory(r.Points())
	mustContain(t, got, "| 10:00:02 | ₹100,250.50 |", "`▁█`")

	mustContain(t, RenderHistory(nil), "No sample yet.")
}

func TestMonthly(t *testing.T) {
	history := []tradesim.PricePoint{
		{Date: "2025-01-30"}, {Date: "2025-01-31"}, {Date: "2025-02-01"}, {Date: "2025-02-02"}, {Date: "2025-02-03"},
	}
	got := monthly(history)
	var dates []string
	for _, p := range got {
		dates = append(dates, p.Date)
	}
	if want := "2025-01-30 2025-02-01 2025-02-03"; strings.Join(dates, " ") != want {
		t.Errorf("monthly() = %v, want %s", dates, want)
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		values []float64
		want   string
	}{
		{nil, ""},
		{[]float64{5, 5}, "▁▁"},
		{[]float64{0, 7, 14}, "▁▄█"},
	}
	for _, tt := range tests {
		if got := Sparkline(tt.values); got != tt.want {
			t.Errorf("Sparkline(%v) = %q, want %q", tt.values, got, tt.want)
		}
	}
}

func TestHTML(t *testing.T) {
	got, err := HTML("## Strengths\n\n- **IT** exposure\n1. one\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<h2>Strengths</h2>", "<li><strong>IT</strong> exposure</li>", "<ol>"} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML() = %q, want it to contain %q", got, want)
		}
	}
}

func TestTerminal(t *testing.T) {
	got, err := Terminal("# Market\n\nAll good.", 80, "notty")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "All good.") {
		t.Errorf("Terminal() = %q", got)
	}
}
