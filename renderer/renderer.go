// Package renderer renders sandbox reports as markdown, and markdown as HTML
// or terminal text.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/tradesim"
)

//go:embed templates/*.md
var templates embed.FS

// Dashboard is the data of the dashboard report.
type Dashboard struct {
	User      tradesim.Identity
	Portfolio tradesim.Valuation
}

// RenderDashboard renders the summary cards and the holdings table.
func RenderDashboard(d *Dashboard) string {
	partials := map[string]string{
		"dashboard_summary":  "dashboard_summary.md",
		"dashboard_holdings": "dashboard_holdings.md",
	}
	return renderTemplate("dashboard", "dashboard.md", partials, d)
}

// RenderMarket renders the instrument snapshot as a table.
func RenderMarket(instruments []tradesim.Instrument) string {
	return renderTemplate("market", "market.md", nil, instruments)
}

// RenderTrades renders the trade log, most recent first.
func RenderTrades(trades []tradesim.Trade) string {
	rev := make([]tradesim.Trade, len(trades))
	for i, t := range trades {
		rev[len(trades)-1-i] = t
	}
	return renderTemplate("trades", "trades.md", nil, rev)
}

// Quote is the data of the instrument detail report.
type Quote struct {
	Instrument tradesim.Instrument
	History    []tradesim.PricePoint
	Holding    *tradesim.Holding // nil if not held
	Chart      string
}

// RenderQuote renders an instrument with its price chart and the first price
// of each month of its history.
func RenderQuote(in tradesim.Instrument, history []tradesim.PricePoint, h *tradesim.Holding) string {
	q := &Quote{
		Instrument: in,
		History:    monthly(history),
		Holding:    h,
		Chart:      Sparkline(pricePoints(history)),
	}
	partials := map[string]string{
		"quote_position": "quote_position.md",
	}
	if h == nil {
		partials["quote_position"] = ""
	}
	return renderTemplate("quote", "quote.md", partials, q)
}

// RenderHistory renders the sampled total values with a chart.
func RenderHistory(points []tradesim.HistoryPoint) string {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value.Float()
	}
	data := struct {
		Points []tradesim.HistoryPoint
		Chart  string
	}{points, Sparkline(values)}
	return renderTemplate("history", "history.md", nil, data)
}

// monthly keeps the first point of every month, and the last point.
func monthly(history []tradesim.PricePoint) []tradesim.PricePoint {
	var res []tradesim.PricePoint
	month := ""
	for i, p := range history {
		m := p.Date[:min(7, len(p.Date))]
		if m != month || i == len(history)-1 {
			res = append(res, p)
			month = m
		}
	}
	return res
}

func pricePoints(history []tradesim.PricePoint) []float64 {
	res := make([]float64, len(history))
	for i, p := range history {
		res[i] = p.Price.Float()
	}
	return res
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			content, err = fs.ReadFile(templates, "templates/"+file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
