// Package analysis asks a generative model for a diversification review of a
// sandbox portfolio.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/etnz/tradesim"
)

// UnknownIndustry is reported for holdings whose industry is not known.
const UnknownIndustry = "Unknown"

// Holding is what the model is told about a position.
type Holding struct {
	Ticker      string  `json:"ticker"`
	Shares      int64   `json:"shares"`
	AverageCost float64 `json:"averageCost"`
	Industry    string  `json:"industry"`
}

// FromPositions converts valued positions to analysis input.
func FromPositions(positions []tradesim.Position) []Holding {
	res := make([]Holding, 0, len(positions))
	for _, p := range positions {
		industry := p.Industry
		if industry == "" {
			industry = UnknownIndustry
		}
		res = append(res, Holding{
			Ticker:      p.Ticker,
			Shares:      p.Shares,
			AverageCost: p.AverageCost.Round(2).Float(),
			Industry:    industry,
		})
	}
	return res
}

const instructions = `Analyze the diversification of the following mock Indian stock portfolio (BSE).
The user is practicing in a trading sandbox, no real money is involved.
Keep the analysis concise and cover, in this order:

1. Composition: a short summary of what the portfolio holds.
2. Strengths: well diversified sectors or strong holdings.
3. Weaknesses and risks: concentration in a few stocks or sectors.
4. Suggestion: one clear and actionable improvement.

Answer in simple Markdown with a heading for each section.

Portfolio data:
`

// Prompt builds the request sent to the model.
func Prompt(holdings []Holding) (string, error) {
	data, err := json.MarshalIndent(holdings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cannot encode holdings: %w", err)
	}
	var b strings.Builder
	b.WriteString(instructions)
	b.Write(data)
	b.WriteString("\n")
	return b.String(), nil
}
