package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/tradesim/cache"
	"github.com/etnz/tradesim/logging"
)

// ErrNoHoldings is returned when asking to analyze an empty portfolio.
var ErrNoHoldings = errors.New("you need to have holdings in your portfolio to get an analysis")

// Generator produces a text answer to a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to a Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Analyst answers analysis requests, caching answers by prompt.
//
// An Analyst only reads the holdings it is given.
type Analyst struct {
	gen   Generator
	cache *cache.Cache[string] // may be nil
}

// NewAnalyst returns an Analyst using gen. Answers are cached in c if not nil.
func NewAnalyst(gen Generator, c *cache.Cache[string]) *Analyst {
	return &Analyst{gen: gen, cache: c}
}

// Analyze returns the markdown analysis of holdings.
func (a *Analyst) Analyze(ctx context.Context, holdings []Holding) (string, error) {
	if len(holdings) == 0 {
		return "", ErrNoHoldings
	}
	prompt, err := Prompt(holdings)
	if err != nil {
		return "", err
	}
	key := promptKey(prompt)
	log := logging.FromContext(ctx).WithField("holdings", len(holdings))
	if a.cache != nil {
		if md, ok := a.cache.Get(key); ok {
			log.Debug("analysis served from cache")
			return md, nil
		}
	}

	md, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("analysis failed: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return "", errors.New("analysis failed: empty answer")
	}
	if a.cache != nil {
		a.cache.Set(key, md)
	}
	log.Info("analysis generated")
	return md, nil
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
