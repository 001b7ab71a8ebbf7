package tradesim

import (
	"math/rand/v2"
	"sync"
)

// Rand is the source of randomness of the market simulation.
//
// Float64 returns a number in [0.0,1.0]. *rand.Rand satisfies it and never
// returns 1.0; a fixed source may return 1.0 to get the largest upward move.
type Rand interface {
	Float64() float64
}

// NewRand returns a deterministic source seeded with seed. It is safe for
// concurrent use.
func NewRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// randFunc adapts a function to the Rand interface.
type randFunc func() float64

func (f randFunc) Float64() float64 { return f() }

// GlobalRand uses the auto-seeded global source.
var GlobalRand Rand = randFunc(rand.Float64)
