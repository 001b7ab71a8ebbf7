package tradesim

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Side is the direction of a trade.
type Side int

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide parses "buy" or "sell", ignoring case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown trade side: %q", s)
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Fill is the outcome of a buy or sell applied to a ledger.
type Fill struct {
	Side   Side   `json:"side"`
	Ticker string `json:"ticker"`
	Shares int64  `json:"shares"`
	Price  Money  `json:"price"`
	Amount Money  `json:"amount"` // Shares * Price
}

// Trade is an executed fill recorded in the trade log.
type Trade struct {
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
	Fill
}

// NewTrade records a fill executed at the given time.
func NewTrade(f Fill, at time.Time) Trade {
	return Trade{ID: NewID(at), Time: at, Fill: f}
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new ULID string for the instant at.
//
// IDs generated in the same millisecond stay lexicographically increasing.
func NewID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}
