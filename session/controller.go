// Package session implements the lifetime of a sandbox session: login and
// logout, the periodic market cycle and the routing of trades to the ledger.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/etnz/tradesim"
	"github.com/sirupsen/logrus"
)

// State of a session.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case LoggedIn:
		return "logged-in"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

var (
	// ErrLoggedOut is returned by operations that need a logged in session.
	ErrLoggedOut = errors.New("not logged in")
	// ErrLoggedIn is returned when logging into a session already logged in.
	ErrLoggedIn = errors.New("already logged in")
)

// Options configures a Controller. The zero value is usable.
type Options struct {
	InitialCash tradesim.Money        // zero means tradesim.DefaultInitialCash
	Catalog     []tradesim.Instrument // nil means tradesim.Catalog()
	Interval    time.Duration         // period of the market cycle, <= 0 disables the timer
	Retention   int                   // number of history samples kept
	Rand        tradesim.Rand         // nil means tradesim.GlobalRand
	Now         func() time.Time      // nil means time.Now
	Logger      logrus.FieldLogger    // nil means the standard logrus logger
	SessionID   string                // logged with every entry
}

func (o Options) withDefaults() Options {
	if o.InitialCash.Currency() == "" && o.InitialCash.IsZero() {
		o.InitialCash = tradesim.DefaultInitialCash
	}
	if o.Catalog == nil {
		o.Catalog = tradesim.Catalog()
	}
	if o.Rand == nil {
		o.Rand = tradesim.GlobalRand
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.SessionID != "" {
		o.Logger = o.Logger.WithField("session", o.SessionID)
	}
	return o
}

// Update is published to subscribers after every market cycle.
type Update struct {
	Instruments []tradesim.Instrument `json:"instruments"`
	Point       tradesim.HistoryPoint `json:"point"`
	Portfolio   tradesim.Valuation    `json:"portfolio"`
}

// Snapshot is a consistent copy of the whole session state.
type Snapshot struct {
	User        tradesim.Identity       `json:"user"`
	State       State                   `json:"state"`
	Instruments []tradesim.Instrument   `json:"instruments"`
	Portfolio   tradesim.Valuation      `json:"portfolio"`
	History     []tradesim.HistoryPoint `json:"history"`
	Trades      []tradesim.Trade        `json:"trades"`
}

// subscriberBuffer is the number of updates a slow subscriber can lag
// behind before updates are dropped for it.
const subscriberBuffer = 8

// Controller owns the state of one sandbox session: market, ledger, value
// history and trade log.
//
// All state changes happen under a single lock, either from a user command
// or from the periodic cycle, so they never interleave. The periodic cycle is
// bound to a login generation: a timer that fires after a logout finds a
// newer generation and leaves the state alone.
type Controller struct {
	opts Options
	log  logrus.FieldLogger

	mu         sync.Mutex
	state      State
	identity   tradesim.Identity
	market     *tradesim.Market
	ledger     *tradesim.Ledger
	history    *tradesim.Recorder
	trades     []tradesim.Trade
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	subs       map[int]chan Update
	nextSub    int
}

// New creates a logged out controller. It fails if the catalog is not a
// valid market.
func New(opts Options) (*Controller, error) {
	opts = opts.withDefaults()
	if _, err := tradesim.NewMarket(opts.Catalog); err != nil {
		return nil, fmt.Errorf("invalid market catalog: %w", err)
	}
	return &Controller{
		opts: opts,
		log:  opts.Logger,
		subs: make(map[int]chan Update),
	}, nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the logged in identity.
func (c *Controller) Identity() (tradesim.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity, c.state == LoggedIn
}

// Login starts a fresh session for id: a new market from the catalog, a
// ledger with the initial cash and an empty history. The periodic cycle
// starts if an interval is configured.
func (c *Controller) Login(id tradesim.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == LoggedIn {
		return ErrLoggedIn
	}
	market, err := tradesim.NewMarket(c.opts.Catalog)
	if err != nil {
		return fmt.Errorf("invalid market catalog: %w", err)
	}

	c.generation++
	c.state = LoggedIn
	c.identity = id
	c.market = market
	c.ledger = tradesim.NewLedger(c.opts.InitialCash)
	c.history = tradesim.NewRecorder(c.opts.Retention)
	c.trades = nil
	c.log = c.opts.Logger.WithFields(logrus.Fields{"user": id.ID, "provider": id.Provider})

	if c.opts.Interval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel, c.done = cancel, make(chan struct{})
		go c.run(ctx, c.generation, c.opts.Interval, c.done)
	}
	c.log.WithField("cash", c.ledger.Cash().String()).Info("session started")
	return nil
}

// Logout stops the periodic cycle and discards all the session state. When
// Logout returns, the cycle goroutine has exited. Logging out a logged out
// session does nothing.
func (c *Controller) Logout() {
	c.mu.Lock()
	if c.state == LoggedOut {
		c.mu.Unlock()
		return
	}
	c.generation++
	c.state = LoggedOut
	c.identity = tradesim.Identity{}
	c.market, c.ledger, c.history, c.trades = nil, nil, nil, nil
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	log := c.log
	c.mu.Unlock()

	// the cycle goroutine may be waiting for the lock, wait for it outside.
	if cancel != nil {
		cancel()
		<-done
	}
	log.Info("session ended")
}

// run drives the periodic cycle of generation gen.
func (c *Controller) run(ctx context.Context, gen uint64, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.cycle(gen) {
				return
			}
		}
	}
}

// cycle runs one step for generation gen, it returns false if the
// generation is stale.
func (c *Controller) cycle(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.state != LoggedIn {
		return false
	}
	c.step()
	return true
}

// Step runs one market cycle immediately. It is what the timer does on
// every tick.
func (c *Controller) Step() (Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return Update{}, ErrLoggedOut
	}
	return c.step(), nil
}

func (c *Controller) step() Update {
	label := c.opts.Now().Format(LabelFormat)
	point := Step(c.market, c.ledger, c.history, c.opts.Rand, label)
	u := Update{
		Instruments: c.market.Instruments(),
		Point:       point,
		Portfolio:   c.ledger.Value(c.market),
	}
	c.publish(u)
	return u
}

// publish sends u to every subscriber without blocking.
func (c *Controller) publish(u Update) {
	for _, ch := range c.subs {
		select {
		case ch <- u:
		default:
			// slow subscriber, drop
		}
	}
}

// Subscribe returns a channel receiving an Update after every market
// cycle, and a function to unsubscribe. The channel is closed on logout or
// unsubscribe.
func (c *Controller) Subscribe() (<-chan Update, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return nil, nil, ErrLoggedOut
	}
	id := c.nextSub
	c.nextSub++
	ch := make(chan Update, subscriberBuffer)
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if ch, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}

// Trade buys or sells shares of ticker at the current market price.
//
// Declined trades (see tradesim.IsDeclined) and unknown tickers leave the
// session unchanged.
func (c *Controller) Trade(side tradesim.Side, ticker string, shares int64) (tradesim.Trade, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return tradesim.Trade{}, ErrLoggedOut
	}
	fill, err := c.ledger.Execute(c.market, side, ticker, shares)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"side": side, "ticker": ticker, "shares": shares}).Info("trade refused")
		return tradesim.Trade{}, err
	}
	trade := tradesim.NewTrade(fill, c.opts.Now())
	c.trades = append(c.trades, trade)
	c.log.WithFields(logrus.Fields{
		"trade":  trade.ID,
		"side":   side,
		"ticker": ticker,
		"shares": shares,
		"price":  fill.Price.String(),
	}).Info("trade executed")
	return trade, nil
}

// Snapshot returns a copy of the whole session state.
func (c *Controller) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return Snapshot{State: c.state}, ErrLoggedOut
	}
	return Snapshot{
		User:        c.identity,
		State:       c.state,
		Instruments: c.market.Instruments(),
		Portfolio:   c.ledger.Value(c.market),
		History:     c.history.Points(),
		Trades:      append([]tradesim.Trade(nil), c.trades...),
	}, nil
}

// Portfolio returns the current valuation of the ledger.
func (c *Controller) Portfolio() (tradesim.Valuation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return tradesim.Valuation{}, ErrLoggedOut
	}
	return c.ledger.Value(c.market), nil
}

// History returns the sampled total values, oldest first.
func (c *Controller) History() ([]tradesim.HistoryPoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return nil, ErrLoggedOut
	}
	return c.history.Points(), nil
}

// Trades returns the executed trades, oldest first.
func (c *Controller) Trades() ([]tradesim.Trade, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return nil, ErrLoggedOut
	}
	return append([]tradesim.Trade(nil), c.trades...), nil
}

// Instruments returns the current market snapshot.
func (c *Controller) Instruments() ([]tradesim.Instrument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return nil, ErrLoggedOut
	}
	return c.market.Instruments(), nil
}

// Search looks up instruments by ticker or name.
func (c *Controller) Search(query string, limit int) ([]tradesim.Instrument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return nil, ErrLoggedOut
	}
	return c.market.Search(query, limit), nil
}

// Quote returns an instrument and a synthetic daily history ending at its
// current price.
func (c *Controller) Quote(ticker string) (tradesim.Instrument, []tradesim.PricePoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return tradesim.Instrument{}, nil, ErrLoggedOut
	}
	in, ok := c.market.Get(ticker)
	if !ok {
		return tradesim.Instrument{}, nil, fmt.Errorf("no quote for %q: %w", ticker, tradesim.ErrUnknownTicker)
	}
	return in, tradesim.SyntheticHistory(in.Price, c.opts.Now(), c.opts.Rand), nil
}
