package tradesim

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientCash declines a buy that costs more than the available cash.
	ErrInsufficientCash = errors.New("not enough cash")
	// ErrInsufficientShares declines a sell of more shares than held.
	ErrInsufficientShares = errors.New("not enough shares to sell")
	// ErrInvalidShares declines a trade whose share count is not a positive integer.
	ErrInvalidShares = errors.New("invalid number of shares")
	// ErrUnknownTicker rejects a trade on an instrument that is not traded.
	ErrUnknownTicker = errors.New("unknown ticker")
)

// DeclinedError is returned when a trade is refused by the ledger. The
// ledger is left unchanged.
type DeclinedError struct {
	Side   Side
	Ticker string
	Shares int64
	Reason error
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("%s %d %s declined: %v", e.Side, e.Shares, e.Ticker, e.Reason)
}

func (e *DeclinedError) Unwrap() error { return e.Reason }

// IsDeclined reports whether err is a declined trade.
func IsDeclined(err error) bool {
	var d *DeclinedError
	return errors.As(err, &d)
}

func declined(side Side, ticker string, shares int64, reason error) error {
	return &DeclinedError{Side: side, Ticker: ticker, Shares: shares, Reason: reason}
}
