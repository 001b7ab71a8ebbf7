// Package tradesim implements the core of a stock-trading sandbox: a mock
// market whose prices tick randomly, and a ledger of play money and holdings
// that buys and sells at the current market prices.
//
// The core functionalities include:
//   - Market: a fixed catalog of instruments, random price ticks and
//     synthetic daily price histories.
//   - Ledger: cash, holdings and weighted average cost, updated by buy and
//     sell fills. Trades that would overdraw cash or oversell a position are
//     declined and leave the ledger unchanged.
//   - Valuation: market value, unrealized and total profit and loss, computed
//     from a ledger and a set of prices.
//   - Recorder: a bounded series of total portfolio value samples.
//
// All monetary values are exact decimals, rounded only when formatted.
// None of the types are safe for concurrent use: the session package
// serializes access.
package tradesim
