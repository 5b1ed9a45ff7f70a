// Package tradelog records stock and option trades per account and derives
// everything else from them.
//
// The Ledger is the only mutable state: accounts with a cash balance, stock
// transactions and option transactions. Every mutation goes through the ledger
// so that the cash balance of an account stays equal to its initial cash plus
// the signed cash effects of its transactions, in whatever order they were
// added, edited or removed.
//
// Everything else is projected on demand by pure functions:
//   - Stock positions, valued at a moving weighted-average cost.
//   - Option positions, merged by account, ticker, strike, expiration and type.
//   - Wash sales, flagged within 30 days of a loss. They are advisory only.
//   - Options analytics: net premium, win rate, annualized return on
//     collateral, assignment rate.
//
// Option positions are closed, expired, assigned or exercised through
// ClosePosition, which attributes the opening premium and fees to each close
// proportionally and creates the stock transaction of an assignment.
//
// Errors wrap ErrNotFound or ErrInvalid and can be tested with errors.Is.
package tradelog
