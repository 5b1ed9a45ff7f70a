package tradelog

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/lmazzei55/tradelog/date"
)

// StockPosition is the current holding of one ticker in one account, valued at
// a moving weighted-average cost.
//
// TotalCost equals Shares × AverageCost within decimal division precision.
type StockPosition struct {
	AccountID       string
	Ticker          string
	Shares          Quantity
	AverageCost     Money
	TotalCost       Money
	FirstPurchase   date.Date
	LastTransaction date.Date
	TransactionIDs  []string
}

type holdingKey struct{ account, ticker string }

// ProjectStockPositions folds stock transactions into current holdings. When
// account is not empty only that account is considered.
//
// Transactions are replayed by date, same-day transactions in ledger order.
// Disposals remove AverageCost × shares from the cost basis, never the sale
// proceeds. A disposal on a ticker with no position is ignored, and a position
// whose shares reach zero is removed. Splits scale shares and average cost,
// leaving the total cost unchanged.
//
// The result is sorted by account then ticker and only depends on txs.
func ProjectStockPositions(txs []StockTransaction, account string) []StockPosition {
	holdings := make(map[holdingKey]*StockPosition)

	for _, tx := range byDate(txs, stockDate) {
		if account != "" && tx.AccountID != account {
			continue
		}
		k := holdingKey{tx.AccountID, tx.Ticker}
		pos := holdings[k]

		switch {
		case tx.Action.acquires():
			if pos == nil {
				pos = &StockPosition{AccountID: tx.AccountID, Ticker: tx.Ticker, FirstPurchase: tx.Date}
				holdings[k] = pos
			}
			cost := tx.Price.Mul(tx.Shares)
			if cost.IsZero() {
				// transfers may only carry a total amount.
				cost = tx.Amount
			}
			pos.Shares = pos.Shares.Add(tx.Shares)
			pos.TotalCost = pos.TotalCost.Add(cost)
			pos.AverageCost = pos.TotalCost.Div(pos.Shares)

		case tx.Action.disposes():
			if pos == nil {
				continue
			}
			removed := pos.AverageCost.Mul(tx.Shares)
			pos.Shares = pos.Shares.Sub(tx.Shares)
			if !pos.Shares.IsPositive() {
				// residual rounding cost is dropped with the position.
				delete(holdings, k)
				continue
			}
			pos.TotalCost = pos.TotalCost.Sub(removed)

		case tx.Action == Split:
			if pos == nil || tx.SplitRatio == nil {
				continue
			}
			pos.Shares = pos.Shares.Ratio(tx.SplitRatio.New, tx.SplitRatio.Old)
			pos.AverageCost = pos.AverageCost.Ratio(tx.SplitRatio.Old, tx.SplitRatio.New)

		default:
			if pos == nil {
				continue
			}
		}
		pos.LastTransaction = tx.Date
		pos.TransactionIDs = append(pos.TransactionIDs, tx.ID)
	}

	positions := make([]StockPosition, 0, len(holdings))
	for _, pos := range holdings {
		positions = append(positions, *pos)
	}
	slices.SortFunc(positions, func(a, b StockPosition) int {
		return cmp.Or(cmp.Compare(a.AccountID, b.AccountID), cmp.Compare(a.Ticker, b.Ticker))
	})
	return positions
}

// checkHoldings replays the transactions of one account and ticker and
// reports the first disposal that sells more shares than held at that point.
func checkHoldings(txs []StockTransaction, account, ticker string) error {
	var held Quantity
	for _, tx := range byDate(txs, stockDate) {
		if tx.AccountID != account || tx.Ticker != ticker {
			continue
		}
		switch {
		case tx.Action.acquires():
			held = held.Add(tx.Shares)
		case tx.Action.disposes():
			if held.LessThan(tx.Shares) {
				return invalid("shares", "on %s, cannot %s %v %s, position is only %v", tx.Date, tx.Action, tx.Shares, ticker, held)
			}
			held = held.Sub(tx.Shares)
		case tx.Action == Split && tx.SplitRatio != nil:
			held = held.Ratio(tx.SplitRatio.New, tx.SplitRatio.Old)
		}
	}
	return nil
}

// String returns a short human description of the position.
func (p StockPosition) String() string {
	return fmt.Sprintf("%s %s: %v @ %v", p.AccountID, p.Ticker, p.Shares, p.AverageCost)
}
