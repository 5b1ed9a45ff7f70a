package tradelog

import (
	"slices"

	"github.com/lmazzei55/tradelog/date"
)

func compareDates(a, b date.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// byDate returns a copy of txs sorted by date. The sort is stable, meaning
// transactions on the same day keep their ledger (insertion) order.
func byDate[T any](txs []T, on func(T) date.Date) []T {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b T) int { return compareDates(on(a), on(b)) })
	return sorted
}

func stockDate(tx StockTransaction) date.Date   { return tx.Date }
func optionDate(tx OptionTransaction) date.Date { return tx.Date }

// SortedStockTransactions returns a copy of txs in date order.
func SortedStockTransactions(txs []StockTransaction) []StockTransaction {
	return byDate(txs, stockDate)
}

// SortedOptionTransactions returns a copy of txs in date order.
func SortedOptionTransactions(txs []OptionTransaction) []OptionTransaction {
	return byDate(txs, optionDate)
}
