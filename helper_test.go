package tradelog

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lmazzei55/tradelog/date"
)

// USD is a helper for test to create money from const.
func USD(v float64) Money { return M(v) }

// ptr returns a pointer to a copy of v.
func ptr[T any](v T) *T { return &v }

// day parses an ISO date.
func day(s string) date.Date { return date.MustParse(s) }

// cmpOpts compares decimal values by value, and dates by day.
var cmpOpts = cmp.Options{
	cmp.Comparer(func(x, y Money) bool { return x.Equal(y) }),
	cmp.Comparer(func(x, y Quantity) bool { return x.Equal(y) }),
	cmp.Comparer(func(x, y date.Date) bool { return x == y }),
}

// newTestLedger returns a ledger with predictable ids ("t1", "t2", ...), a
// fixed clock and one account "acc" holding initialCash.
func newTestLedger(t *testing.T, initialCash float64, opts ...Option) *Ledger {
	t.Helper()
	n := 0
	opts = append([]Option{
		WithIDGenerator(func() string { n++; return fmt.Sprintf("t%d", n) }),
		WithClock(func() date.Date { return day("2025-06-30") }),
	}, opts...)
	l := NewLedger(opts...)
	if _, err := l.AddAccount(Account{ID: "acc", Name: "Brokerage", InitialCash: USD(initialCash)}); err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}
	return l
}

func mustAddStock(t *testing.T, l *Ledger, tx StockTransaction) string {
	t.Helper()
	if tx.AccountID == "" {
		tx.AccountID = "acc"
	}
	r, err := l.AddStockTransaction(tx)
	if err != nil {
		t.Fatalf("AddStockTransaction(%s %s) error = %v", tx.Action, tx.Ticker, err)
	}
	return r.ID
}

func mustAddOption(t *testing.T, l *Ledger, tx OptionTransaction) string {
	t.Helper()
	if tx.AccountID == "" {
		tx.AccountID = "acc"
	}
	r, err := l.AddOptionTransaction(tx)
	if err != nil {
		t.Fatalf("AddOptionTransaction(%s %s) error = %v", tx.Action, tx.Ticker, err)
	}
	return r.ID
}

func buy(on, ticker string, shares, price float64) StockTransaction {
	return StockTransaction{Ticker: ticker, Action: Buy, Shares: Q(shares), Price: USD(price), Date: day(on)}
}

func sell(on, ticker string, shares, price float64) StockTransaction {
	return StockTransaction{Ticker: ticker, Action: Sell, Shares: Q(shares), Price: USD(price), Date: day(on)}
}

func cash(t *testing.T, l *Ledger) Money {
	t.Helper()
	a, err := l.Account("acc")
	if err != nil {
		t.Fatalf("Account() error = %v", err)
	}
	return a.Cash
}
