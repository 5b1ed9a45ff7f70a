package tradelog

import (
	"testing"
)

func TestStockCashEffect(t *testing.T) {
	tests := []struct {
		tx   StockTransaction
		want Money
	}{
		{StockTransaction{Action: Buy, Amount: USD(1000), Fees: USD(1)}, USD(-1001)},
		{StockTransaction{Action: Sell, Amount: USD(1000), Fees: USD(1)}, USD(999)},
		{StockTransaction{Action: Dividend, Amount: USD(12.5), Fees: USD(1)}, USD(12.5)},
		{StockTransaction{Action: Split, Amount: USD(1000)}, USD(0)},
		{StockTransaction{Action: TransferIn, Amount: USD(1000)}, USD(0)},
		{StockTransaction{Action: TransferOut, Amount: USD(1000)}, USD(0)},
	}
	for _, tt := range tests {
		t.Run(string(tt.tx.Action), func(t *testing.T) {
			if got := StockCashEffect(tt.tx); !got.Equal(tt.want) {
				t.Errorf("StockCashEffect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptionCashEffect(t *testing.T) {
	tests := []struct {
		action OptionAction
		want   Money
	}{
		{SellToOpen, USD(698)},
		{SellToClose, USD(698)},
		{BuyToOpen, USD(-702)},
		{BuyToClose, USD(-702)},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			tx := OptionTransaction{Action: tt.action, TotalPremium: USD(700), Fees: USD(2)}
			if got := OptionCashEffect(tx); !got.Equal(tt.want) {
				t.Errorf("OptionCashEffect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCash_AddThenDeleteIsNeutral(t *testing.T) {
	l := newTestLedger(t, 10000)
	mustAddStock(t, l, buy("2025-01-02", "AAPL", 10, 150))
	before := cash(t, l)

	// interleave other transactions between the add and the delete.
	id := mustAddStock(t, l, sell("2025-01-05", "AAPL", 3, 161.27))
	mustAddStock(t, l, buy("2025-01-06", "MSFT", 2, 401.1))
	mustAddOption(t, l, sto("", "2025-01-07", 1, 170, 2.13))
	if err := l.DeleteStockTransaction(id); err != nil {
		t.Fatalf("DeleteStockTransaction() error = %v", err)
	}

	want := before.Sub(USD(802.2)).Add(USD(213))
	if got := cash(t, l); !got.Equal(want) {
		t.Errorf("cash = %v, want %v", got.Decimal(), want.Decimal())
	}
	if drift := l.CashDrift(); len(drift) != 0 {
		t.Errorf("CashDrift() = %v, want none", drift)
	}
}

func TestCash_DeleteOptionReversesCash(t *testing.T) {
	l := newTestLedger(t, 50000)
	open := sto("", "2025-01-02", 2, 170, 3.5)
	open.Fees = USD(2)
	id := mustAddOption(t, l, open)
	res, err := l.ClosePosition(CloseRequest{PositionID: id, Type: StatusClosed, Price: ptr(USD(1)), Fees: ptr(USD(1)), Contracts: 1, Date: day("2025-01-15")})
	if err != nil {
		t.Fatal(err)
	}
	if got := cash(t, l); !got.Equal(USD(50597)) {
		t.Fatalf("cash = %v, want 50597", got)
	}

	// the close goes first, then the opening it depended on.
	if err := l.DeleteOptionTransaction(res.Transaction.ID); err != nil {
		t.Fatalf("DeleteOptionTransaction(close) error = %v", err)
	}
	if got := cash(t, l); !got.Equal(USD(50698)) {
		t.Errorf("cash after deleting the close = %v, want 50698", got)
	}
	if err := l.DeleteOptionTransaction(id); err != nil {
		t.Fatalf("DeleteOptionTransaction(open) error = %v", err)
	}
	if got := cash(t, l); !got.Equal(USD(50000)) {
		t.Errorf("cash after deleting the opening = %v, want 50000", got)
	}
	if drift := l.CashDrift(); len(drift) != 0 {
		t.Errorf("CashDrift() = %v, want none", drift)
	}
}

func TestCash_UpdateAppliesTheDelta(t *testing.T) {
	l := newTestLedger(t, 10000)
	id := mustAddStock(t, l, buy("2025-01-02", "AAPL", 10, 150))
	if got, want := cash(t, l), USD(8500); !got.Equal(want) {
		t.Fatalf("cash = %v, want %v", got, want)
	}

	if _, err := l.UpdateStockTransaction(id, StockPatch{Shares: ptr(Q(20)), Fees: ptr(USD(5))}); err != nil {
		t.Fatalf("UpdateStockTransaction() error = %v", err)
	}
	if got, want := cash(t, l), USD(6995); !got.Equal(want) {
		t.Errorf("cash = %v, want %v", got, want)
	}

	// same transaction set reached by a different path.
	other := newTestLedger(t, 10000)
	mustAddStock(t, other, StockTransaction{Ticker: "AAPL", Action: Buy, Shares: Q(20), Price: USD(150), Fees: USD(5), Date: day("2025-01-02")})
	if got, want := cash(t, l), cash(t, other); !got.Equal(want) {
		t.Errorf("cash = %v, want %v as when added directly", got, want)
	}
}

func TestCash_UpdateMovesAccounts(t *testing.T) {
	l := newTestLedger(t, 1000)
	if _, err := l.AddAccount(Account{ID: "ira", Name: "IRA", InitialCash: USD(500)}); err != nil {
		t.Fatal(err)
	}
	id := mustAddStock(t, l, StockTransaction{Ticker: "KO", Action: Dividend, Amount: USD(40), Date: day("2025-01-02")})

	if _, err := l.UpdateStockTransaction(id, StockPatch{AccountID: ptr("ira")}); err != nil {
		t.Fatalf("UpdateStockTransaction() error = %v", err)
	}
	ira, _ := l.Account("ira")
	if got := cash(t, l); !got.Equal(USD(1000)) {
		t.Errorf("acc cash = %v, want 1000", got)
	}
	if !ira.Cash.Equal(USD(540)) {
		t.Errorf("ira cash = %v, want 540", ira.Cash)
	}
}

func TestRecomputeCash(t *testing.T) {
	l := newTestLedger(t, 1000)
	mustAddStock(t, l, StockTransaction{Ticker: "KO", Action: Dividend, Amount: USD(40), Date: day("2025-01-02")})

	s := l.Snapshot()
	s.Accounts[0].Cash = USD(1)
	if err := l.LoadSnapshot(s); err != nil {
		t.Fatal(err)
	}
	if drift := l.CashDrift(); !drift["acc"].Equal(USD(-1039)) {
		t.Errorf("CashDrift() = %v, want acc:-1039", drift)
	}
	if fixed := l.RecomputeCash(); len(fixed) != 1 || fixed[0] != "acc" {
		t.Errorf("RecomputeCash() = %v, want [acc]", fixed)
	}
	if got := cash(t, l); !got.Equal(USD(1040)) {
		t.Errorf("cash = %v, want 1040", got)
	}
}
