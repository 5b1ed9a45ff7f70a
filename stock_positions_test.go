package tradelog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestProjectStockPositions(t *testing.T) {
	tests := []struct {
		name string
		txs  []StockTransaction
		want []StockPosition
	}{
		{
			name: "buy then partial sell keeps average cost",
			txs: []StockTransaction{
				{ID: "1", AccountID: "acc", Ticker: "AAPL", Action: Buy, Shares: Q(100), Price: USD(150), Date: day("2025-01-10")},
				{ID: "2", AccountID: "acc", Ticker: "AAPL", Action: Sell, Shares: Q(50), Price: USD(160), Date: day("2025-02-01")},
			},
			want: []StockPosition{
				{AccountID: "acc", Ticker: "AAPL", Shares: Q(50), AverageCost: USD(150), TotalCost: USD(7500),
					FirstPurchase: day("2025-01-10"), LastTransaction: day("2025-02-01"), TransactionIDs: []string{"1", "2"}},
			},
		},
		{
			name: "buys are volume weighted",
			txs: []StockTransaction{
				{ID: "1", AccountID: "acc", Ticker: "MSFT", Action: Buy, Shares: Q(10), Price: USD(100), Date: day("2025-01-10")},
				{ID: "2", AccountID: "acc", Ticker: "MSFT", Action: Buy, Shares: Q(30), Price: USD(200), Date: day("2025-01-11")},
			},
			want: []StockPosition{
				{AccountID: "acc", Ticker: "MSFT", Shares: Q(40), AverageCost: USD(175), TotalCost: USD(7000),
					FirstPurchase: day("2025-01-10"), LastTransaction: day("2025-01-11"), TransactionIDs: []string{"1", "2"}},
			},
		},
		{
			name: "transactions are replayed by date",
			txs: []StockTransaction{
				{ID: "2", AccountID: "acc", Ticker: "AAPL", Action: Sell, Shares: Q(50), Price: USD(160), Date: day("2025-02-01")},
				{ID: "1", AccountID: "acc", Ticker: "AAPL", Action: Buy, Shares: Q(100), Price: USD(150), Date: day("2025-01-10")},
			},
			want: []StockPosition{
				{AccountID: "acc", Ticker: "AAPL", Shares: Q(50), AverageCost: USD(150), TotalCost: USD(7500),
					FirstPurchase: day("2025-01-10"), LastTransaction: day("2025-02-01"), TransactionIDs: []string{"1", "2"}},
			},
		},
		{
			name: "selling everything removes the position",
			txs: []StockTransaction{
				{ID: "1", AccountID: "acc", Ticker: "AAPL", Action: Buy, Shares: Q(100), Price: USD(150), Date: day("2025-01-10")},
				{ID: "2", AccountID: "acc", Ticker: "AAPL", Action: Sell, Shares: Q(100), Price: USD(120), Date: day("2025-02-01")},
			},
			want: []StockPosition{},
		},
		{
			name: "selling a ticker never bought is ignored",
			txs: []StockTransaction{
				{ID: "1", AccountID: "acc", Ticker: "TSLA", Action: Sell, Shares: Q(5), Price: USD(200), Date: day("2025-01-10")},
			},
			want: []StockPosition{},
		},
		{
			name: "split scales shares and average cost",
			txs: []StockTransaction{
				{ID: "1", AccountID: "acc", Ticker: "NVDA", Action: Buy, Shares: Q(10), Price: USD(1000), Date: day("2024-06-01")},
				{ID: "2", AccountID: "acc", Ticker: "NVDA", Action: Split, SplitRatio: &SplitRatio{New: 10, Old: 1}, Date: day("2024-06-10")},
			},
			want: []StockPosition{
				{AccountID: "acc", Ticker: "NVDA", Shares: Q(100), AverageCost: USD(100), TotalCost: USD(10000),
					FirstPurchase: day("2024-06-01"), LastTransaction: day("2024-06-10"), TransactionIDs: []string{"1", "2"}},
			},
		},
		{
			name: "transfer in uses the amount when there is no price",
			txs: []StockTransaction{
				{ID: "1", AccountID: "acc", Ticker: "VTI", Action: TransferIn, Shares: Q(4), Amount: USD(1000), Date: day("2025-03-01")},
				{ID: "2", AccountID: "acc", Ticker: "VTI", Action: Dividend, Amount: USD(12), Date: day("2025-03-20")},
			},
			want: []StockPosition{
				{AccountID: "acc", Ticker: "VTI", Shares: Q(4), AverageCost: USD(250), TotalCost: USD(1000),
					FirstPurchase: day("2025-03-01"), LastTransaction: day("2025-03-20"), TransactionIDs: []string{"1", "2"}},
			},
		},
		{
			name: "positions are sorted by account then ticker",
			txs: []StockTransaction{
				{ID: "1", AccountID: "b", Ticker: "AAPL", Action: Buy, Shares: Q(1), Price: USD(10), Date: day("2025-01-01")},
				{ID: "2", AccountID: "a", Ticker: "MSFT", Action: Buy, Shares: Q(1), Price: USD(10), Date: day("2025-01-01")},
				{ID: "3", AccountID: "a", Ticker: "AAPL", Action: Buy, Shares: Q(1), Price: USD(10), Date: day("2025-01-01")},
			},
			want: []StockPosition{
				{AccountID: "a", Ticker: "AAPL", Shares: Q(1), AverageCost: USD(10), TotalCost: USD(10), FirstPurchase: day("2025-01-01"), LastTransaction: day("2025-01-01"), TransactionIDs: []string{"3"}},
				{AccountID: "a", Ticker: "MSFT", Shares: Q(1), AverageCost: USD(10), TotalCost: USD(10), FirstPurchase: day("2025-01-01"), LastTransaction: day("2025-01-01"), TransactionIDs: []string{"2"}},
				{AccountID: "b", Ticker: "AAPL", Shares: Q(1), AverageCost: USD(10), TotalCost: USD(10), FirstPurchase: day("2025-01-01"), LastTransaction: day("2025-01-01"), TransactionIDs: []string{"1"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectStockPositions(tt.txs, "")
			if diff := cmp.Diff(tt.want, got, cmpOpts, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ProjectStockPositions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProjectStockPositions_Account(t *testing.T) {
	txs := []StockTransaction{
		{ID: "1", AccountID: "a", Ticker: "AAPL", Action: Buy, Shares: Q(1), Price: USD(10), Date: day("2025-01-01")},
		{ID: "2", AccountID: "b", Ticker: "AAPL", Action: Buy, Shares: Q(2), Price: USD(10), Date: day("2025-01-01")},
	}
	got := ProjectStockPositions(txs, "b")
	if len(got) != 1 || got[0].AccountID != "b" || !got[0].Shares.Equal(Q(2)) {
		t.Errorf("ProjectStockPositions(b) = %v, want only the 2 shares of account b", got)
	}
}

func TestProjectStockPositions_Conservation(t *testing.T) {
	txs := []StockTransaction{
		{ID: "1", AccountID: "acc", Ticker: "AMD", Action: Buy, Shares: Q(30), Price: USD(101.37), Date: day("2025-01-01")},
		{ID: "2", AccountID: "acc", Ticker: "AMD", Action: Sell, Shares: Q(7), Price: USD(99), Date: day("2025-01-02")},
		{ID: "3", AccountID: "acc", Ticker: "AMD", Action: Buy, Shares: Q(13), Price: USD(87.11), Date: day("2025-01-03")},
		{ID: "4", AccountID: "acc", Ticker: "AMD", Action: Sell, Shares: Q(11), Price: USD(120), Date: day("2025-01-04")},
		{ID: "5", AccountID: "acc", Ticker: "AMD", Action: Buy, Shares: Q(2), Price: USD(140.5), Date: day("2025-01-05")},
	}

	// replay by hand: bought − removed at average cost.
	var shares Quantity
	var bought, removed Money
	for _, tx := range txs {
		switch tx.Action {
		case Buy:
			bought = bought.Add(tx.Price.Mul(tx.Shares))
			shares = shares.Add(tx.Shares)
		case Sell:
			pos := ProjectStockPositions(txs[:slicesIndex(txs, tx.ID)], "")[0]
			removed = removed.Add(pos.AverageCost.Mul(tx.Shares))
			shares = shares.Sub(tx.Shares)
		}
	}

	got := ProjectStockPositions(txs, "")[0]
	if !got.Shares.Equal(shares) {
		t.Errorf("Shares = %v, want %v", got.Shares, shares)
	}
	diff := bought.Sub(removed).Sub(got.TotalCost).Abs()
	if diff.GreaterThan(USD(0.000001)) {
		t.Errorf("TotalCost = %v, want %v", got.TotalCost.Decimal(), bought.Sub(removed).Decimal())
	}
}

func slicesIndex(txs []StockTransaction, id string) int {
	for i, tx := range txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func TestProjectStockPositions_Idempotent(t *testing.T) {
	txs := []StockTransaction{
		{ID: "1", AccountID: "acc", Ticker: "AMD", Action: Buy, Shares: Q(3), Price: USD(10), Date: day("2025-01-01")},
		{ID: "2", AccountID: "acc", Ticker: "AMD", Action: Buy, Shares: Q(7), Price: USD(13), Date: day("2025-01-01")},
		{ID: "3", AccountID: "acc", Ticker: "AMD", Action: Sell, Shares: Q(4), Price: USD(11), Date: day("2025-01-01")},
	}
	first := ProjectStockPositions(txs, "")
	second := ProjectStockPositions(txs, "")
	if diff := cmp.Diff(first, second, cmpOpts); diff != "" {
		t.Errorf("second projection differs (-first +second):\n%s", diff)
	}
}

func TestCheckHoldings(t *testing.T) {
	txs := []StockTransaction{
		{ID: "1", AccountID: "acc", Ticker: "AAPL", Action: Buy, Shares: Q(10), Price: USD(1), Date: day("2025-01-10")},
		{ID: "2", AccountID: "acc", Ticker: "AAPL", Action: Sell, Shares: Q(10), Price: USD(1), Date: day("2025-01-09")},
	}
	if err := checkHoldings(txs, "acc", "AAPL"); !IsInvalid(err) {
		t.Errorf("checkHoldings() = %v, want an invalid error for selling before buying", err)
	}
	txs[1].Date = day("2025-01-11")
	if err := checkHoldings(txs, "acc", "AAPL"); err != nil {
		t.Errorf("checkHoldings() = %v, want nil", err)
	}
}
