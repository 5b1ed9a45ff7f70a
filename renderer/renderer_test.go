package renderer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lmazzei55/tradelog"
	"github.com/lmazzei55/tradelog/date"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// tables parses md and returns every table as rows of cell texts, header
// included.
func tables(t *testing.T, md string) [][][]string {
	t.Helper()
	source := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	var result [][][]string
	var current [][]string
	var cells []string
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n.(type) {
		case *east.Table:
			if entering {
				current = nil
			} else {
				result = append(result, current)
			}
		case *east.TableHeader, *east.TableRow:
			if entering {
				cells = nil
			} else {
				current = append(current, cells)
			}
		case *east.TableCell:
			if entering {
				cells = append(cells, strings.TrimSpace(cellText(n, source)))
				return ast.WalkSkipChildren, nil
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walking markdown: %v", err)
	}
	return result
}

func cellText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
		case *ast.String:
			b.Write(v.Value)
		default:
			b.WriteString(cellText(c, source))
		}
	}
	return b.String()
}

func TestStockPositionsMarkdown(t *testing.T) {
	md := StockPositionsMarkdown([]tradelog.StockPosition{
		{
			AccountID:       "acc",
			Ticker:          "AAPL",
			Shares:          tradelog.Q(100),
			AverageCost:     tradelog.M(150),
			TotalCost:       tradelog.M(15000),
			FirstPurchase:   date.MustParse("2025-01-02"),
			LastTransaction: date.MustParse("2025-02-03"),
		},
	})
	got := tables(t, md)
	want := [][][]string{{
		{"Account", "Ticker", "Shares", "Avg Cost", "Total Cost", "First Purchase", "Last Activity"},
		{"acc", "AAPL", "100", "$150.00", "$15,000.00", "2025-01-02", "2025-02-03"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StockPositionsMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(md, "# Holdings\n") {
		t.Errorf("StockPositionsMarkdown() missing title:\n%s", md)
	}
}

func TestStockPositionsMarkdown_Empty(t *testing.T) {
	md := StockPositionsMarkdown(nil)
	if got := tables(t, md); len(got) != 0 {
		t.Errorf("StockPositionsMarkdown(nil) rendered %d tables, want 0", len(got))
	}
	if !strings.Contains(md, "No stock positions.") {
		t.Errorf("StockPositionsMarkdown(nil) = %q", md)
	}
}

func TestOptionPositionsMarkdown_Sections(t *testing.T) {
	pl := tradelog.M(248)
	exp := date.MustParse("2025-03-21")
	open := tradelog.OptionPosition{
		ID:             "o1",
		Key:            tradelog.PositionKey{AccountID: "acc", Ticker: "AAPL", Strike: "150", Expiration: exp, Type: tradelog.Put},
		Short:          true,
		Strike:         tradelog.M(150),
		Contracts:      2,
		AveragePremium: tradelog.M(2.5),
		TotalPremium:   tradelog.M(500),
		Status:         tradelog.StatusOpen,
		Collateral:     tradelog.M(30000),
		OpenDate:       date.MustParse("2025-02-03"),
	}
	closed := open
	closed.ID = "o2"
	closed.Contracts = 0
	closed.Status = tradelog.StatusClosed
	closed.CloseDate = date.MustParse("2025-02-20")
	closed.RealizedPL = &pl

	tests := []struct {
		name      string
		positions []tradelog.OptionPosition
		want      []string
	}{
		{"open only", []tradelog.OptionPosition{open}, []string{"## Open"}},
		{"closed only", []tradelog.OptionPosition{closed}, []string{"## Closed"}},
		{"both", []tradelog.OptionPosition{open, closed}, []string{"## Open", "## Closed"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			md := OptionPositionsMarkdown(tc.positions)
			for _, section := range []string{"## Open", "## Closed"} {
				want := false
				for _, s := range tc.want {
					want = want || s == section
				}
				if got := strings.Contains(md, section); got != want {
					t.Errorf("section %q present = %v, want %v\n%s", section, got, want, md)
				}
			}
			if got := len(tables(t, md)); got != len(tc.want) {
				t.Errorf("got %d tables, want %d", got, len(tc.want))
			}
		})
	}
}

func TestOptionPositionsMarkdown_ClosedRow(t *testing.T) {
	pl := tradelog.M(248)
	p := tradelog.OptionPosition{
		ID:         "o1",
		Key:        tradelog.PositionKey{AccountID: "acc", Ticker: "AAPL", Strike: "150", Expiration: date.MustParse("2025-03-21"), Type: tradelog.Put},
		Short:      true,
		Strike:     tradelog.M(150),
		Status:     tradelog.StatusClosed,
		OpenDate:   date.MustParse("2025-02-03"),
		CloseDate:  date.MustParse("2025-02-20"),
		RealizedPL: &pl,
	}
	got := tables(t, OptionPositionsMarkdown([]tradelog.OptionPosition{p}))
	want := [][][]string{{
		{"Position", "Ticker", "Type", "Strike", "Expiration", "Status", "Opened", "Closed", "Realized P&L"},
		{"o1", "AAPL", "short put", "$150.00", "2025-03-21", "closed", "2025-02-03", "2025-02-20", "+$248.00"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OptionPositionsMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
}

func TestCashMarkdown(t *testing.T) {
	accounts := []tradelog.Account{
		{ID: "a1", Name: "Brokerage", InitialCash: tradelog.M(50000), Cash: tradelog.M(40000)},
		{ID: "a2", Name: "IRA", InitialCash: tradelog.M(1000), Cash: tradelog.M(1000)},
	}
	collateral := map[string]tradelog.Money{"a1": tradelog.M(15000)}

	t.Run("no drift", func(t *testing.T) {
		got := tables(t, CashMarkdown(accounts, collateral, nil))
		want := [][][]string{{
			{"Account", "Name", "Initial", "Cash", "Collateral", "Available"},
			{"a1", "Brokerage", "$50,000.00", "$40,000.00", "$15,000.00", "$25,000.00"},
			{"a2", "IRA", "$1,000.00", "$1,000.00", "$0.00", "$1,000.00"},
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("CashMarkdown() tables mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("drift", func(t *testing.T) {
		md := CashMarkdown(accounts, collateral, map[string]tradelog.Money{"a2": tradelog.M(-10)})
		got := tables(t, md)
		if len(got) != 2 {
			t.Fatalf("got %d tables, want 2:\n%s", len(got), md)
		}
		want := [][]string{{"Account", "Drift"}, {"a2", "-$10.00"}}
		if diff := cmp.Diff(want, got[1]); diff != "" {
			t.Errorf("drift table mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestAnalyticsMarkdown(t *testing.T) {
	a := tradelog.OptionsAnalytics{
		NetPremium:   tradelog.M(500),
		RealizedPL:   tradelog.M(248),
		WinRate:      100,
		ClosedTrades: 1,
		Wins:         1,
		Tickers: []tradelog.TickerAnalytics{
			{Ticker: "AAPL", NetPremium: tradelog.M(500), RealizedPL: tradelog.M(248), ClosedTrades: 1, Wins: 1},
		},
	}
	got := tables(t, AnalyticsMarkdown(a))
	if len(got) != 2 {
		t.Fatalf("got %d tables, want 2", len(got))
	}
	metrics := map[string]string{}
	for _, r := range got[0][1:] {
		metrics[r[0]] = r[1]
	}
	for name, want := range map[string]string{
		"Net Premium":   "+$500.00",
		"Realized P&L":  "+$248.00",
		"Win Rate":      "100.00%",
		"Closed Trades": "1",
	} {
		if metrics[name] != want {
			t.Errorf("metric %q = %q, want %q", name, metrics[name], want)
		}
	}
	want := []string{"AAPL", "+$500.00", "+$248.00", "1", "1"}
	if diff := cmp.Diff(want, got[1][1]); diff != "" {
		t.Errorf("ticker row mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyticsMarkdown_NoTickers(t *testing.T) {
	md := AnalyticsMarkdown(tradelog.OptionsAnalytics{})
	if strings.Contains(md, "## By Ticker") {
		t.Errorf("AnalyticsMarkdown() rendered an empty ticker section:\n%s", md)
	}
}

func TestWashSalesMarkdown(t *testing.T) {
	got := tables(t, WashSalesMarkdown([]tradelog.WashSale{
		{TransactionID: "t2", Loss: tradelog.M(500), Related: []string{"t3", "t4"}},
	}))
	want := [][][]string{{
		{"Transaction", "Disallowed Loss", "Related"},
		{"t2", "$500.00", "t3, t4"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WashSalesMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
	if md := WashSalesMarkdown(nil); !strings.Contains(md, "No wash sale detected.") {
		t.Errorf("WashSalesMarkdown(nil) = %q", md)
	}
}

func TestCloseMarkdown(t *testing.T) {
	pl := tradelog.M(248)
	got := tables(t, CloseMarkdown([]tradelog.CloseResult{{
		Position: "o1",
		Transaction: tradelog.OptionTransaction{
			ID:         "o2",
			Contracts:  2,
			Status:     tradelog.StatusAssigned,
			RealizedPL: &pl,
		},
		StockTransaction: &tradelog.StockTransaction{Action: tradelog.Buy, Shares: tradelog.Q(200), Ticker: "AAPL"},
		Remaining:        0,
	}}))
	want := [][][]string{{
		{"Position", "Transaction", "Status", "Contracts", "Remaining", "Realized P&L", "Shares", "Wash Sale"},
		{"o1", "o2", "assigned", "2", "0", "+$248.00", "buy 200 AAPL", "-"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CloseMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
}

func TestImportMarkdown(t *testing.T) {
	md := ImportMarkdown(tradelog.ImportReport{
		Added:      []tradelog.Receipt{{ID: "t1"}, {ID: "t2", WashSale: &tradelog.WashSale{TransactionID: "t2", Loss: tradelog.M(40)}}},
		Duplicates: 3,
		Failed:     1,
	})
	got := tables(t, md)
	want := [][][]string{
		{{"Outcome", "Count"}, {"Added", "2"}, {"Duplicates", "3"}, {"Failed", "1"}},
		{{"Transaction", "Disallowed Loss"}, {"t2", "$40.00"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ImportMarkdown() tables mismatch (-want +got):\n%s", diff)
	}
}

func TestTransactionsMarkdown_EscapesPipes(t *testing.T) {
	md := TransactionsMarkdown([]tradelog.StockTransaction{{
		ID:     "t1",
		Ticker: "AAPL",
		Action: tradelog.Buy,
		Shares: tradelog.Q(10),
		Date:   date.MustParse("2025-01-02"),
		Notes:  "a|b",
	}}, nil)
	got := tables(t, md)
	if len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("TransactionsMarkdown() tables = %v", got)
	}
	if n := len(got[0][1]); n != len(got[0][0]) {
		t.Errorf("row has %d cells, header has %d", n, len(got[0][0]))
	}
}
