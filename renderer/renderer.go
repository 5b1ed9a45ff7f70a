// Package renderer turns tradelog reports into markdown.
//
// Every function returns a complete markdown document (title, then tables) that
// the command line prints through a terminal renderer, or that can be written
// to a file as is.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/lmazzei55/tradelog"
)

// StockPositionsMarkdown renders the stock holdings.
func StockPositionsMarkdown(positions []tradelog.StockPosition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings\n\n")
	if len(positions) == 0 {
		fmt.Fprintln(&b, "No stock positions.")
		return b.String()
	}
	table(&b, "llrrrcc", "Account", "Ticker", "Shares", "Avg Cost", "Total Cost", "First Purchase", "Last Activity")
	total := tradelog.Money{}
	for _, p := range positions {
		row(&b,
			p.AccountID,
			p.Ticker,
			p.Shares.String(),
			p.AverageCost.String(),
			p.TotalCost.String(),
			p.FirstPurchase.String(),
			p.LastTransaction.String(),
		)
		total = total.Add(p.TotalCost)
	}
	fmt.Fprintf(&b, "\n**Total cost:** %s\n", total)
	return b.String()
}

// OptionPositionsMarkdown renders option positions, open ones first then the
// history of terminal ones.
func OptionPositionsMarkdown(positions []tradelog.OptionPosition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Option Positions\n\n")
	if len(positions) == 0 {
		fmt.Fprintln(&b, "No option positions.")
		return b.String()
	}

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "## Open\n\n")
		table(w, "lllrcrrrrc", "Position", "Ticker", "Type", "Strike", "Expiration", "Contracts", "Avg Premium", "Premium", "Collateral", "Opened")
		n := 0
		for _, p := range positions {
			if !p.IsOpen() {
				continue
			}
			n++
			row(w,
				p.ID,
				p.Key.Ticker,
				side(p)+" "+string(p.Key.Type),
				p.Strike.String(),
				p.Key.Expiration.String(),
				fmt.Sprint(p.Contracts),
				p.AveragePremium.String(),
				p.TotalPremium.String(),
				p.Collateral.String(),
				p.OpenDate.String(),
			)
		}
		fmt.Fprintln(w)
		return n > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "## Closed\n\n")
		table(w, "lllrclccr", "Position", "Ticker", "Type", "Strike", "Expiration", "Status", "Opened", "Closed", "Realized P&L")
		n := 0
		for _, p := range positions {
			if p.IsOpen() {
				continue
			}
			n++
			pl := "-"
			if p.RealizedPL != nil {
				pl = p.RealizedPL.SignedString()
			}
			closed := ""
			if !p.CloseDate.IsZero() {
				closed = p.CloseDate.String()
			}
			row(w,
				p.ID,
				p.Key.Ticker,
				side(p)+" "+string(p.Key.Type),
				p.Strike.String(),
				p.Key.Expiration.String(),
				string(p.Status),
				p.OpenDate.String(),
				orDash(closed),
				pl,
			)
		}
		fmt.Fprintln(w)
		return n > 0
	})
	return b.String()
}

func side(p tradelog.OptionPosition) string {
	if p.Short {
		return "short"
	}
	return "long"
}

// CashMarkdown renders the cash balance of accounts, with the collateral
// locked by open short puts. Accounts whose stored balance disagrees with the
// replayed transactions are listed with their drift.
func CashMarkdown(accounts []tradelog.Account, collateral, drift map[string]tradelog.Money) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cash\n\n")
	if len(accounts) == 0 {
		fmt.Fprintln(&b, "No accounts.")
		return b.String()
	}
	table(&b, "llrrrr", "Account", "Name", "Initial", "Cash", "Collateral", "Available")
	for _, a := range accounts {
		c := collateral[a.ID]
		row(&b,
			a.ID,
			a.Name,
			a.InitialCash.String(),
			a.Cash.String(),
			c.String(),
			a.Cash.Sub(c).String(),
		)
	}

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n## Drift\n\n")
		table(w, "lr", "Account", "Drift")
		n := 0
		for _, a := range accounts {
			d, ok := drift[a.ID]
			if !ok {
				continue
			}
			n++
			row(w, a.ID, d.SignedString())
		}
		return n > 0
	})
	return b.String()
}

// AnalyticsMarkdown renders the options performance report.
func AnalyticsMarkdown(a tradelog.OptionsAnalytics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Options Analytics\n\n")
	table(&b, "lr", "Metric", "Value")
	row(&b, "Net Premium", a.NetPremium.SignedString())
	row(&b, "Realized P&L", a.RealizedPL.SignedString())
	row(&b, "Closed Trades", fmt.Sprint(a.ClosedTrades))
	row(&b, "Win Rate", a.WinRate.String())
	row(&b, "Annualized Return", a.AnnualizedReturn.SignedString())
	row(&b, "Collateral Efficiency", a.CollateralEfficiency.SignedString())
	row(&b, "Active Collateral", a.ActiveCollateral.String())
	row(&b, "Assignment Rate", a.AssignmentRate.String())
	row(&b, "Open Positions", fmt.Sprint(a.OpenPositions))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n## By Ticker\n\n")
		table(w, "lrrrr", "Ticker", "Net Premium", "Realized P&L", "Closed", "Wins")
		for _, t := range a.Tickers {
			row(w,
				t.Ticker,
				t.NetPremium.SignedString(),
				t.RealizedPL.SignedString(),
				fmt.Sprint(t.ClosedTrades),
				fmt.Sprint(t.Wins),
			)
		}
		return len(a.Tickers) > 0
	})
	return b.String()
}

// WashSalesMarkdown renders the flagged wash sales.
func WashSalesMarkdown(sales []tradelog.WashSale) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Wash Sales\n\n")
	if len(sales) == 0 {
		fmt.Fprintln(&b, "No wash sale detected.")
		return b.String()
	}
	table(&b, "lrl", "Transaction", "Disallowed Loss", "Related")
	for _, s := range sales {
		row(&b, s.TransactionID, s.Loss.String(), strings.Join(s.Related, ", "))
	}
	return b.String()
}

// CloseMarkdown renders the outcome of closing option positions.
func CloseMarkdown(results []tradelog.CloseResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Closed Positions\n\n")
	if len(results) == 0 {
		fmt.Fprintln(&b, "Nothing to close.")
		return b.String()
	}
	table(&b, "llcrrrrl", "Position", "Transaction", "Status", "Contracts", "Remaining", "Realized P&L", "Shares", "Wash Sale")
	for _, r := range results {
		tx := r.Transaction
		pl := "-"
		if tx.RealizedPL != nil {
			pl = tx.RealizedPL.SignedString()
		}
		shares := "-"
		if r.StockTransaction != nil {
			shares = fmt.Sprintf("%s %s %s", r.StockTransaction.Action, r.StockTransaction.Shares, r.StockTransaction.Ticker)
		}
		wash := "-"
		if r.WashSale != nil {
			wash = r.WashSale.Loss.String()
		}
		row(&b,
			r.Position,
			tx.ID,
			string(tx.Status),
			fmt.Sprint(tx.Contracts),
			fmt.Sprint(r.Remaining),
			pl,
			shares,
			wash,
		)
	}
	return b.String()
}

// ImportMarkdown renders an import report.
func ImportMarkdown(r tradelog.ImportReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Import\n\n")
	table(&b, "lr", "Outcome", "Count")
	row(&b, "Added", fmt.Sprint(len(r.Added)))
	row(&b, "Duplicates", fmt.Sprint(r.Duplicates))
	row(&b, "Failed", fmt.Sprint(r.Failed))

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n## Wash Sales\n\n")
		table(w, "lr", "Transaction", "Disallowed Loss")
		n := 0
		for _, rc := range r.Added {
			if rc.WashSale == nil {
				continue
			}
			n++
			row(w, rc.ID, rc.WashSale.Loss.String())
		}
		return n > 0
	})
	return b.String()
}
