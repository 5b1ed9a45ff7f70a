package renderer

import (
	"fmt"
	"strings"

	"github.com/lmazzei55/tradelog"
)

// TransactionsMarkdown renders the ledger transactions, stocks then options.
func TransactionsMarkdown(stocks []tradelog.StockTransaction, options []tradelog.OptionTransaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Transactions\n\n")
	if len(stocks) == 0 && len(options) == 0 {
		fmt.Fprintln(&b, "No transactions.")
		return b.String()
	}
	if len(stocks) > 0 {
		fmt.Fprintf(&b, "## Stocks\n\n")
		table(&b, "lcllrrrrl", "ID", "Date", "Account", "Action", "Shares", "Price", "Amount", "Fees", "Notes")
		for _, tx := range stocks {
			action := string(tx.Action)
			if tx.SplitRatio != nil {
				action += " " + tx.SplitRatio.String()
			}
			row(&b,
				tx.ID,
				tx.Date.String(),
				tx.AccountID,
				action+" "+tx.Ticker,
				tx.Shares.String(),
				tx.Price.String(),
				tx.Amount.String(),
				tx.Fees.String(),
				tx.Notes,
			)
		}
		fmt.Fprintln(&b)
	}
	if len(options) > 0 {
		fmt.Fprintf(&b, "## Options\n\n")
		table(&b, "lcllrcrrrcl", "ID", "Date", "Account", "Action", "Strike", "Expiration", "Contracts", "Premium", "Fees", "Status", "Notes")
		for _, tx := range options {
			row(&b,
				tx.ID,
				tx.Date.String(),
				tx.AccountID,
				fmt.Sprintf("%s %s %s", tx.Action, tx.Ticker, tx.Type),
				tx.Strike.String(),
				tx.Expiration.String(),
				fmt.Sprint(tx.Contracts),
				tx.TotalPremium.String(),
				tx.Fees.String(),
				string(tx.Status),
				tx.Notes,
			)
		}
	}
	return b.String()
}
