package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/lmazzei55/tradelog/renderer"
)

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct {
	account string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display stock holdings with their average cost" }
func (*holdingsCmd) Usage() string {
	return `tlog holdings [-a <account>]

  Displays the shares held per account and ticker, replayed from the stock
  transactions, with their average cost basis.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Only display holdings of this account")
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	printMarkdown(renderer.StockPositionsMarkdown(a.ledger.StockPositions(c.account)))
	return subcommands.ExitSuccess
}

type washCmd struct{}

func (*washCmd) Name() string     { return "wash" }
func (*washCmd) Synopsis() string { return "list transactions flagged as wash sales" }
func (*washCmd) Usage() string {
	return `tlog wash

  Lists every loss sale with a replacement purchase of the same ticker within
  30 days before or after it, and every such purchase, with the disallowed loss.
`
}

func (*washCmd) SetFlags(*flag.FlagSet) {}

func (c *washCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	printMarkdown(renderer.WashSalesMarkdown(a.ledger.WashSales()))
	return subcommands.ExitSuccess
}

type statsCmd struct {
	account string
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "display options performance analytics" }
func (*statsCmd) Usage() string {
	return `tlog stats [-a <account>]

  Displays net premium, realized P&L, win rate, annualized return, collateral
  efficiency and assignment rate of option trades.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Only report on this account")
}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	printMarkdown(renderer.AnalyticsMarkdown(a.ledger.ComputeAnalytics(c.account)))
	return subcommands.ExitSuccess
}
