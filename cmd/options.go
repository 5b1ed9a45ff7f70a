package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/lmazzei55/tradelog"
	"github.com/lmazzei55/tradelog/renderer"
)

// --- Close Command ---

type closeCmd struct {
	id        string
	typ       string
	price     moneyFlag
	fees      moneyFlag
	contracts int64
	date      dateFlag
	notes     string
}

func (*closeCmd) Name() string     { return "close" }
func (*closeCmd) Synopsis() string { return "close, expire, assign or exercise an option position" }
func (*closeCmd) Usage() string {
	return `tlog close -id <position> [-type <closed|expired|assigned|exercised>] [-p <price>] [-fees <fees>] [-n <contracts>] [-d <date>] [-m <notes>]

  Closes contracts of an open option position and records the realized P&L.
  The position is given by its id (the id of its opening transaction) or by
  its key account:TICKER:strike:expiration:type. Assigned and exercised
  positions also record the stock leg at the strike price.
`
}

func (c *closeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Position id or key")
	f.StringVar(&c.typ, "type", "closed", "closed, expired, assigned or exercised")
	f.Var(&c.price, "p", "Closing premium per share (closed only)")
	f.Var(&c.fees, "fees", "Closing fees")
	f.Int64Var(&c.contracts, "n", 0, "Contracts to close, all remaining when 0")
	f.Var(&c.date, "d", "Close date, defaults to the expiration for expired, to today otherwise")
	f.StringVar(&c.notes, "m", "", "An optional note for the closing transaction")
}

func (c *closeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	typ, err := tradelog.ParseOptionStatus(c.typ)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	res, err := a.ledger.ClosePosition(tradelog.CloseRequest{
		PositionID: c.id,
		Type:       typ,
		Price:      c.price.ptr(),
		Fees:       c.fees.ptr(),
		Contracts:  c.contracts,
		Date:       c.date.value,
		Notes:      c.notes,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error closing position %q: %v\n", c.id, err)
		return subcommands.ExitFailure
	}
	if err := a.save(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.CloseMarkdown([]tradelog.CloseResult{res}))
	return subcommands.ExitSuccess
}

// --- Expire Command ---

type expireCmd struct {
	date dateFlag
}

func (*expireCmd) Name() string     { return "expire" }
func (*expireCmd) Synopsis() string { return "expire every open option position past its expiration" }
func (*expireCmd) Usage() string {
	return `tlog expire [-d <date>]

  Closes as expired every open position whose expiration is before the given
  date (today by default). The full premium is kept on sold options and lost
  on bought ones.
`
}

func (c *expireCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.date, "d", "Expire positions with an expiration before this date, defaults to today")
}

func (c *expireCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	results, err := a.ledger.ExpirePositions(on(c.date))
	if err != nil {
		// the positions that could be expired are still saved.
		fmt.Fprintf(os.Stderr, "Error expiring positions: %v\n", err)
	}
	if len(results) > 0 {
		if err := a.save(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	printMarkdown(renderer.CloseMarkdown(results))
	if err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- Options Command ---

type optionsCmd struct {
	account string
	open    bool
}

func (*optionsCmd) Name() string     { return "options" }
func (*optionsCmd) Synopsis() string { return "display option positions" }
func (*optionsCmd) Usage() string {
	return `tlog options [-a <account>] [-open]

  Displays open option positions and the history of closed ones.
`
}

func (c *optionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Only display positions of this account")
	f.BoolVar(&c.open, "open", false, "Only display open positions")
}

func (c *optionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	positions := a.ledger.OptionPositions(c.account)
	if c.open {
		positions = tradelog.OpenPositions(positions)
	}
	printMarkdown(renderer.OptionPositionsMarkdown(positions))
	return subcommands.ExitSuccess
}
