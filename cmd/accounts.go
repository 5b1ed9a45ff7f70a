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

// --- Account Command ---

type accountCmd struct {
	id   string
	name string
	cash moneyFlag
}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "create a brokerage account" }
func (*accountCmd) Usage() string {
	return `tlog account -name <name> [-cash <amount>] [-id <id>]

  Creates an account with an initial cash balance. The id is generated
  when not given.
`
}

func (c *accountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Account id (generated if empty)")
	f.StringVar(&c.name, "name", "", "Account name")
	f.Var(&c.cash, "cash", "Initial cash balance")
}

func (c *accountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	id, err := a.ledger.AddAccount(tradelog.Account{ID: c.id, Name: c.name, InitialCash: c.cash.value})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating account: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.save(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Created account %s\n", id)
	return subcommands.ExitSuccess
}

// --- Cash Command ---

type cashCmd struct {
	fix bool
}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "display cash balances and locked collateral" }
func (*cashCmd) Usage() string {
	return `tlog cash [-fix]

  Displays the cash balance of every account, the collateral locked by open
  short puts, and any drift between the stored balance and the balance
  replayed from the transactions. With -fix, drifting balances are reset to
  the replayed ones.
`
}

func (c *cashCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.fix, "fix", false, "reset drifting balances to the ones replayed from the transactions")
}

func (c *cashCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if c.fix {
		if fixed := a.ledger.RecomputeCash(); len(fixed) > 0 {
			if err := a.save(ctx); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
		}
	}

	accounts := a.ledger.Accounts()
	collateral := make(map[string]tradelog.Money, len(accounts))
	for _, acc := range accounts {
		collateral[acc.ID] = a.ledger.ActiveCollateral(acc.ID)
	}
	printMarkdown(renderer.CashMarkdown(accounts, collateral, a.ledger.CashDrift()))
	return subcommands.ExitSuccess
}
