package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/lmazzei55/tradelog"
	"github.com/lmazzei55/tradelog/date"
	"github.com/lmazzei55/tradelog/renderer"
)

// printReceipt reports the added transaction and a wash sale it triggered.
func printReceipt(verb string, r tradelog.Receipt) {
	fmt.Fprintf(stdout, "%s transaction %s\n", verb, r.ID)
	if r.WashSale != nil {
		fmt.Fprintf(stdout, "Warning: wash sale, %s of loss disallowed (related: %v)\n", r.WashSale.Loss, r.WashSale.Related)
	}
}

// on returns the date flag value, or today.
func on(d dateFlag) date.Date {
	if d.set {
		return d.value
	}
	return date.Today()
}

// --- Stock Command ---

type stockCmd struct {
	account string
	date    dateFlag
	action  string
	ticker  string
	shares  quantityFlag
	price   moneyFlag
	amount  moneyFlag
	fees    moneyFlag
	split   string
	notes   string
}

func (*stockCmd) Name() string     { return "stock" }
func (*stockCmd) Synopsis() string { return "record a stock transaction" }
func (*stockCmd) Usage() string {
	return `tlog stock -action <buy|sell|dividend|split|transfer-in|transfer-out> -t <ticker> [-q <shares>] [-p <price>] [-amount <total>] [-fees <fees>] [-split <new:old>] [-d <date>] [-a <account>] [-m <notes>]

  Records a stock transaction. The total amount defaults to shares × price.
  Sells are checked against the shares held on their date, and reported when
  they trigger a wash sale.
`
}

func (c *stockCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account id (defaults to the configured default account)")
	f.Var(&c.date, "d", "Transaction date (YYYY-MM-DD), defaults to today")
	f.StringVar(&c.action, "action", "", "buy, sell, dividend, split, transfer-in or transfer-out")
	f.StringVar(&c.ticker, "t", "", "Ticker")
	f.Var(&c.shares, "q", "Number of shares")
	f.Var(&c.price, "p", "Price per share")
	f.Var(&c.amount, "amount", "Total amount, defaults to shares × price")
	f.Var(&c.fees, "fees", "Fees")
	f.StringVar(&c.split, "split", "", "Split ratio new:old, e.g. 2:1")
	f.StringVar(&c.notes, "m", "", "An optional note for the transaction")
}

func (c *stockCmd) transaction(account string) (tradelog.StockTransaction, error) {
	tx := tradelog.StockTransaction{
		AccountID: account,
		Ticker:    c.ticker,
		Action:    tradelog.StockAction(c.action),
		Shares:    c.shares.value,
		Price:     c.price.value,
		Amount:    c.amount.value,
		Fees:      c.fees.value,
		Date:      on(c.date),
		Notes:     c.notes,
	}
	if c.split != "" {
		r, err := tradelog.ParseSplitRatio(c.split)
		if err != nil {
			return tx, err
		}
		tx.SplitRatio = &r
	}
	return tx, nil
}

func (c *stockCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.action == "" || c.ticker == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	tx, err := c.transaction(a.account(c.account))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	r, err := a.ledger.AddStockTransaction(tx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stock transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.save(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printReceipt("Added", r)
	return subcommands.ExitSuccess
}

// --- Option Command ---

type optionCmd struct {
	account    string
	date       dateFlag
	action     string
	typ        string
	ticker     string
	strategy   string
	contracts  int64
	strike     moneyFlag
	premium    moneyFlag
	fees       moneyFlag
	expiration dateFlag
	collateral moneyFlag
	notes      string
}

func (*optionCmd) Name() string     { return "option" }
func (*optionCmd) Synopsis() string { return "record an option transaction" }
func (*optionCmd) Usage() string {
	return `tlog option -action <sto|bto|btc|stc> -type <call|put> -t <ticker> -n <contracts> -strike <price> -exp <date> [-premium <per share>] [-fees <fees>] [-strategy <name>] [-collateral <amount>] [-d <date>] [-a <account>] [-m <notes>]

  Records an option transaction. The total premium is contracts × 100 ×
  premium. A sold put reserves strike × 100 × contracts as collateral unless
  -collateral is given. Use "tlog close" to close a position with its
  realized P&L computed.
`
}

func (c *optionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account id (defaults to the configured default account)")
	f.Var(&c.date, "d", "Transaction date (YYYY-MM-DD), defaults to today")
	f.StringVar(&c.action, "action", "", "sell-to-open, buy-to-open, buy-to-close or sell-to-close (sto, bto, btc, stc)")
	f.StringVar(&c.typ, "type", "", "call or put")
	f.StringVar(&c.ticker, "t", "", "Underlying ticker")
	f.StringVar(&c.strategy, "strategy", "", "Strategy label, e.g. cash-secured-put")
	f.Int64Var(&c.contracts, "n", 0, "Number of contracts")
	f.Var(&c.strike, "strike", "Strike price")
	f.Var(&c.premium, "premium", "Premium per share")
	f.Var(&c.fees, "fees", "Fees")
	f.Var(&c.expiration, "exp", "Expiration date (YYYY-MM-DD)")
	f.Var(&c.collateral, "collateral", "Collateral reserved, defaults to strike × 100 × contracts for sold puts")
	f.StringVar(&c.notes, "m", "", "An optional note for the transaction")
}

func (c *optionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.action == "" || c.typ == "" || c.ticker == "" || c.contracts <= 0 || !c.strike.set || !c.expiration.set {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	r, err := a.ledger.AddOptionTransaction(tradelog.OptionTransaction{
		AccountID:  a.account(c.account),
		Ticker:     c.ticker,
		Strategy:   c.strategy,
		Type:       tradelog.OptionType(c.typ),
		Action:     tradelog.OptionAction(c.action),
		Contracts:  c.contracts,
		Strike:     c.strike.value,
		Premium:    c.premium.value,
		Fees:       c.fees.value,
		Expiration: c.expiration.value,
		Date:       on(c.date),
		Collateral: c.collateral.ptr(),
		Notes:      c.notes,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding option transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.save(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printReceipt("Added", r)
	return subcommands.ExitSuccess
}

// --- Edit Command ---

type editCmd struct {
	id     string
	stock  stockCmd
	option optionCmd
	status string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "modify fields of a recorded transaction" }
func (*editCmd) Usage() string {
	return `tlog edit -id <transaction id> [field flags]

  Modifies a stock or option transaction. Only the flags given on the command
  line are changed; the transaction is validated again and the account cash
  adjusted by the difference.

  Stock fields:  -a -d -action -t -q -p -amount -fees -split -m
  Option fields: -a -d -action -type -t -strategy -n -strike -premium -fees -exp -collateral -status -m
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Transaction id")
	// stock and option flags share names; they are bound to the stock command
	// and copied to the option one when the transaction is an option.
	c.stock.SetFlags(f)
	f.StringVar(&c.option.typ, "type", "", "call or put")
	f.StringVar(&c.option.strategy, "strategy", "", "Strategy label")
	f.Int64Var(&c.option.contracts, "n", 0, "Number of contracts")
	f.Var(&c.option.strike, "strike", "Strike price")
	f.Var(&c.option.premium, "premium", "Premium per share")
	f.Var(&c.option.expiration, "exp", "Expiration date (YYYY-MM-DD)")
	f.Var(&c.option.collateral, "collateral", "Collateral reserved")
	f.StringVar(&c.status, "status", "", "open, closed, expired, assigned or exercised")
}

func (c *editCmd) stockPatch(set map[string]bool) (tradelog.StockPatch, error) {
	s := &c.stock
	var p tradelog.StockPatch
	if set["a"] {
		p.AccountID = &s.account
	}
	if set["t"] {
		p.Ticker = &s.ticker
	}
	if set["action"] {
		action := tradelog.StockAction(s.action)
		p.Action = &action
	}
	p.Shares = s.shares.ptr()
	p.Price = s.price.ptr()
	p.Amount = s.amount.ptr()
	p.Fees = s.fees.ptr()
	p.Date = s.date.ptr()
	if set["split"] {
		r, err := tradelog.ParseSplitRatio(s.split)
		if err != nil {
			return p, err
		}
		p.SplitRatio = &r
	}
	if set["m"] {
		p.Notes = &s.notes
	}
	return p, nil
}

func (c *editCmd) optionPatch(set map[string]bool) tradelog.OptionPatch {
	s, o := &c.stock, &c.option
	var p tradelog.OptionPatch
	if set["a"] {
		p.AccountID = &s.account
	}
	if set["t"] {
		p.Ticker = &s.ticker
	}
	if set["action"] {
		action := tradelog.OptionAction(s.action)
		p.Action = &action
	}
	if set["type"] {
		typ := tradelog.OptionType(o.typ)
		p.Type = &typ
	}
	if set["strategy"] {
		p.Strategy = &o.strategy
	}
	if set["n"] {
		p.Contracts = &o.contracts
	}
	if set["status"] {
		status := tradelog.OptionStatus(c.status)
		p.Status = &status
	}
	p.Strike = o.strike.ptr()
	p.Premium = o.premium.ptr()
	p.Fees = s.fees.ptr()
	p.Expiration = o.expiration.ptr()
	p.Date = s.date.ptr()
	p.Collateral = o.collateral.ptr()
	if set["m"] {
		p.Notes = &s.notes
	}
	return p
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	set := visited(f)
	var r tradelog.Receipt
	if _, err = a.ledger.StockTransaction(c.id); err == nil {
		var p tradelog.StockPatch
		if p, err = c.stockPatch(set); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		r, err = a.ledger.UpdateStockTransaction(c.id, p)
	} else if tradelog.IsNotFound(err) {
		r, err = a.ledger.UpdateOptionTransaction(c.id, c.optionPatch(set))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error editing transaction %q: %v\n", c.id, err)
		return subcommands.ExitFailure
	}
	if err := a.save(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printReceipt("Updated", r)
	return subcommands.ExitSuccess
}

// --- Rm Command ---

type rmCmd struct {
	id string
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete a recorded transaction" }
func (*rmCmd) Usage() string {
	return `tlog rm -id <transaction id>

  Deletes a stock or option transaction and reverses its cash effect.
`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Transaction id")
}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	err = a.ledger.DeleteStockTransaction(c.id)
	if tradelog.IsNotFound(err) {
		err = a.ledger.DeleteOptionTransaction(c.id)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting transaction %q: %v\n", c.id, err)
		return subcommands.ExitFailure
	}
	if err := a.save(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Deleted transaction %s\n", c.id)
	return subcommands.ExitSuccess
}

// --- Tx Command ---

type txCmd struct {
	account string
	head    int
	tail    int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list all transactions in the ledger" }
func (*txCmd) Usage() string {
	return `tlog tx [-a <account>] [-head <n>] [-tail <n>]

  Lists stock and option transactions in date order.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Only list transactions of this account")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions of each kind.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions of each kind.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	var stocks []tradelog.StockTransaction
	for _, tx := range tradelog.SortedStockTransactions(a.ledger.StockTransactions()) {
		if c.account == "" || tx.AccountID == c.account {
			stocks = append(stocks, tx)
		}
	}
	var options []tradelog.OptionTransaction
	for _, tx := range tradelog.SortedOptionTransactions(a.ledger.OptionTransactions()) {
		if c.account == "" || tx.AccountID == c.account {
			options = append(options, tx)
		}
	}
	printMarkdown(renderer.TransactionsMarkdown(limit(stocks, c.head, c.tail), limit(options, c.head, c.tail)))
	return subcommands.ExitSuccess
}

func limit[T any](s []T, head, tail int) []T {
	if head > 0 && len(s) > head {
		return s[:head]
	}
	if tail > 0 && len(s) > tail {
		return s[len(s)-tail:]
	}
	return s
}
