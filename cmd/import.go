package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/lmazzei55/tradelog"
	"github.com/lmazzei55/tradelog/renderer"
)

type importCmd struct {
	account    string
	file       string
	stockPath  string
	optionPath string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a parsed statement" }
func (*importCmd) Usage() string {
	return `tlog import -f <statement.json> [-a <account>] [-stocks <jsonpath>] [-options <jsonpath>]

  Imports candidate transactions from a JSON statement. Candidates are
  selected with jsonpath expressions (configured in [import], "$.stocks[*]"
  and "$.options[*]" by default). Candidates already recorded are skipped.
  Use "-f -" to read the statement from stdin.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "Account id (defaults to the configured default account)")
	f.StringVar(&c.file, "f", "", "JSON statement file, - for stdin")
	f.StringVar(&c.stockPath, "stocks", "", "jsonpath selecting stock candidates, overrides the configuration")
	f.StringVar(&c.optionPath, "options", "", "jsonpath selecting option candidates, overrides the configuration")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	var r io.Reader = os.Stdin
	if c.file != "-" {
		file, err := os.Open(c.file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening statement: %v\n", err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}

	stockPath, optionPath := a.cfg.Import.StockPath, a.cfg.Import.OptionPath
	if c.stockPath != "" {
		stockPath = c.stockPath
	}
	if c.optionPath != "" {
		optionPath = c.optionPath
	}
	candidates, err := tradelog.DecodeCandidates(r, stockPath, optionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading statement: %v\n", err)
		return subcommands.ExitFailure
	}

	report, importErr := a.ledger.Import(a.account(c.account), candidates)
	if importErr != nil {
		fmt.Fprintf(os.Stderr, "Some candidates were not imported:\n%v\n", importErr)
	}
	if len(report.Added) > 0 {
		if err := a.save(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	printMarkdown(renderer.ImportMarkdown(report))
	if importErr != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
