package tradelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/PaesslerAG/jsonpath"
	"go.uber.org/zap"

	"github.com/lmazzei55/tradelog/date"
)

// ParsedTransaction is a stock transaction read from a broker statement.
type ParsedTransaction struct {
	Date       date.Date   `json:"date"`
	Ticker     string      `json:"ticker"`
	Action     StockAction `json:"action"`
	Shares     Quantity    `json:"shares"`
	Price      Money       `json:"pricePerShare"`
	Amount     Money       `json:"totalAmount"`
	Fees       Money       `json:"fees"`
	SplitRatio *SplitRatio `json:"splitRatio,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

func (p ParsedTransaction) transaction(account string) StockTransaction {
	return StockTransaction{
		AccountID:  account,
		Ticker:     p.Ticker,
		Action:     p.Action,
		Shares:     p.Shares,
		Price:      p.Price,
		Amount:     p.Amount,
		Fees:       p.Fees,
		Date:       p.Date,
		SplitRatio: p.SplitRatio,
		Notes:      p.Notes,
	}
}

// ParsedOptionTransaction is an option transaction read from a broker
// statement.
type ParsedOptionTransaction struct {
	Date       date.Date    `json:"transactionDate"`
	Ticker     string       `json:"ticker"`
	Strategy   string       `json:"strategy,omitempty"`
	Type       OptionType   `json:"optionType"`
	Action     OptionAction `json:"action"`
	Contracts  int64        `json:"contracts"`
	Strike     Money        `json:"strikePrice"`
	Premium    Money        `json:"premiumPerShare"`
	Fees       Money        `json:"fees"`
	Expiration date.Date    `json:"expirationDate"`
	Notes      string       `json:"notes,omitempty"`
}

func (p ParsedOptionTransaction) transaction(account string) OptionTransaction {
	return OptionTransaction{
		AccountID:  account,
		Ticker:     p.Ticker,
		Strategy:   p.Strategy,
		Type:       p.Type,
		Action:     p.Action,
		Contracts:  p.Contracts,
		Strike:     p.Strike,
		Premium:    p.Premium,
		Fees:       p.Fees,
		Expiration: p.Expiration,
		Date:       p.Date,
		Notes:      p.Notes,
	}
}

// Candidates are the transactions found in a statement.
type Candidates struct {
	Stocks  []ParsedTransaction
	Options []ParsedOptionTransaction
}

// DecodeCandidates reads a JSON statement and selects the stock and option
// candidates with jsonpath expressions, for instance "$.trades[*]". An empty
// path selects nothing.
func DecodeCandidates(r io.Reader, stockPath, optionPath string) (Candidates, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Candidates{}, fmt.Errorf("cannot read statement: %w", err)
	}
	var c Candidates
	if err := selectInto(doc, stockPath, &c.Stocks); err != nil {
		return c, err
	}
	if err := selectInto(doc, optionPath, &c.Options); err != nil {
		return c, err
	}
	return c, nil
}

func selectInto[T any](doc any, path string, dst *[]T) error {
	if path == "" {
		return nil
	}
	jval, err := jsonpath.Get(path, doc)
	if err != nil {
		return fmt.Errorf("error evaluating %q: %w", path, err)
	}
	// a path selects either a single object or a list of them.
	jlist, ok := jval.([]any)
	if !ok {
		jlist = []any{jval}
	}
	var errs []error
	for i, jobj := range jlist {
		raw, err := json.Marshal(jobj)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", path, i, err))
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", path, i, err))
			continue
		}
		*dst = append(*dst, v)
	}
	return errors.Join(errs...)
}

// ImportReport lists what Import did with each candidate.
type ImportReport struct {
	Added      []Receipt
	Duplicates int
	Failed     int
}

// Import adds the candidates to the account through the regular add path, in
// date order. Candidates identical to a transaction recorded before the import
// are skipped; identical candidates within one statement are all added.
// Closing option candidates get their realized P&L from the position they
// close. Failing candidates do not stop the import; their errors are joined.
func (l *Ledger) Import(account string, c Candidates) (ImportReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var report ImportReport
	if err := l.hasAccount(account); err != nil {
		return report, err
	}
	recordedStocks, recordedOptions := slices.Clone(l.stocks), slices.Clone(l.options)
	var errs []error
	stocks := slices.Clone(c.Stocks)
	slices.SortStableFunc(stocks, func(a, b ParsedTransaction) int { return compareDates(a.Date, b.Date) })
	for _, p := range stocks {
		tx := p.transaction(account)
		if v, err := tx.validate(); err == nil && slices.ContainsFunc(recordedStocks, func(o StockTransaction) bool { return sameStock(o, v) }) {
			report.Duplicates++
			continue
		}
		receipt, err := l.addStock(tx)
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("%s %s %s: %w", p.Date, p.Action, p.Ticker, err))
			continue
		}
		report.Added = append(report.Added, receipt)
	}

	options := slices.Clone(c.Options)
	slices.SortStableFunc(options, func(a, b ParsedOptionTransaction) int { return compareDates(a.Date, b.Date) })
	for _, p := range options {
		tx := p.transaction(account)
		if v, err := tx.validate(); err == nil && slices.ContainsFunc(recordedOptions, func(o OptionTransaction) bool { return sameOption(o, v) }) {
			report.Duplicates++
			continue
		}
		receipt, err := l.addOption(l.attributeClose(tx))
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("%s %s %s: %w", p.Date, p.Action, tx.Key(), err))
			continue
		}
		report.Added = append(report.Added, receipt)
	}

	l.log.Info("import",
		zap.String("account", account),
		zap.Int("added", len(report.Added)),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", report.Failed))
	return report, errors.Join(errs...)
}

func sameStock(a, b StockTransaction) bool {
	return a.AccountID == b.AccountID && a.Ticker == b.Ticker && a.Action == b.Action &&
		a.Date == b.Date && a.Shares.Equal(b.Shares) && a.Amount.Equal(b.Amount)
}

func sameOption(a, b OptionTransaction) bool {
	return a.Key() == b.Key() && a.Action == b.Action && a.Date == b.Date &&
		a.Contracts == b.Contracts && a.Premium.Equal(b.Premium)
}
