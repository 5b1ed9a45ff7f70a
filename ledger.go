package tradelog

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lmazzei55/tradelog/date"
)

// Ledger is the transaction store: accounts, stock transactions and option
// transactions, each kept in insertion order.
//
// Every mutation goes through the ledger so that account cash stays equal to
// the initial cash plus the signed effects of the account's transactions.
// Positions are never stored: they are projected from the transactions on
// each read.
//
// A Ledger is safe for concurrent use; each method runs under a single lock.
type Ledger struct {
	mu       sync.Mutex
	accounts []Account
	stocks   []StockTransaction
	options  []OptionTransaction

	log         *zap.Logger
	newID       func() string
	today       func() date.Date
	requireCash bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger mutations are reported to.
func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithIDGenerator replaces the random id generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithClock replaces the function giving the current date.
func WithClock(today func() date.Date) Option {
	return func(l *Ledger) { l.today = today }
}

// WithRequireCash rejects buys that exceed the account cash and sold puts
// whose collateral exceeds the cash not already reserved.
func WithRequireCash(require bool) Option {
	return func(l *Ledger) { l.requireCash = require }
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		log:   zap.NewNop(),
		newID: func() string { return uuid.NewString() },
		today: date.Today,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Receipt is the result of a successful add or update. WashSale is set when
// the transaction is part of a wash sale; it is advisory only.
type Receipt struct {
	ID       string
	WashSale *WashSale
}

// --- Accounts ---

// AddAccount registers an account and returns its id. The cash balance starts
// at the initial cash.
func (l *Ledger) AddAccount(a Account) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return "", invalid("name", "account name is missing")
	}
	if a.ID == "" {
		a.ID = l.newID()
	} else if l.accountIndex(a.ID) >= 0 {
		return "", invalid("id", "account %q already exists", a.ID)
	}
	a.Cash = a.InitialCash
	l.accounts = append(l.accounts, a)
	l.log.Info("add account", zap.String("account", a.ID), zap.String("name", a.Name), zap.Stringer("initialCash", a.InitialCash))
	return a.ID, nil
}

// Account returns the account with the given id.
func (l *Ledger) Account(id string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.accountIndex(id)
	if i < 0 {
		return Account{}, notFound("account", id)
	}
	return l.accounts[i], nil
}

// Accounts returns all accounts in creation order.
func (l *Ledger) Accounts() []Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.accounts)
}

func (l *Ledger) accountIndex(id string) int {
	return slices.IndexFunc(l.accounts, func(a Account) bool { return a.ID == id })
}

func (l *Ledger) hasAccount(id string) error {
	if l.accountIndex(id) < 0 {
		return notFound("account", id)
	}
	return nil
}

// --- Stock transactions ---

// StockTransactions returns all stock transactions in ledger order.
func (l *Ledger) StockTransactions() []StockTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.stocks)
}

// StockTransaction returns the stock transaction with the given id.
func (l *Ledger) StockTransaction(id string) (StockTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.stockIndex(id)
	if i < 0 {
		return StockTransaction{}, notFound("stock transaction", id)
	}
	return l.stocks[i], nil
}

func (l *Ledger) stockIndex(id string) int {
	return slices.IndexFunc(l.stocks, func(tx StockTransaction) bool { return tx.ID == id })
}

// AddStockTransaction validates tx, stores it and applies its cash effect.
func (l *Ledger) AddStockTransaction(tx StockTransaction) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addStock(tx)
}

func (l *Ledger) addStock(tx StockTransaction) (Receipt, error) {
	tx, err := l.checkStock(tx, "")
	if err != nil {
		return Receipt{}, err
	}
	if tx.ID == "" {
		tx.ID = l.newID()
	}
	l.stocks = append(l.stocks, tx)
	effect := StockCashEffect(tx)
	l.applyCash(tx.AccountID, effect)
	l.log.Info("add stock transaction",
		zap.String("id", tx.ID),
		zap.String("account", tx.AccountID),
		zap.String("ticker", tx.Ticker),
		zap.String("action", string(tx.Action)),
		zap.Stringer("shares", tx.Shares),
		zap.Stringer("cash", effect))
	return Receipt{ID: tx.ID, WashSale: l.stockWashSale(tx.ID)}, nil
}

// UpdateStockTransaction merges the patch into the transaction, validates the
// result and applies the difference between the new and old cash effects.
func (l *Ledger) UpdateStockTransaction(id string, p StockPatch) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.stockIndex(id)
	if i < 0 {
		return Receipt{}, notFound("stock transaction", id)
	}
	old := l.stocks[i]
	next := p.apply(old)
	next.ID = id
	next, err := l.checkStock(next, id)
	if err != nil {
		return Receipt{}, err
	}
	if old.AccountID != next.AccountID || old.Ticker != next.Ticker {
		// the old holding loses this transaction, it must remain consistent.
		rest := slices.Concat(l.stocks[:i:i], l.stocks[i+1:])
		if err := checkHoldings(rest, old.AccountID, old.Ticker); err != nil {
			return Receipt{}, err
		}
	}
	l.stocks[i] = next
	l.moveCash(old.AccountID, StockCashEffect(old), next.AccountID, StockCashEffect(next))
	l.log.Info("update stock transaction",
		zap.String("id", id),
		zap.Stringer("cashBefore", StockCashEffect(old)),
		zap.Stringer("cashAfter", StockCashEffect(next)))
	return Receipt{ID: id, WashSale: l.stockWashSale(id)}, nil
}

// DeleteStockTransaction removes the transaction and reverses its cash effect.
// A buy that later sells depend on cannot be deleted.
func (l *Ledger) DeleteStockTransaction(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.stockIndex(id)
	if i < 0 {
		return notFound("stock transaction", id)
	}
	tx := l.stocks[i]
	rest := slices.Concat(l.stocks[:i:i], l.stocks[i+1:])
	if err := checkHoldings(rest, tx.AccountID, tx.Ticker); err != nil {
		return err
	}
	l.stocks = rest
	l.applyCash(tx.AccountID, StockCashEffect(tx).Neg())
	l.log.Info("delete stock transaction", zap.String("id", id), zap.String("account", tx.AccountID), zap.String("ticker", tx.Ticker))
	return nil
}

// checkStock validates tx against the ledger as if it replaced the
// transaction with id replacing (or was added when replacing is empty).
func (l *Ledger) checkStock(tx StockTransaction, replacing string) (StockTransaction, error) {
	tx, err := tx.validate()
	if err != nil {
		return tx, err
	}
	if err := l.hasAccount(tx.AccountID); err != nil {
		return tx, err
	}
	if replacing == "" && tx.ID != "" && (l.stockIndex(tx.ID) >= 0 || l.optionIndex(tx.ID) >= 0) {
		return tx, invalid("id", "transaction %q already exists", tx.ID)
	}

	others := slices.DeleteFunc(slices.Clone(l.stocks), func(o StockTransaction) bool { return replacing != "" && o.ID == replacing })
	if err := checkHoldings(append(others, tx), tx.AccountID, tx.Ticker); err != nil {
		return tx, err
	}

	if l.requireCash && tx.Action == Buy {
		cash := l.accounts[l.accountIndex(tx.AccountID)].Cash
		if i := l.stockIndex(replacing); i >= 0 && l.stocks[i].AccountID == tx.AccountID {
			cash = cash.Sub(StockCashEffect(l.stocks[i]))
		}
		if cost := StockCashEffect(tx).Neg(); cash.LessThan(cost) {
			return tx, invalid("totalAmount", "cannot buy for %v, cash balance is %v", cost, cash)
		}
	}
	return tx, nil
}

// --- Option transactions ---

// OptionTransactions returns all option transactions in ledger order.
func (l *Ledger) OptionTransactions() []OptionTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.options)
}

// OptionTransaction returns the option transaction with the given id.
func (l *Ledger) OptionTransaction(id string) (OptionTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.optionIndex(id)
	if i < 0 {
		return OptionTransaction{}, notFound("option transaction", id)
	}
	return l.options[i], nil
}

func (l *Ledger) optionIndex(id string) int {
	return slices.IndexFunc(l.options, func(tx OptionTransaction) bool { return tx.ID == id })
}

// AddOptionTransaction validates tx, stores it and applies its cash effect.
// Closing transactions must match an open position and may not close more
// contracts than are open.
func (l *Ledger) AddOptionTransaction(tx OptionTransaction) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addOption(tx)
}

func (l *Ledger) addOption(tx OptionTransaction) (Receipt, error) {
	tx, err := l.checkOption(tx, "")
	if err != nil {
		return Receipt{}, err
	}
	if tx.ID == "" {
		tx.ID = l.newID()
	}
	l.options = append(l.options, tx)
	effect := OptionCashEffect(tx)
	l.applyCash(tx.AccountID, effect)
	l.log.Info("add option transaction",
		zap.String("id", tx.ID),
		zap.String("account", tx.AccountID),
		zap.Stringer("position", tx.Key()),
		zap.String("action", string(tx.Action)),
		zap.Int64("contracts", tx.Contracts),
		zap.Stringer("cash", effect))
	return Receipt{ID: tx.ID, WashSale: l.optionWashSale(tx.ID)}, nil
}

// UpdateOptionTransaction merges the patch into the transaction, validates the
// result and applies the difference between the new and old cash effects.
func (l *Ledger) UpdateOptionTransaction(id string, p OptionPatch) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.optionIndex(id)
	if i < 0 {
		return Receipt{}, notFound("option transaction", id)
	}
	old := l.options[i]
	next := p.apply(old)
	next.ID = id
	next, err := l.checkOption(next, id)
	if err != nil {
		return Receipt{}, err
	}
	if old.Key() != next.Key() {
		rest := slices.Concat(l.options[:i:i], l.options[i+1:])
		if err := checkContracts(rest, old.Key()); err != nil {
			return Receipt{}, err
		}
	}
	l.options[i] = next
	l.moveCash(old.AccountID, OptionCashEffect(old), next.AccountID, OptionCashEffect(next))
	l.log.Info("update option transaction",
		zap.String("id", id),
		zap.Stringer("cashBefore", OptionCashEffect(old)),
		zap.Stringer("cashAfter", OptionCashEffect(next)))
	return Receipt{ID: id, WashSale: l.optionWashSale(id)}, nil
}

// DeleteOptionTransaction removes the transaction and reverses its cash effect.
// An opening transaction that later closes depend on cannot be deleted.
func (l *Ledger) DeleteOptionTransaction(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.optionIndex(id)
	if i < 0 {
		return notFound("option transaction", id)
	}
	tx := l.options[i]
	rest := slices.Concat(l.options[:i:i], l.options[i+1:])
	if err := checkContracts(rest, tx.Key()); err != nil {
		return err
	}
	l.options = rest
	l.applyCash(tx.AccountID, OptionCashEffect(tx).Neg())
	l.log.Info("delete option transaction", zap.String("id", id), zap.Stringer("position", tx.Key()))
	if tx.StockTransactionID != "" {
		l.log.Warn("deleted option transaction had a stock leg, it is kept",
			zap.String("id", id), zap.String("stockTransaction", tx.StockTransactionID))
	}
	return nil
}

func (l *Ledger) checkOption(tx OptionTransaction, replacing string) (OptionTransaction, error) {
	tx, err := tx.validate()
	if err != nil {
		return tx, err
	}
	if err := l.hasAccount(tx.AccountID); err != nil {
		return tx, err
	}
	if replacing == "" && tx.ID != "" && (l.optionIndex(tx.ID) >= 0 || l.stockIndex(tx.ID) >= 0) {
		return tx, invalid("id", "transaction %q already exists", tx.ID)
	}

	others := slices.DeleteFunc(slices.Clone(l.options), func(o OptionTransaction) bool { return replacing != "" && o.ID == replacing })
	if err := checkContracts(append(others, tx), tx.Key()); err != nil {
		return tx, err
	}

	if l.requireCash {
		if err := l.checkOptionCash(tx, others); err != nil {
			return tx, err
		}
	}
	return tx, nil
}

// checkOptionCash rejects option purchases the account cannot pay for, and
// sold options whose collateral exceeds the cash not already reserved.
func (l *Ledger) checkOptionCash(tx OptionTransaction, others []OptionTransaction) error {
	cash := l.accounts[l.accountIndex(tx.AccountID)].Cash
	for _, o := range l.options {
		if !slices.ContainsFunc(others, func(k OptionTransaction) bool { return k.ID == o.ID }) && o.AccountID == tx.AccountID {
			// the transaction being replaced.
			cash = cash.Sub(OptionCashEffect(o))
		}
	}
	if !tx.Action.IsSell() {
		if cost := OptionCashEffect(tx).Neg(); cash.LessThan(cost) {
			return invalid("premiumPerShare", "cannot pay %v, cash balance is %v", cost, cash)
		}
		return nil
	}
	if tx.Action != SellToOpen || tx.Collateral == nil {
		return nil
	}
	available := cash.Add(OptionCashEffect(tx)).Sub(activeCollateral(ProjectOptionPositions(others, tx.AccountID)))
	if available.LessThan(*tx.Collateral) {
		return invalid("collateralRequired", "needs %v of collateral, only %v available", *tx.Collateral, available)
	}
	return nil
}

// --- Projections ---

// StockPositions projects the current stock holdings of the account, or of
// every account when account is empty.
func (l *Ledger) StockPositions(account string) []StockPosition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ProjectStockPositions(l.stocks, account)
}

// OptionPositions projects the option positions of the account, or of every
// account when account is empty. Terminal positions are included.
func (l *Ledger) OptionPositions(account string) []OptionPosition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ProjectOptionPositions(l.options, account)
}

// IsNotFound reports whether err means a referenced record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalid reports whether err is a validation error.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalid) }
