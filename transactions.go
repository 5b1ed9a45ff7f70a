package tradelog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lmazzei55/tradelog/date"
)

// StockAction is the kind of a stock transaction.
type StockAction string

const (
	Buy         StockAction = "buy"
	Sell        StockAction = "sell"
	Dividend    StockAction = "dividend"
	Split       StockAction = "split"
	TransferIn  StockAction = "transfer-in"
	TransferOut StockAction = "transfer-out"
)

// ParseStockAction validates a stock action name.
func ParseStockAction(s string) (StockAction, error) {
	switch a := StockAction(strings.ToLower(s)); a {
	case Buy, Sell, Dividend, Split, TransferIn, TransferOut:
		return a, nil
	default:
		return "", invalid("action", "unknown stock action %q", s)
	}
}

// acquires reports whether the action adds shares to a position.
func (a StockAction) acquires() bool { return a == Buy || a == TransferIn }

// disposes reports whether the action removes shares from a position.
func (a StockAction) disposes() bool { return a == Sell || a == TransferOut }

// OptionType is call or put.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType validates an option type name.
func ParseOptionType(s string) (OptionType, error) {
	switch t := OptionType(strings.ToLower(s)); t {
	case Call, Put:
		return t, nil
	default:
		return "", invalid("optionType", "unknown option type %q", s)
	}
}

// OptionAction is the kind of an option transaction.
type OptionAction string

const (
	SellToOpen  OptionAction = "sell-to-open"
	BuyToOpen   OptionAction = "buy-to-open"
	BuyToClose  OptionAction = "buy-to-close"
	SellToClose OptionAction = "sell-to-close"
)

// ParseOptionAction validates an option action name. The usual abbreviations
// (sto, bto, btc, stc) are accepted.
func ParseOptionAction(s string) (OptionAction, error) {
	switch strings.ToLower(s) {
	case "sell-to-open", "sto":
		return SellToOpen, nil
	case "buy-to-open", "bto":
		return BuyToOpen, nil
	case "buy-to-close", "btc":
		return BuyToClose, nil
	case "sell-to-close", "stc":
		return SellToClose, nil
	default:
		return "", invalid("action", "unknown option action %q", s)
	}
}

// IsOpening reports whether the action establishes or adds to a position.
func (a OptionAction) IsOpening() bool { return a == SellToOpen || a == BuyToOpen }

// IsClosing reports whether the action reduces or terminates a position.
func (a OptionAction) IsClosing() bool { return a == BuyToClose || a == SellToClose }

// IsSell reports whether the action receives premium.
func (a OptionAction) IsSell() bool { return a == SellToOpen || a == SellToClose }

// OptionStatus is the lifecycle state of an option transaction or position.
type OptionStatus string

const (
	StatusOpen      OptionStatus = "open"
	StatusClosed    OptionStatus = "closed"
	StatusExpired   OptionStatus = "expired"
	StatusAssigned  OptionStatus = "assigned"
	StatusExercised OptionStatus = "exercised"
)

// ParseOptionStatus validates a status name.
func ParseOptionStatus(s string) (OptionStatus, error) {
	switch st := OptionStatus(strings.ToLower(s)); st {
	case StatusOpen, StatusClosed, StatusExpired, StatusAssigned, StatusExercised:
		return st, nil
	default:
		return "", invalid("status", "unknown option status %q", s)
	}
}

// SplitRatio describes a stock split as New shares for every Old share.
// It is written as "new:old", e.g. "4:1".
type SplitRatio struct {
	New int64
	Old int64
}

// ParseSplitRatio parses "new:old" (or "new/old").
func ParseSplitRatio(s string) (SplitRatio, error) {
	sep := ":"
	if !strings.Contains(s, sep) {
		sep = "/"
	}
	l, r, ok := strings.Cut(s, sep)
	if !ok {
		return SplitRatio{}, invalid("splitRatio", "want new:old, got %q", s)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(l), 10, 64)
	if err != nil {
		return SplitRatio{}, invalid("splitRatio", "bad numerator in %q", s)
	}
	d, err := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
	if err != nil {
		return SplitRatio{}, invalid("splitRatio", "bad denominator in %q", s)
	}
	return SplitRatio{New: n, Old: d}, nil
}

func (r SplitRatio) String() string { return fmt.Sprintf("%d:%d", r.New, r.Old) }

func (r SplitRatio) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *SplitRatio) UnmarshalText(b []byte) error {
	v, err := ParseSplitRatio(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// StockTransaction is a single stock event in an account.
type StockTransaction struct {
	ID         string      `json:"id"`
	AccountID  string      `json:"accountId"`
	Ticker     string      `json:"ticker"`
	Action     StockAction `json:"action"`
	Shares     Quantity    `json:"shares"`
	Price      Money       `json:"pricePerShare"`
	Amount     Money       `json:"totalAmount"`
	Fees       Money       `json:"fees"`
	Date       date.Date   `json:"date"`
	SplitRatio *SplitRatio `json:"splitRatio,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// validate checks the transaction fields and applies quick fixes: the ticker
// is upper-cased and a missing total amount is derived from shares and price.
func (t StockTransaction) validate() (StockTransaction, error) {
	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
	if t.AccountID == "" {
		return t, invalid("accountId", "account is missing")
	}
	if t.Ticker == "" {
		return t, invalid("ticker", "ticker is missing")
	}
	action, err := ParseStockAction(string(t.Action))
	if err != nil {
		return t, err
	}
	t.Action = action
	if t.Date.IsZero() {
		return t, invalid("date", "date is missing")
	}
	if t.Shares.IsNegative() {
		return t, invalid("shares", "must not be negative, got %v", t.Shares)
	}
	if t.Price.IsNegative() {
		return t, invalid("pricePerShare", "must not be negative, got %v", t.Price)
	}
	if t.Fees.IsNegative() {
		return t, invalid("fees", "must not be negative, got %v", t.Fees)
	}
	if t.Amount.IsZero() {
		t.Amount = t.Price.Mul(t.Shares)
	}
	if t.Amount.IsNegative() {
		return t, invalid("totalAmount", "must not be negative, got %v", t.Amount)
	}

	switch t.Action {
	case Buy, Sell, TransferIn, TransferOut:
		if !t.Shares.IsPositive() {
			return t, invalid("shares", "%s needs a positive number of shares", t.Action)
		}
	case Dividend:
		if !t.Amount.IsPositive() {
			return t, invalid("totalAmount", "dividend amount must be positive")
		}
	case Split:
		if t.SplitRatio == nil || t.SplitRatio.New <= 0 || t.SplitRatio.Old <= 0 {
			return t, invalid("splitRatio", "split needs a positive new:old ratio")
		}
	}
	if t.Action != Split {
		t.SplitRatio = nil
	}
	return t, nil
}

// OptionTransaction is a single option event in an account.
type OptionTransaction struct {
	ID                 string       `json:"id"`
	AccountID          string       `json:"accountId"`
	Ticker             string       `json:"ticker"`
	Strategy           string       `json:"strategy,omitempty"`
	Type               OptionType   `json:"optionType"`
	Action             OptionAction `json:"action"`
	Contracts          int64        `json:"contracts"`
	Strike             Money        `json:"strikePrice"`
	Premium            Money        `json:"premiumPerShare"`
	TotalPremium       Money        `json:"totalPremium"`
	Fees               Money        `json:"fees"`
	Expiration         date.Date    `json:"expirationDate"`
	Date               date.Date    `json:"transactionDate"`
	Status             OptionStatus `json:"status"`
	CloseDate          *date.Date   `json:"closeDate,omitempty"`
	ClosePrice         *Money       `json:"closePrice,omitempty"`
	RealizedPL         *Money       `json:"realizedPL,omitempty"`
	Collateral         *Money       `json:"collateralRequired,omitempty"`
	CollateralReleased bool         `json:"collateralReleased,omitempty"`
	StockTransactionID string       `json:"stockTransactionId,omitempty"`
	Notes              string       `json:"notes,omitempty"`
}

// Key returns the position key this transaction contributes to.
func (t OptionTransaction) Key() PositionKey {
	return PositionKey{
		AccountID:  t.AccountID,
		Ticker:     t.Ticker,
		Strike:     t.Strike.Decimal().String(),
		Expiration: t.Expiration,
		Type:       t.Type,
	}
}

// shares returns the number of underlying shares covered.
func (t OptionTransaction) shares() int64 { return t.Contracts * ContractMultiplier }

// validate checks the transaction fields and applies quick fixes: the total
// premium is always contracts × 100 × premium, the status defaults from the
// action, and a sold put gets its cash-secured collateral when none is given.
func (t OptionTransaction) validate() (OptionTransaction, error) {
	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
	if t.AccountID == "" {
		return t, invalid("accountId", "account is missing")
	}
	if t.Ticker == "" {
		return t, invalid("ticker", "ticker is missing")
	}
	typ, err := ParseOptionType(string(t.Type))
	if err != nil {
		return t, err
	}
	t.Type = typ
	action, err := ParseOptionAction(string(t.Action))
	if err != nil {
		return t, err
	}
	t.Action = action
	if t.Contracts <= 0 {
		return t, invalid("contracts", "must be positive, got %d", t.Contracts)
	}
	if !t.Strike.IsPositive() {
		return t, invalid("strikePrice", "must be positive, got %v", t.Strike)
	}
	if t.Premium.IsNegative() {
		return t, invalid("premiumPerShare", "must not be negative, got %v", t.Premium)
	}
	if t.Fees.IsNegative() {
		return t, invalid("fees", "must not be negative, got %v", t.Fees)
	}
	if t.Date.IsZero() {
		return t, invalid("transactionDate", "date is missing")
	}
	if t.Expiration.IsZero() {
		return t, invalid("expirationDate", "expiration is missing")
	}
	t.TotalPremium = t.Premium.MulInt(t.shares())

	switch {
	case t.Status == "" && t.Action.IsOpening():
		t.Status = StatusOpen
	case t.Status == "":
		t.Status = StatusClosed
	default:
		status, err := ParseOptionStatus(string(t.Status))
		if err != nil {
			return t, err
		}
		t.Status = status
	}
	if t.Action.IsOpening() && t.Status != StatusOpen {
		return t, invalid("status", "an opening transaction must be open, got %s", t.Status)
	}
	if t.Action.IsClosing() && t.Status == StatusOpen {
		return t, invalid("status", "a closing transaction cannot be open")
	}

	if t.Collateral == nil && t.Action == SellToOpen && t.Type == Put {
		c := t.Strike.MulInt(t.shares())
		t.Collateral = &c
	}
	if t.Collateral != nil && t.Collateral.IsNegative() {
		return t, invalid("collateralRequired", "must not be negative, got %v", *t.Collateral)
	}
	return t, nil
}
