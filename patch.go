package tradelog

import "github.com/lmazzei55/tradelog/date"

// StockPatch holds the fields to change on a stock transaction. Nil fields are
// left untouched.
type StockPatch struct {
	AccountID  *string
	Ticker     *string
	Action     *StockAction
	Shares     *Quantity
	Price      *Money
	Amount     *Money
	Fees       *Money
	Date       *date.Date
	SplitRatio *SplitRatio
	Notes      *string
}

// apply returns a copy of tx with the patch merged in. When shares or price
// change without an explicit amount, the amount is derived again.
func (p StockPatch) apply(tx StockTransaction) StockTransaction {
	set(&tx.AccountID, p.AccountID)
	set(&tx.Ticker, p.Ticker)
	set(&tx.Action, p.Action)
	set(&tx.Shares, p.Shares)
	set(&tx.Price, p.Price)
	set(&tx.Fees, p.Fees)
	set(&tx.Date, p.Date)
	set(&tx.Notes, p.Notes)
	if p.SplitRatio != nil {
		r := *p.SplitRatio
		tx.SplitRatio = &r
	}
	switch {
	case p.Amount != nil:
		tx.Amount = *p.Amount
	case p.Shares != nil || p.Price != nil:
		tx.Amount = Money{}
	}
	return tx
}

// OptionPatch holds the fields to change on an option transaction. Nil fields
// are left untouched. TotalPremium is not patchable: it is always derived.
type OptionPatch struct {
	AccountID          *string
	Ticker             *string
	Strategy           *string
	Type               *OptionType
	Action             *OptionAction
	Contracts          *int64
	Strike             *Money
	Premium            *Money
	Fees               *Money
	Expiration         *date.Date
	Date               *date.Date
	Status             *OptionStatus
	CloseDate          *date.Date
	ClosePrice         *Money
	RealizedPL         *Money
	Collateral         *Money
	CollateralReleased *bool
	Notes              *string
}

func (p OptionPatch) apply(tx OptionTransaction) OptionTransaction {
	set(&tx.AccountID, p.AccountID)
	set(&tx.Ticker, p.Ticker)
	set(&tx.Strategy, p.Strategy)
	set(&tx.Type, p.Type)
	set(&tx.Action, p.Action)
	set(&tx.Contracts, p.Contracts)
	set(&tx.Strike, p.Strike)
	set(&tx.Premium, p.Premium)
	set(&tx.Fees, p.Fees)
	set(&tx.Expiration, p.Expiration)
	set(&tx.Date, p.Date)
	set(&tx.Status, p.Status)
	set(&tx.CollateralReleased, p.CollateralReleased)
	set(&tx.Notes, p.Notes)
	setPtr(&tx.CloseDate, p.CloseDate)
	setPtr(&tx.ClosePrice, p.ClosePrice)
	setPtr(&tx.RealizedPL, p.RealizedPL)
	setPtr(&tx.Collateral, p.Collateral)
	if p.Collateral == nil && (p.Contracts != nil || p.Strike != nil) && tx.Action == SellToOpen && tx.Type == Put {
		// derived again by validate.
		tx.Collateral = nil
	}
	return tx
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// setPtr copies the patched value so the transaction never aliases the patch.
func setPtr[T any](dst **T, v *T) {
	if v != nil {
		c := *v
		*dst = &c
	}
}
