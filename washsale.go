package tradelog

import (
	"slices"

	"go.uber.org/zap"

	"github.com/lmazzei55/tradelog/date"
)

// WashSaleWindow is the number of calendar days before and after a loss sale
// in which a purchase of the same security makes it a wash sale.
const WashSaleWindow = 30

// WashSale flags a transaction involved in a wash sale. It is advisory.
type WashSale struct {
	TransactionID string
	// Loss is the disallowed loss: the loss of the sale itself, or the sum of
	// the losses of the related sales when the flagged transaction is a buy.
	Loss    Money
	Related []string // ids of the transactions on the other side of the window
}

// DetectWashSale checks one stock or option transaction. It returns nil when
// the transaction is not part of a wash sale.
func (l *Ledger) DetectWashSale(id string) (*WashSale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stockIndex(id) >= 0 {
		return StockWashSale(l.stocks, id), nil
	}
	if l.optionIndex(id) >= 0 {
		return OptionWashSale(l.options, id), nil
	}
	return nil, notFound("transaction", id)
}

// WashSales checks every transaction, stocks first then options, in ledger
// order.
func (l *Ledger) WashSales() []WashSale {
	l.mu.Lock()
	defer l.mu.Unlock()

	var all []WashSale
	for _, tx := range l.stocks {
		if ws := StockWashSale(l.stocks, tx.ID); ws != nil {
			all = append(all, *ws)
		}
	}
	for _, tx := range l.options {
		if ws := OptionWashSale(l.options, tx.ID); ws != nil {
			all = append(all, *ws)
		}
	}
	return all
}

func (l *Ledger) stockWashSale(id string) *WashSale {
	ws := StockWashSale(l.stocks, id)
	if ws != nil {
		l.log.Warn("wash sale", zap.String("id", id), zap.Stringer("loss", ws.Loss), zap.Strings("related", ws.Related))
	}
	return ws
}

func (l *Ledger) optionWashSale(id string) *WashSale {
	ws := OptionWashSale(l.options, id)
	if ws != nil {
		l.log.Warn("wash sale", zap.String("id", id), zap.Stringer("loss", ws.Loss), zap.Strings("related", ws.Related))
	}
	return ws
}

// unitPrice is the price per share, derived from the amount when missing.
func unitPrice(tx StockTransaction) Money {
	if !tx.Price.IsZero() {
		return tx.Price
	}
	return tx.Amount.Div(tx.Shares)
}

// lossSale reports whether the sell at index i of the date-ordered txs was at a
// loss, against the most recent earlier buy of the ticker in the same account.
func lossSale(txs []StockTransaction, i int) (Money, bool) {
	sell := txs[i]
	for j := i - 1; j >= 0; j-- {
		buy := txs[j]
		if buy.Action != Buy || buy.Ticker != sell.Ticker || buy.AccountID != sell.AccountID {
			continue
		}
		basis := unitPrice(buy).Mul(sell.Shares)
		proceeds := unitPrice(sell).Mul(sell.Shares)
		if proceeds.LessThan(basis) {
			return basis.Sub(proceeds), true
		}
		return Money{}, false
	}
	return Money{}, false
}

// StockWashSale checks the stock transaction with the given id against txs.
//
// A sell at a loss is a wash sale when a buy of the ticker, in any account,
// falls within WashSaleWindow days of it. The buy that established its cost
// basis counts when it is inside the window. A buy is a wash sale when it is
// such a buy for some loss sale.
func StockWashSale(txs []StockTransaction, id string) *WashSale {
	sorted := byDate(txs, stockDate)
	i := slices.IndexFunc(sorted, func(tx StockTransaction) bool { return tx.ID == id })
	if i < 0 {
		return nil
	}
	target := sorted[i]
	window := date.Around(target.Date, WashSaleWindow)

	var related []string
	var loss Money
	switch target.Action {
	case Sell:
		l, ok := lossSale(sorted, i)
		if !ok {
			return nil
		}
		for _, tx := range sorted {
			if tx.Action == Buy && tx.Ticker == target.Ticker && window.Contains(tx.Date) {
				related = append(related, tx.ID)
			}
		}
		loss = l

	case Buy:
		for j, tx := range sorted {
			if tx.Action != Sell || tx.Ticker != target.Ticker || !window.Contains(tx.Date) {
				continue
			}
			if l, ok := lossSale(sorted, j); ok {
				related = append(related, tx.ID)
				loss = loss.Add(l)
			}
		}
	}
	if len(related) == 0 {
		return nil
	}
	return &WashSale{TransactionID: id, Loss: loss, Related: related}
}

// replaces reports whether opening transaction o can replace the position
// closed at a loss by c: same ticker and option type. The opening of the
// closed position itself counts.
func replaces(o, c OptionTransaction) bool {
	return o.Action.IsOpening() && o.Ticker == c.Ticker && o.Type == c.Type
}

func lossClose(tx OptionTransaction) bool {
	return tx.Action.IsClosing() && tx.RealizedPL != nil && tx.RealizedPL.IsNegative()
}

// OptionWashSale checks the option transaction with the given id against txs.
//
// A closing transaction with a negative realized P&L is a wash sale when an
// opening transaction of the same ticker and option type falls within
// WashSaleWindow days of it. Strike and expiration are not compared. An
// opening transaction is a wash sale when it is such a transaction for some
// loss close.
func OptionWashSale(txs []OptionTransaction, id string) *WashSale {
	i := slices.IndexFunc(txs, func(tx OptionTransaction) bool { return tx.ID == id })
	if i < 0 {
		return nil
	}
	target := txs[i]
	window := date.Around(target.Date, WashSaleWindow)

	var related []string
	var loss Money
	switch {
	case lossClose(target):
		for _, tx := range byDate(txs, optionDate) {
			if window.Contains(tx.Date) && replaces(tx, target) {
				related = append(related, tx.ID)
			}
		}
		loss = target.RealizedPL.Neg()

	case target.Action.IsOpening():
		for _, tx := range byDate(txs, optionDate) {
			if lossClose(tx) && window.Contains(tx.Date) && replaces(target, tx) {
				related = append(related, tx.ID)
				loss = loss.Add(tx.RealizedPL.Neg())
			}
		}
	}
	if len(related) == 0 {
		return nil
	}
	return &WashSale{TransactionID: id, Loss: loss, Related: related}
}
