package tradelog

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/lmazzei55/tradelog/date"
)

// CloseRequest describes how to close some or all of an open option position.
type CloseRequest struct {
	// PositionID is the position id, or its key string for an open position.
	PositionID string
	// Type is one of closed, expired, assigned (sold options) or exercised
	// (bought options).
	Type OptionStatus
	// Price is the closing premium per share. It is forced to zero for
	// expired, assigned and exercised.
	Price *Money
	// Fees are the closing fees, subtracted from the realized P&L of every
	// close type. An expired option has none.
	Fees *Money
	// Contracts to close, 0 means all remaining contracts.
	Contracts int64
	// Date defaults to the expiration for expired, to today otherwise.
	Date  date.Date
	Notes string
}

// CloseResult holds the transactions created by ClosePosition.
type CloseResult struct {
	Position         string
	Transaction      OptionTransaction
	StockTransaction *StockTransaction // the assigned or exercised shares
	Remaining        int64             // contracts still open
	WashSale         *WashSale
}

// ClosePosition closes contracts of an open option position.
//
// The opening transactions of the position are scaled by the fraction of
// contracts being closed, so that successive partial closes add up exactly to
// the opening premium and fees. A closing transaction is synthesized and added
// through the normal path. Assigned sold options and exercised bought options
// also produce the stock transaction for the underlying shares at the strike.
//
// Nothing is recorded unless every created transaction is valid.
func (l *Ledger) ClosePosition(req CloseRequest) (CloseResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closePosition(req)
}

// ExpirePositions closes as expired every open position whose expiration is
// before asOf. Positions that cannot be closed are reported and skipped.
func (l *Ledger) ExpirePositions(asOf date.Date) ([]CloseResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var results []CloseResult
	var errs []error
	for _, pos := range OpenPositions(ProjectOptionPositions(l.options, "")) {
		if !pos.Key.Expiration.Before(asOf) {
			continue
		}
		res, err := l.closePosition(CloseRequest{PositionID: pos.ID, Type: StatusExpired})
		if err != nil {
			errs = append(errs, fmt.Errorf("expiring %s: %w", pos.Key, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (l *Ledger) findPosition(id string) (OptionPosition, error) {
	positions := ProjectOptionPositions(l.options, "")
	if i := slices.IndexFunc(positions, func(p OptionPosition) bool { return p.ID == id }); i >= 0 {
		return positions[i], nil
	}
	if i := slices.IndexFunc(positions, func(p OptionPosition) bool { return p.IsOpen() && p.Key.String() == id }); i >= 0 {
		return positions[i], nil
	}
	return OptionPosition{}, notFound("option position", id)
}

// opening sums the opening transactions of a position.
type opening struct {
	tx        OptionTransaction // the first one
	contracts int64
	premium   Money
	fees      Money
}

func (l *Ledger) openingOf(pos OptionPosition) (opening, error) {
	var o opening
	for _, id := range pos.TransactionIDs {
		i := l.optionIndex(id)
		if i < 0 || !l.options[i].Action.IsOpening() {
			continue
		}
		tx := l.options[i]
		if o.contracts == 0 {
			o.tx = tx
		}
		o.contracts += tx.Contracts
		o.premium = o.premium.Add(tx.TotalPremium)
		o.fees = o.fees.Add(tx.Fees)
	}
	if o.contracts == 0 {
		return o, notFound("opening transaction", pos.Key.String())
	}
	return o, nil
}

// closingPL is the realized P&L of closing a share of a position. openPremium
// and openFees are the proportional part of the opening transactions.
func closingPL(short bool, openPremium, openFees, closePremium, closeFees Money) Money {
	if short {
		return openPremium.Sub(closePremium).Sub(openFees).Sub(closeFees)
	}
	return closePremium.Sub(openPremium).Sub(openFees).Sub(closeFees)
}

// attributeClose fills in the realized P&L of a closing transaction recorded
// without one, with the same proportional attribution as ClosePosition. tx is
// returned unchanged when no open position matches it.
func (l *Ledger) attributeClose(tx OptionTransaction) OptionTransaction {
	if !tx.Action.IsClosing() || tx.RealizedPL != nil {
		return tx
	}
	v, err := tx.validate()
	if err != nil {
		return tx
	}
	positions := ProjectOptionPositions(l.options, v.AccountID)
	i := slices.IndexFunc(positions, func(p OptionPosition) bool { return p.IsOpen() && p.Key == v.Key() })
	if i < 0 {
		return tx
	}
	pos := positions[i]
	open, err := l.openingOf(pos)
	if err != nil {
		return tx
	}
	pl := closingPL(pos.Short,
		open.premium.Ratio(v.Contracts, open.contracts),
		open.fees.Ratio(v.Contracts, open.contracts),
		v.TotalPremium, v.Fees)
	closeDate, price := v.Date, v.Premium
	tx.RealizedPL = &pl
	tx.CloseDate = &closeDate
	tx.ClosePrice = &price
	return tx
}

func (l *Ledger) closePosition(req CloseRequest) (CloseResult, error) {
	pos, err := l.findPosition(req.PositionID)
	if err != nil {
		return CloseResult{}, err
	}
	if !pos.IsOpen() {
		return CloseResult{}, invalid("positionId", "position %s is already %s", pos.Key, pos.Status)
	}
	switch req.Type {
	case StatusClosed, StatusExpired:
	case StatusAssigned:
		if !pos.Short {
			return CloseResult{}, invalid("closeType", "only sold options are assigned, use exercised for %s", pos.Key)
		}
	case StatusExercised:
		if pos.Short {
			return CloseResult{}, invalid("closeType", "only bought options are exercised, use assigned for %s", pos.Key)
		}
	default:
		return CloseResult{}, invalid("closeType", "cannot close a position as %q", req.Type)
	}

	contracts := req.Contracts
	if contracts == 0 {
		contracts = pos.Contracts
	}
	if contracts < 0 {
		return CloseResult{}, invalid("contracts", "must be positive, got %d", contracts)
	}
	if contracts > pos.Contracts {
		return CloseResult{}, invalid("contracts", "cannot close %d contracts of %s, only %d open", contracts, pos.Key, pos.Contracts)
	}

	open, err := l.openingOf(pos)
	if err != nil {
		return CloseResult{}, err
	}

	var price, fees Money
	if req.Price != nil && req.Type == StatusClosed {
		price = *req.Price
	}
	if req.Fees != nil {
		fees = *req.Fees
	}
	if req.Type == StatusExpired && !fees.IsZero() {
		return CloseResult{}, invalid("fees", "an expired option has no closing fees, got %v", fees)
	}
	closeDate := req.Date
	if closeDate.IsZero() {
		if req.Type == StatusExpired {
			closeDate = pos.Key.Expiration
		} else {
			closeDate = l.today()
		}
	}

	openPremium := open.premium.Ratio(contracts, open.contracts)
	openFees := open.fees.Ratio(contracts, open.contracts)
	closePremium := price.MulInt(contracts * ContractMultiplier)
	pl := closingPL(pos.Short, openPremium, openFees, closePremium, fees)
	collateral := pos.Collateral.Ratio(contracts, pos.Contracts)

	action := SellToClose
	if pos.Short {
		action = BuyToClose
	}
	closing := OptionTransaction{
		ID:                 l.newID(),
		AccountID:          pos.Key.AccountID,
		Ticker:             pos.Key.Ticker,
		Strategy:           pos.Strategy,
		Type:               pos.Key.Type,
		Action:             action,
		Contracts:          contracts,
		Strike:             pos.Strike,
		Premium:            price,
		Fees:               fees,
		Expiration:         pos.Key.Expiration,
		Date:               closeDate,
		Status:             req.Type,
		CloseDate:          &closeDate,
		ClosePrice:         &price,
		RealizedPL:         &pl,
		CollateralReleased: true,
		Notes:              req.Notes,
	}
	if !collateral.IsZero() {
		closing.Collateral = &collateral
	}

	var leg *StockTransaction
	if req.Type == StatusAssigned || req.Type == StatusExercised {
		s := stockLeg(pos, contracts, closeDate, l.newID())
		closing.StockTransactionID = s.ID
		leg = &s
	}

	// validate every transaction before recording any of them.
	if _, err := l.checkOption(closing, ""); err != nil {
		return CloseResult{}, err
	}
	if leg != nil {
		if _, err := l.checkStock(*leg, ""); err != nil {
			return CloseResult{}, fmt.Errorf("%s of %s: %w", req.Type, pos.Key, err)
		}
	}

	receipt, err := l.addOption(closing)
	if err != nil {
		return CloseResult{}, err
	}
	closing = l.options[l.optionIndex(receipt.ID)]
	res := CloseResult{
		Position:    pos.ID,
		Transaction: closing,
		Remaining:   pos.Contracts - contracts,
		WashSale:    receipt.WashSale,
	}
	if leg != nil {
		if _, err := l.addStock(*leg); err != nil {
			l.undoOption(receipt.ID)
			return CloseResult{}, fmt.Errorf("%s of %s: %w", req.Type, pos.Key, err)
		}
		s := l.stocks[l.stockIndex(leg.ID)]
		res.StockTransaction = &s
		l.log.Info("stock leg created",
			zap.String("position", pos.ID),
			zap.String("stockTransaction", s.ID),
			zap.String("action", string(s.Action)),
			zap.Stringer("shares", s.Shares),
			zap.Stringer("price", s.Price))
	}

	l.log.Info("position closed",
		zap.String("position", pos.ID),
		zap.Stringer("key", pos.Key),
		zap.String("type", string(req.Type)),
		zap.Int64("contracts", contracts),
		zap.Int64("remaining", res.Remaining),
		zap.Stringer("realizedPL", pl))
	return res, nil
}

// stockLeg is the stock transaction resulting from an assignment or exercise:
// shares are bought at the strike on a sold put or a bought call, sold on a
// sold call or a bought put.
func stockLeg(pos OptionPosition, contracts int64, on date.Date, id string) StockTransaction {
	buys := (pos.Key.Type == Put) == pos.Short
	action := Sell
	if buys {
		action = Buy
	}
	event := "exercised"
	if pos.Short {
		event = "assigned"
	}
	shares := Q(contracts * ContractMultiplier)
	return StockTransaction{
		ID:        id,
		AccountID: pos.Key.AccountID,
		Ticker:    pos.Key.Ticker,
		Action:    action,
		Shares:    shares,
		Price:     pos.Strike,
		Amount:    pos.Strike.Mul(shares),
		Date:      on,
		Notes:     fmt.Sprintf("%s %s", event, pos.Key),
	}
}

// undoOption removes an option transaction that was just added.
func (l *Ledger) undoOption(id string) {
	i := l.optionIndex(id)
	if i < 0 {
		return
	}
	tx := l.options[i]
	l.options = slices.Delete(l.options, i, i+1)
	l.applyCash(tx.AccountID, OptionCashEffect(tx).Neg())
	l.log.Warn("closing transaction rolled back", zap.String("id", id))
}
