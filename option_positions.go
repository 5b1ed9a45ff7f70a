package tradelog

import (
	"fmt"

	"github.com/lmazzei55/tradelog/date"
)

// PositionKey identifies the contracts an option position is made of.
type PositionKey struct {
	AccountID  string
	Ticker     string
	Strike     string // canonical decimal string of the strike price
	Expiration date.Date
	Type       OptionType
}

// String returns "account:TICKER:strike:expiration:type".
func (k PositionKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", k.AccountID, k.Ticker, k.Strike, k.Expiration, k.Type)
}

// OptionPosition is the state of one option contract position.
//
// A position is identified by the id of the transaction that opened it, so that
// a key closed and opened again yields two distinct positions. Terminal
// positions (not open, zero contracts) are kept for history.
type OptionPosition struct {
	ID             string
	Key            PositionKey
	Strategy       string
	Short          bool // opened with sell-to-open
	Strike         Money
	Contracts      int64
	AveragePremium Money // per share
	TotalPremium   Money // of the outstanding contracts
	Status         OptionStatus
	Collateral     Money // of the outstanding contracts
	OpenDate       date.Date
	CloseDate      date.Date
	RealizedPL     *Money // set by the closing transaction that terminated the position
	TransactionIDs []string
}

// IsOpen reports whether the position still has outstanding contracts.
func (p OptionPosition) IsOpen() bool { return p.Status == StatusOpen && p.Contracts > 0 }

// ProjectOptionPositions folds option transactions into positions, in order of
// opening. When account is not empty only that account is considered.
//
// Opening transactions on a key with an open position merge into it: contracts
// and premium add up and the average premium is volume weighted. Closing
// transactions reduce the outstanding contracts, premium and collateral
// proportionally; the one that brings the position to zero sets its status,
// close date and realized P&L. Closing transactions with no open position are
// ignored and contracts never go negative.
func ProjectOptionPositions(txs []OptionTransaction, account string) []OptionPosition {
	current := make(map[PositionKey]*OptionPosition)
	var all []*OptionPosition

	for _, tx := range byDate(txs, optionDate) {
		if account != "" && tx.AccountID != account {
			continue
		}
		k := tx.Key()
		pos := current[k]

		switch {
		case tx.Action.IsOpening():
			if pos == nil || pos.Status != StatusOpen {
				pos = &OptionPosition{
					ID:       tx.ID,
					Key:      k,
					Strategy: tx.Strategy,
					Short:    tx.Action == SellToOpen,
					Strike:   tx.Strike,
					Status:   StatusOpen,
					OpenDate: tx.Date,
				}
				current[k] = pos
				all = append(all, pos)
			}
			pos.Contracts += tx.Contracts
			pos.TotalPremium = pos.TotalPremium.Add(tx.TotalPremium)
			pos.AveragePremium = pos.TotalPremium.Ratio(1, pos.Contracts*ContractMultiplier)
			if tx.Collateral != nil {
				pos.Collateral = pos.Collateral.Add(*tx.Collateral)
			}

		case tx.Action.IsClosing():
			if pos == nil || !pos.IsOpen() {
				continue
			}
			before := pos.Contracts
			remaining := before - min(tx.Contracts, before)
			pos.TotalPremium = pos.TotalPremium.Ratio(remaining, before)
			pos.Collateral = pos.Collateral.Ratio(remaining, before)
			pos.Contracts = remaining
			if remaining == 0 {
				pos.Status = tx.Status
				if pos.Status == StatusOpen || pos.Status == "" {
					pos.Status = StatusClosed
				}
				pos.CloseDate = tx.Date
				if tx.CloseDate != nil {
					pos.CloseDate = *tx.CloseDate
				}
				if tx.RealizedPL != nil {
					pl := *tx.RealizedPL
					pos.RealizedPL = &pl
				}
			}
		}
		pos.TransactionIDs = append(pos.TransactionIDs, tx.ID)
	}

	positions := make([]OptionPosition, len(all))
	for i, pos := range all {
		positions[i] = *pos
	}
	return positions
}

// OpenPositions filters positions down to the open ones.
func OpenPositions(positions []OptionPosition) []OptionPosition {
	var open []OptionPosition
	for _, p := range positions {
		if p.IsOpen() {
			open = append(open, p)
		}
	}
	return open
}

// checkContracts replays the transactions of one position key and reports the
// first closing transaction that has no matching open position, closes more
// contracts than are open, or trades in the wrong direction.
func checkContracts(txs []OptionTransaction, k PositionKey) error {
	var open int64
	var short bool
	for _, tx := range byDate(txs, optionDate) {
		if tx.Key() != k {
			continue
		}
		switch {
		case tx.Action.IsOpening():
			if open > 0 && short != (tx.Action == SellToOpen) {
				return invalid("action", "on %s, %s conflicts with the open %s position", tx.Date, tx.Action, direction(short))
			}
			if open == 0 {
				short = tx.Action == SellToOpen
			}
			open += tx.Contracts
		case tx.Action.IsClosing():
			if open == 0 {
				return invalid("action", "on %s, no open position %s to %s", tx.Date, k, tx.Action)
			}
			if short != (tx.Action == BuyToClose) {
				return invalid("action", "on %s, %s cannot close a %s position", tx.Date, tx.Action, direction(short))
			}
			if tx.Contracts > open {
				return invalid("contracts", "on %s, cannot close %d contracts, only %d open", tx.Date, tx.Contracts, open)
			}
			open -= tx.Contracts
		}
	}
	return nil
}

func direction(short bool) string {
	if short {
		return "short"
	}
	return "long"
}
