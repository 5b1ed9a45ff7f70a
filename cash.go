package tradelog

import (
	"slices"

	"go.uber.org/zap"
)

// StockCashEffect is the signed change a stock transaction makes to its
// account's cash: buys spend amount plus fees, sells receive amount minus
// fees, dividends receive the amount. Splits and transfers move no cash.
func StockCashEffect(tx StockTransaction) Money {
	switch tx.Action {
	case Buy:
		return tx.Amount.Add(tx.Fees).Neg()
	case Sell:
		return tx.Amount.Sub(tx.Fees)
	case Dividend:
		return tx.Amount
	default:
		return Money{}
	}
}

// OptionCashEffect is the signed change an option transaction makes to its
// account's cash: sells receive premium minus fees, buys spend premium plus
// fees. Collateral is never taken out of cash; see ActiveCollateral.
func OptionCashEffect(tx OptionTransaction) Money {
	if tx.Action.IsSell() {
		return tx.TotalPremium.Sub(tx.Fees)
	}
	return tx.TotalPremium.Add(tx.Fees).Neg()
}

// applyCash adds delta to the account's cash balance. The caller holds the
// lock and has checked that the account exists.
func (l *Ledger) applyCash(accountID string, delta Money) {
	if delta.IsZero() {
		return
	}
	i := l.accountIndex(accountID)
	if i < 0 {
		l.log.Warn("cash effect on unknown account", zap.String("account", accountID), zap.Stringer("delta", delta))
		return
	}
	l.accounts[i].Cash = l.accounts[i].Cash.Add(delta)
	l.log.Debug("cash updated",
		zap.String("account", accountID),
		zap.Stringer("delta", delta),
		zap.Stringer("balance", l.accounts[i].Cash))
}

// moveCash replaces the cash effect of old with the one of next, possibly
// across two accounts. Only the difference is applied.
func (l *Ledger) moveCash(oldAccount string, oldEffect Money, newAccount string, newEffect Money) {
	if oldAccount == newAccount {
		l.applyCash(newAccount, newEffect.Sub(oldEffect))
		return
	}
	l.applyCash(oldAccount, oldEffect.Neg())
	l.applyCash(newAccount, newEffect)
}

// expectedCash computes every account's balance from its initial cash and the
// effects of all its transactions.
func (l *Ledger) expectedCash() map[string]Money {
	want := make(map[string]Money, len(l.accounts))
	for _, a := range l.accounts {
		want[a.ID] = a.InitialCash
	}
	for _, tx := range l.stocks {
		want[tx.AccountID] = want[tx.AccountID].Add(StockCashEffect(tx))
	}
	for _, tx := range l.options {
		want[tx.AccountID] = want[tx.AccountID].Add(OptionCashEffect(tx))
	}
	return want
}

// CashDrift reports, per account, how far the stored balance is from the
// balance recomputed from the transactions. Accounts with no drift are omitted.
func (l *Ledger) CashDrift() map[string]Money {
	l.mu.Lock()
	defer l.mu.Unlock()

	drift := make(map[string]Money)
	want := l.expectedCash()
	for _, a := range l.accounts {
		if d := a.Cash.Sub(want[a.ID]); !d.IsZero() {
			drift[a.ID] = d
		}
	}
	return drift
}

// RecomputeCash resets every account's balance to the one recomputed from
// its transactions, and returns the ids of the accounts that changed.
func (l *Ledger) RecomputeCash() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var fixed []string
	want := l.expectedCash()
	for i, a := range l.accounts {
		if !a.Cash.Equal(want[a.ID]) {
			l.log.Info("cash recomputed",
				zap.String("account", a.ID),
				zap.Stringer("was", a.Cash),
				zap.Stringer("now", want[a.ID]))
			l.accounts[i].Cash = want[a.ID]
			fixed = append(fixed, a.ID)
		}
	}
	slices.Sort(fixed)
	return fixed
}

// ActiveCollateral sums the collateral reserved by open option positions of
// the account, or of every account when account is empty.
func (l *Ledger) ActiveCollateral(account string) Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return activeCollateral(ProjectOptionPositions(l.options, account))
}

func activeCollateral(positions []OptionPosition) Money {
	var total Money
	for _, p := range OpenPositions(positions) {
		total = total.Add(p.Collateral)
	}
	return total
}
