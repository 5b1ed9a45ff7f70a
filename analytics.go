package tradelog

import (
	"cmp"
	"slices"
)

// OptionsAnalytics summarizes option trading performance.
type OptionsAnalytics struct {
	// NetPremium is premium received on sells minus premium paid on buys.
	NetPremium Money
	RealizedPL Money
	// WinRate is the share of terminal closing transactions with a positive
	// realized P&L.
	WinRate Percent
	// AnnualizedReturn is the simple mean, over closed trades with collateral,
	// of realizedPL / collateral × 365 / days held.
	AnnualizedReturn Percent
	// CollateralEfficiency is the realized P&L of closed trades with
	// collateral over their collateral.
	CollateralEfficiency Percent
	ActiveCollateral     Money
	AssignmentRate       Percent

	ClosedTrades  int
	Wins          int
	Assignments   int
	OpenPositions int

	Tickers []TickerAnalytics
}

// TickerAnalytics is the part of OptionsAnalytics related to one ticker.
type TickerAnalytics struct {
	Ticker       string
	NetPremium   Money
	RealizedPL   Money
	ClosedTrades int
	Wins         int
}

// ComputeAnalytics aggregates the options analytics of the account, or of
// every account when account is empty.
func (l *Ledger) ComputeAnalytics(account string) OptionsAnalytics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ComputeAnalytics(l.options, account)
}

// premiumFlow is the signed premium of a transaction for the net premium.
func premiumFlow(tx OptionTransaction) Money {
	if tx.Action.IsSell() {
		return tx.TotalPremium
	}
	return tx.TotalPremium.Neg()
}

// terminal reports whether a closing transaction counts as a closed trade.
func terminal(tx OptionTransaction) bool {
	if !tx.Action.IsClosing() {
		return false
	}
	switch tx.Status {
	case StatusClosed, StatusExpired, StatusAssigned, StatusExercised:
		return true
	}
	return false
}

// ComputeAnalytics is a pure aggregation over option transactions.
func ComputeAnalytics(txs []OptionTransaction, account string) OptionsAnalytics {
	var a OptionsAnalytics
	tickers := make(map[string]*TickerAnalytics)
	ticker := func(name string) *TickerAnalytics {
		t, ok := tickers[name]
		if !ok {
			t = &TickerAnalytics{Ticker: name}
			tickers[name] = t
		}
		return t
	}

	positions := ProjectOptionPositions(txs, account)
	opened := make(map[string]OptionPosition) // by transaction id
	for _, p := range positions {
		for _, id := range p.TransactionIDs {
			opened[id] = p
		}
	}

	var returns []float64
	var efficiencyPL, efficiencyCollateral Money
	for _, tx := range txs {
		if account != "" && tx.AccountID != account {
			continue
		}
		t := ticker(tx.Ticker)
		a.NetPremium = a.NetPremium.Add(premiumFlow(tx))
		t.NetPremium = t.NetPremium.Add(premiumFlow(tx))

		if !terminal(tx) {
			continue
		}
		var pl Money
		if tx.RealizedPL != nil {
			pl = *tx.RealizedPL
		}
		a.ClosedTrades++
		t.ClosedTrades++
		a.RealizedPL = a.RealizedPL.Add(pl)
		t.RealizedPL = t.RealizedPL.Add(pl)
		if pl.IsPositive() {
			a.Wins++
			t.Wins++
		}
		if tx.Status == StatusAssigned {
			a.Assignments++
		}

		if tx.Collateral == nil || !tx.Collateral.IsPositive() {
			continue
		}
		closeDate := tx.Date
		if tx.CloseDate != nil {
			closeDate = *tx.CloseDate
		}
		pos, ok := opened[tx.ID]
		if !ok {
			continue
		}
		efficiencyPL = efficiencyPL.Add(pl)
		efficiencyCollateral = efficiencyCollateral.Add(*tx.Collateral)
		days := pos.OpenDate.DaysBetween(closeDate)
		if days <= 0 {
			returns = append(returns, 0)
			continue
		}
		ratio := pl.PerCent(*tx.Collateral)
		returns = append(returns, float64(ratio)*365/float64(days))
	}

	if a.ClosedTrades > 0 {
		a.WinRate = Percent(100 * float64(a.Wins) / float64(a.ClosedTrades))
		a.AssignmentRate = Percent(100 * float64(a.Assignments) / float64(a.ClosedTrades))
	}
	if len(returns) > 0 {
		var sum float64
		for _, r := range returns {
			sum += r
		}
		a.AnnualizedReturn = Percent(sum / float64(len(returns)))
	}
	a.CollateralEfficiency = efficiencyPL.PerCent(efficiencyCollateral)

	open := OpenPositions(positions)
	a.OpenPositions = len(open)
	a.ActiveCollateral = activeCollateral(positions)

	for _, t := range tickers {
		a.Tickers = append(a.Tickers, *t)
	}
	slices.SortFunc(a.Tickers, func(x, y TickerAnalytics) int { return cmp.Compare(x.Ticker, y.Ticker) })
	return a
}
