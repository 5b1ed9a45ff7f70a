package tradelog

// Account is a brokerage account. Cash is only mutated by the ledger's cash
// updater; InitialCash is the reference point for P&L and never changes.
type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cash        Money  `json:"cashBalance"`
	InitialCash Money  `json:"initialCash"`
}
