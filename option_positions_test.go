package tradelog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sto(id, on string, contracts int64, strike, premium float64) OptionTransaction {
	return OptionTransaction{
		ID: id, AccountID: "acc", Ticker: "AAPL", Type: Put, Action: SellToOpen,
		Contracts: contracts, Strike: USD(strike), Premium: USD(premium),
		TotalPremium: USD(premium).MulInt(contracts * ContractMultiplier),
		Expiration:   day("2025-03-21"), Date: day(on), Status: StatusOpen,
	}
}

func btc(id, on string, contracts int64, strike, premium float64, status OptionStatus) OptionTransaction {
	tx := sto(id, on, contracts, strike, premium)
	tx.Action = BuyToClose
	tx.Status = status
	return tx
}

func TestProjectOptionPositions(t *testing.T) {
	key := PositionKey{AccountID: "acc", Ticker: "AAPL", Strike: "170", Expiration: day("2025-03-21"), Type: Put}

	tests := []struct {
		name string
		txs  []OptionTransaction
		want []OptionPosition
	}{
		{
			name: "single open",
			txs:  []OptionTransaction{sto("1", "2025-01-02", 2, 170, 3.5)},
			want: []OptionPosition{{
				ID: "1", Key: key, Short: true, Strike: USD(170), Contracts: 2,
				AveragePremium: USD(3.5), TotalPremium: USD(700), Status: StatusOpen,
				OpenDate: day("2025-01-02"), TransactionIDs: []string{"1"},
			}},
		},
		{
			name: "opens on the same key merge with a weighted premium",
			txs: []OptionTransaction{
				sto("1", "2025-01-02", 1, 170, 3),
				sto("2", "2025-01-03", 3, 170, 4),
			},
			want: []OptionPosition{{
				ID: "1", Key: key, Short: true, Strike: USD(170), Contracts: 4,
				AveragePremium: USD(3.75), TotalPremium: USD(1500), Status: StatusOpen,
				OpenDate: day("2025-01-02"), TransactionIDs: []string{"1", "2"},
			}},
		},
		{
			name: "partial close stays open",
			txs: []OptionTransaction{
				sto("1", "2025-01-02", 2, 170, 3.5),
				btc("2", "2025-01-10", 1, 170, 1, StatusClosed),
			},
			want: []OptionPosition{{
				ID: "1", Key: key, Short: true, Strike: USD(170), Contracts: 1,
				AveragePremium: USD(3.5), TotalPremium: USD(350), Status: StatusOpen,
				OpenDate: day("2025-01-02"), TransactionIDs: []string{"1", "2"},
			}},
		},
		{
			name: "full close takes the closing status",
			txs: []OptionTransaction{
				sto("1", "2025-01-02", 2, 170, 3.5),
				func() OptionTransaction {
					tx := btc("2", "2025-03-21", 2, 170, 0, StatusExpired)
					tx.RealizedPL = ptr(USD(698))
					return tx
				}(),
			},
			want: []OptionPosition{{
				ID: "1", Key: key, Short: true, Strike: USD(170), Contracts: 0,
				AveragePremium: USD(3.5), TotalPremium: USD(0), Status: StatusExpired,
				OpenDate: day("2025-01-02"), CloseDate: day("2025-03-21"), RealizedPL: ptr(USD(698)),
				TransactionIDs: []string{"1", "2"},
			}},
		},
		{
			name: "reopening a closed key starts a new position",
			txs: []OptionTransaction{
				sto("1", "2025-01-02", 1, 170, 2),
				btc("2", "2025-01-05", 1, 170, 1, StatusClosed),
				sto("3", "2025-01-06", 1, 170, 5),
			},
			want: []OptionPosition{
				{
					ID: "1", Key: key, Short: true, Strike: USD(170), Contracts: 0,
					AveragePremium: USD(2), TotalPremium: USD(0), Status: StatusClosed,
					OpenDate: day("2025-01-02"), CloseDate: day("2025-01-05"), TransactionIDs: []string{"1", "2"},
				},
				{
					ID: "3", Key: key, Short: true, Strike: USD(170), Contracts: 1,
					AveragePremium: USD(5), TotalPremium: USD(500), Status: StatusOpen,
					OpenDate: day("2025-01-06"), TransactionIDs: []string{"3"},
				},
			},
		},
		{
			name: "orphan close is ignored",
			txs:  []OptionTransaction{btc("1", "2025-01-02", 1, 170, 1, StatusClosed)},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectOptionPositions(tt.txs, "")
			if diff := cmp.Diff(tt.want, got, cmpOpts, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ProjectOptionPositions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProjectOptionPositions_CollateralIsProportional(t *testing.T) {
	open := sto("1", "2025-01-02", 4, 50, 1)
	open.Collateral = ptr(USD(20000))
	txs := []OptionTransaction{open, btc("2", "2025-01-03", 1, 50, 0.5, StatusClosed)}

	got := ProjectOptionPositions(txs, "")
	if len(got) != 1 {
		t.Fatalf("got %d positions, want 1", len(got))
	}
	if want := USD(15000); !got[0].Collateral.Equal(want) {
		t.Errorf("Collateral = %v, want %v", got[0].Collateral, want)
	}
	if got := activeCollateral(got); !got.Equal(USD(15000)) {
		t.Errorf("activeCollateral() = %v, want 15000", got)
	}
}

func TestCheckContracts(t *testing.T) {
	open := sto("1", "2025-01-02", 2, 170, 3.5)
	tests := []struct {
		name    string
		txs     []OptionTransaction
		wantErr bool
	}{
		{"close within open", []OptionTransaction{open, btc("2", "2025-01-03", 2, 170, 1, StatusClosed)}, false},
		{"over close", []OptionTransaction{open, btc("2", "2025-01-03", 3, 170, 1, StatusClosed)}, true},
		{"close before open", []OptionTransaction{open, btc("2", "2025-01-01", 1, 170, 1, StatusClosed)}, true},
		{"wrong direction", []OptionTransaction{open, func() OptionTransaction {
			tx := btc("2", "2025-01-03", 1, 170, 1, StatusClosed)
			tx.Action = SellToClose
			return tx
		}()}, true},
		{"opposite open", []OptionTransaction{open, func() OptionTransaction {
			tx := sto("2", "2025-01-03", 1, 170, 1)
			tx.Action = BuyToOpen
			return tx
		}()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkContracts(tt.txs, open.Key())
			if (err != nil) != tt.wantErr {
				t.Errorf("checkContracts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsInvalid(err) {
				t.Errorf("checkContracts() error = %v, want an ErrInvalid", err)
			}
		})
	}
}
