package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/yurifrl/qfxsync/pkg/models"
)

// BalanceEntry compares the balance a statement reports for one account with
// the balance the service currently holds.
type BalanceEntry struct {
	AccountID string
	AssetID   models.AssetID
	Name      string
	Current   decimal.Decimal
	File      decimal.Decimal
	// Missing is set when the mapped asset no longer exists remotely.
	Missing bool
}

// Difference is File minus Current.
func (e BalanceEntry) Difference() decimal.Decimal {
	return e.File.Sub(e.Current)
}

// NeedsUpdate reports whether the balances differ by at least one cent.
func (e BalanceEntry) NeedsUpdate() bool {
	return !e.Missing && Cents(e.Current) != Cents(e.File)
}

// Cents converts an amount to integer minor units, rounding half away from zero.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// BuildBalanceReport returns one entry per mapped statement account that
// reports an available balance, in statement order.
func BuildBalanceReport(accounts []models.Account, mapping models.AccountMapping, assets []models.Asset) []BalanceEntry {
	index := models.AssetIndex(assets)
	var out []BalanceEntry
	for _, account := range accounts {
		assetID, ok := mapping.Lookup(account.ID)
		if !ok || account.Statement.AvailableBalance == nil {
			continue
		}
		entry := BalanceEntry{
			AccountID: account.ID,
			AssetID:   assetID,
			File:      *account.Statement.AvailableBalance,
		}
		asset, found := index[assetID]
		if !found {
			entry.Missing = true
			entry.Name = "Asset " + string(assetID)
		} else {
			entry.Name = asset.DisplayName()
			entry.Current = asset.Balance
		}
		out = append(out, entry)
	}
	return out
}
