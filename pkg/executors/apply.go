package executors

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/qfxsync/pkg/importer"
	"github.com/yurifrl/qfxsync/pkg/models"
	"github.com/yurifrl/qfxsync/pkg/reconcile"
)

func (e *Executor) importing(ctx context.Context, s *Session) (State, error) {
	result, err := e.importer(s).Import(ctx, s.Records)
	switch {
	case errors.Is(err, importer.ErrNoTransactions), errors.Is(err, importer.ErrInvalidRecord):
		e.prompter.Error(fmt.Sprintf("Error validating transactions: %v", err))
		return Done, nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Done, ctxErr
		}
		e.prompter.Error(fmt.Sprintf("Error importing transactions: %v", err))
		e.prompter.Error("Import failed")
		return Done, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}

	s.Result = result
	if result.Inserted() == 0 {
		e.prompter.Println("\nNo new transactions imported.")
		e.prompter.Println("Note: This usually means all transactions already exist in " + e.service)
		e.prompter.Println("(Duplicate detection is based on transaction external ID)")
	} else {
		e.prompter.Println(fmt.Sprintf("\nSuccessfully imported %d transactions", result.Inserted()))
	}
	return ReconcilingBalances, nil
}

type balanceUpdate struct {
	id      models.AssetID
	name    string
	balance decimal.Decimal
}

func (e *Executor) reconcilingBalances(ctx context.Context, s *Session) (State, error) {
	if err := e.updateBalances(ctx, s); err != nil {
		return Done, err
	}
	e.prompter.Success("Import process complete")
	return Done, nil
}

// updateBalances compares each statement balance with a fresh copy of the
// remote balances and overwrites only the ones the user confirms. A failed
// update is reported and does not stop the others.
func (e *Executor) updateBalances(ctx context.Context, s *Session) error {
	assets, err := s.Service.GetAssets(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logger.Error("failed to get updated account data", "error", err)
		e.prompter.Error("Couldn't retrieve current balances - skipping balance updates")
		return nil
	}
	s.Assets = assets

	e.prompter.Header("Account Balances")
	var updates []balanceUpdate
	for _, entry := range reconcile.BuildBalanceReport(s.Accounts, s.mapping(), assets) {
		if entry.Missing {
			e.logger.Warn("mapped account not found remotely", "account", entry.AccountID, "asset", entry.AssetID)
			e.prompter.Error(fmt.Sprintf("%s (Account # %s) no longer exists - skipping", entry.Name, entry.AccountID))
			continue
		}
		e.prompter.Balance(entry.Name, entry.AccountID, entry.Current, entry.File, entry.Difference())
		if !entry.NeedsUpdate() {
			continue
		}
		ok, err := e.prompter.Confirm(ctx, "Update this account balance?")
		if err != nil {
			return err
		}
		if ok {
			updates = append(updates, balanceUpdate{id: entry.AssetID, name: entry.Name, balance: entry.File})
		}
	}

	if len(updates) == 0 {
		e.prompter.Println("\nNo balance updates requested")
		return nil
	}

	e.prompter.Println("\nUpdating account balances...")
	for _, u := range updates {
		if err := s.Service.UpdateAssetBalance(ctx, u.id, u.balance); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.logger.Error("balance update failed", "asset", u.id, "error", err)
			e.prompter.Error(fmt.Sprintf("Error updating %s: %v", u.name, err))
			continue
		}
		e.logger.Info("balance updated", "asset", u.id, "balance", u.balance.StringFixed(2))
		e.prompter.Success("Updated " + u.name)
	}
	return nil
}
