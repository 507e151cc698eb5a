// Package importer turns parsed statements into insert records and submits
// them. Deduplication is left to the service, keyed on each record's
// external id, so running an import twice never creates duplicates.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/qfxsync/pkg/ledger"
	"github.com/yurifrl/qfxsync/pkg/models"
)

const unknownPayee = "Unknown"

var (
	ErrNoTransactions = errors.New("no transactions to import")
	ErrInvalidRecord  = errors.New("invalid transaction")
)

// ExternalID is the stable identity of a statement transaction.
func ExternalID(accountID, transactionID string) string {
	return accountID + "-" + transactionID
}

// Format builds one record per transaction of every mapped account. Accounts
// without a mapping are skipped. When start is set, transactions dated before
// it are dropped; the start day itself is kept.
func Format(accounts []models.Account, mapping models.AccountMapping, start *time.Time) []models.InsertRecord {
	var from time.Time
	if start != nil {
		from = models.CalendarDay(*start)
	}

	var records []models.InsertRecord
	for _, account := range accounts {
		assetID, ok := mapping.Lookup(account.ID)
		if !ok {
			continue
		}
		for _, txn := range account.Statement.Transactions {
			day := txn.Day()
			if start != nil && day.Before(from) {
				continue
			}
			payee := txn.Payee
			if payee == "" {
				payee = unknownPayee
			}
			records = append(records, models.InsertRecord{
				Date:       day.Format(models.DateLayout),
				Amount:     txn.Amount,
				Payee:      payee,
				AssetID:    assetID,
				ExternalID: ExternalID(account.ID, txn.ID),
				Notes:      txn.Memo,
			})
		}
	}
	return records
}

// Validate rejects an empty batch and records missing a date, a target asset
// or an external id.
func Validate(records []models.InsertRecord) error {
	if len(records) == 0 {
		return ErrNoTransactions
	}
	for i, r := range records {
		switch {
		case r.Date == "":
			return fmt.Errorf("%w: record %d (%s) has no date", ErrInvalidRecord, i, r.ExternalID)
		case r.AssetID == "":
			return fmt.Errorf("%w: record %d (%s) has no target account", ErrInvalidRecord, i, r.ExternalID)
		case r.ExternalID == "":
			return fmt.Errorf("%w: record %d has no external id", ErrInvalidRecord, i)
		}
	}
	return nil
}

// Importer submits validated batches to a ledger service.
type Importer struct {
	service ledger.Service
	logger  *log.Logger
}

func New(service ledger.Service, logger *log.Logger) *Importer {
	return &Importer{service: service, logger: logger}
}

// Import validates records and inserts them in a single call.
func (i *Importer) Import(ctx context.Context, records []models.InsertRecord) (*models.InsertResult, error) {
	if err := Validate(records); err != nil {
		i.logger.Warn("refusing to import", "error", err)
		return nil, err
	}

	result, err := i.service.InsertTransactions(ctx, records, models.DefaultInsertOptions())
	if err != nil {
		i.logger.Error("API error during import", "error", err, "records", len(records))
		return nil, fmt.Errorf("failed to insert transactions: %w", err)
	}
	i.logger.Info("import result", "submitted", len(records), "imported", result.Inserted(), "duplicates", len(result.Duplicates))
	return result, nil
}
