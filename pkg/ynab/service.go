// Package ynab is the YNAB backend. Statement transactions are created with
// their external id as YNAB import id, which YNAB uses to reject duplicates.
package ynab

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/brunomvsouza/ynab.go/api"
	"github.com/brunomvsouza/ynab.go/api/transaction"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/qfxsync/pkg/ledger"
	"github.com/yurifrl/qfxsync/pkg/models"
)

const (
	// YNAB rejects import ids longer than this.
	maxImportIDLen = 36

	adjustmentPayee = "Balance Adjustment"
)

type Service struct {
	gateway  Gateway
	budgetID string
	logger   *log.Logger
	now      func() time.Time
}

var _ ledger.Service = (*Service)(nil)

func NewService(gateway Gateway, budgetID string, logger *log.Logger) *Service {
	if budgetID == "" {
		budgetID = "last-used"
	}
	return &Service{gateway: gateway, budgetID: budgetID, logger: logger, now: time.Now}
}

func (s *Service) GetUser(ctx context.Context) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := s.gateway.GetUser()
	if err != nil {
		return nil, err
	}
	s.logger.Info("API user response", "user_id", u.ID, "budget", s.budgetID)
	return &models.User{ID: u.ID, Name: u.ID, BudgetName: s.budgetID}, nil
}

func (s *Service) GetAssets(ctx context.Context) ([]models.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accounts, err := s.gateway.GetAccounts(s.budgetID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Asset, 0, len(accounts))
	for _, a := range accounts {
		if a == nil || a.Closed || a.Deleted {
			continue
		}
		out = append(out, models.Asset{
			ID:       models.AssetID(a.ID),
			Name:     a.Name,
			TypeName: string(a.Type),
			Balance:  fromMilliunits(a.Balance),
		})
	}
	s.logger.Info("fetched accounts", "budget", s.budgetID, "count", len(out))
	return out, nil
}

func (s *Service) InsertTransactions(ctx context.Context, records []models.InsertRecord, _ models.InsertOptions) (*models.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payloads := make([]transaction.PayloadTransaction, 0, len(records))
	for _, r := range records {
		date, err := api.DateFromString(r.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q for %s: %w", r.Date, r.ExternalID, err)
		}
		payloads = append(payloads, transaction.PayloadTransaction{
			AccountID: string(r.AssetID),
			Date:      date,
			Amount:    toMilliunits(r.Amount),
			Cleared:   transaction.ClearingStatusCleared,
			Approved:  true,
			PayeeName: optional(r.Payee),
			Memo:      optional(r.Notes),
			ImportID:  optional(ImportID(r.ExternalID)),
		})
	}

	summary, err := s.gateway.CreateTransactions(s.budgetID, payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactions: %w", err)
	}
	return &models.InsertResult{IDs: summary.TransactionIDs, Duplicates: summary.DuplicateImportIDs}, nil
}

// UpdateAssetBalance records a cleared adjustment for the difference between
// the account's current balance and balance.
func (s *Service) UpdateAssetBalance(ctx context.Context, id models.AssetID, balance decimal.Decimal) error {
	assets, err := s.GetAssets(ctx)
	if err != nil {
		return err
	}
	var current *models.Asset
	for i := range assets {
		if assets[i].ID == id {
			current = &assets[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("account %s not found in budget %s", id, s.budgetID)
	}

	diff := toMilliunits(balance) - toMilliunits(current.Balance)
	if diff == 0 {
		return nil
	}
	date, err := api.DateFromString(s.now().Format(models.DateLayout))
	if err != nil {
		return err
	}
	_, err = s.gateway.CreateTransactions(s.budgetID, []transaction.PayloadTransaction{{
		AccountID: string(id),
		Date:      date,
		Amount:    diff,
		Cleared:   transaction.ClearingStatusCleared,
		Approved:  true,
		PayeeName: optional(adjustmentPayee),
	}})
	if err != nil {
		return fmt.Errorf("failed to create balance adjustment: %w", err)
	}
	s.logger.Info("created balance adjustment", "account", id, "milliunits", diff)
	return nil
}

// ImportID returns externalID when YNAB accepts it, otherwise a stable digest.
func ImportID(externalID string) string {
	if len(externalID) <= maxImportIDLen {
		return externalID
	}
	sum := sha256.Sum256([]byte(externalID))
	return "QFX:" + hex.EncodeToString(sum[:])[:maxImportIDLen-4]
}

func toMilliunits(d decimal.Decimal) int64 {
	return d.Shift(3).Round(0).IntPart()
}

func fromMilliunits(v int64) decimal.Decimal {
	return decimal.New(v, -3)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
