// Package ledger defines the budgeting service the importer talks to.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/qfxsync/pkg/models"
)

// ErrUnauthorized is returned when the service rejects the credential.
var ErrUnauthorized = errors.New("invalid API credential")

// Service is implemented by each supported budgeting backend.
type Service interface {
	// GetUser doubles as the connectivity probe.
	GetUser(ctx context.Context) (*models.User, error)
	GetAssets(ctx context.Context) ([]models.Asset, error)
	InsertTransactions(ctx context.Context, records []models.InsertRecord, opts models.InsertOptions) (*models.InsertResult, error)
	UpdateAssetBalance(ctx context.Context, id models.AssetID, balance decimal.Decimal) error
}

// Connector builds a Service for a credential. It does not contact the
// service; callers probe with GetUser.
type Connector func(credential string) (Service, error)
