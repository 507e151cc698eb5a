package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account is one account found in a statement file.
type Account struct {
	ID        string
	Type      string
	Currency  string
	Statement Statement
}

// Statement holds the transactions and balances reported for an account.
type Statement struct {
	Transactions     []Transaction
	AvailableBalance *decimal.Decimal
}

// AssetID identifies an account on the budgeting service.
type AssetID string

// Asset is the budgeting service's representation of a financial account.
type Asset struct {
	ID              AssetID
	Name            string
	InstitutionName string
	TypeName        string
	SubtypeName     string
	Balance         decimal.Decimal
	Currency        string
}

// DisplayName renders the asset the way it is shown in menus and reports.
func (a Asset) DisplayName() string {
	if a.InstitutionName == "" {
		return a.Name
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.InstitutionName)
}

// Kind renders type and subtype, e.g. "cash/checking".
func (a Asset) Kind() string {
	if a.SubtypeName == "" {
		return a.TypeName
	}
	return a.TypeName + "/" + a.SubtypeName
}

// User is the owner of the credential in use.
type User struct {
	ID         string
	Name       string
	Email      string
	BudgetName string
}

// AssetIndex maps asset ids to assets.
func AssetIndex(assets []Asset) map[AssetID]Asset {
	idx := make(map[AssetID]Asset, len(assets))
	for _, a := range assets {
		idx[a.ID] = a
	}
	return idx
}
