package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by the budgeting services.
const DateLayout = "2006-01-02"

// Transaction represents a single transaction read from a statement file.
type Transaction struct {
	ID     string
	Date   time.Time
	Amount decimal.Decimal
	Payee  string
	Memo   string
}

// Day returns the transaction date truncated to midnight UTC, keeping the
// calendar day the bank reported regardless of its time zone.
func (t Transaction) Day() time.Time {
	return CalendarDay(t.Date)
}

// CalendarDay drops the time of day and location from t.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InsertRecord is the request shape for creating one transaction remotely.
type InsertRecord struct {
	Date       string
	Amount     decimal.Decimal
	Payee      string
	AssetID    AssetID
	ExternalID string
	Notes      string
}

// InsertOptions are the server-side behaviours requested with a batch insert.
type InsertOptions struct {
	ApplyRules        bool
	SkipDuplicates    bool
	CheckForRecurring bool
	DebitAsNegative   bool
	SkipBalanceUpdate bool
}

// DefaultInsertOptions mirrors what the importer always asks for: duplicate
// suppression on the external id, rules and recurring detection enabled.
func DefaultInsertOptions() InsertOptions {
	return InsertOptions{
		ApplyRules:        true,
		SkipDuplicates:    true,
		CheckForRecurring: true,
		DebitAsNegative:   true,
	}
}

// InsertResult reports what the remote service did with a batch.
type InsertResult struct {
	IDs        []string
	Duplicates []string
}

// Inserted returns how many transactions were actually created.
func (r *InsertResult) Inserted() int {
	if r == nil {
		return 0
	}
	return len(r.IDs)
}
