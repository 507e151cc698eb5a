package importer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/qfxsync/pkg/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
}

func statementAccounts() []models.Account {
	return []models.Account{
		{ID: "1234", Statement: models.Statement{Transactions: []models.Transaction{
			{ID: "T1", Date: day(2024, 1, 5), Amount: decimal.RequireFromString("-12.34"), Payee: "Coffee", Memo: "latte"},
			{ID: "T2", Date: day(2024, 1, 15), Amount: decimal.RequireFromString("1000"), Payee: ""},
		}}},
		{ID: "5678", Statement: models.Statement{Transactions: []models.Transaction{
			{ID: "C1", Date: day(2024, 1, 10), Amount: decimal.RequireFromString("-45"), Payee: "Grocer"},
		}}},
	}
}

func TestFormat(t *testing.T) {
	records := Format(statementAccounts(), models.AccountMapping{"1234": "9", "5678": "10"}, nil)
	require.Len(t, records, 3)

	assert.Equal(t, models.InsertRecord{
		Date:       "2024-01-05",
		Amount:     decimal.RequireFromString("-12.34"),
		Payee:      "Coffee",
		AssetID:    "9",
		ExternalID: "1234-T1",
		Notes:      "latte",
	}, records[0])
	assert.Equal(t, "Unknown", records[1].Payee)
	assert.True(t, records[1].Amount.IsPositive())
	assert.Equal(t, "5678-C1", records[2].ExternalID)
}

func TestFormatIsDeterministic(t *testing.T) {
	mapping := models.AccountMapping{"1234": "9", "5678": "10"}
	first := Format(statementAccounts(), mapping, nil)
	second := Format(statementAccounts(), mapping, nil)

	ids := func(rs []models.InsertRecord) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ExternalID)
		}
		return out
	}
	assert.Equal(t, ids(first), ids(second))
}

func TestFormatDropsUnmappedAccounts(t *testing.T) {
	records := Format(statementAccounts(), models.AccountMapping{"1234": "9", "5678": ""}, nil)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, models.AssetID("9"), r.AssetID)
	}
}

func TestFormatStartDateIsInclusive(t *testing.T) {
	mapping := models.AccountMapping{"1234": "9", "5678": "10"}
	tests := []struct {
		name  string
		start time.Time
		want  []string
	}{
		{name: "before all", start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), want: []string{"1234-T1", "1234-T2", "5678-C1"}},
		{name: "exact day", start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), want: []string{"1234-T2", "5678-C1"}},
		{name: "after all", start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range Format(statementAccounts(), mapping, &tt.start) {
				got = append(got, r.ExternalID)
				assert.GreaterOrEqual(t, r.Date, tt.start.Format(models.DateLayout))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := models.InsertRecord{Date: "2024-01-05", AssetID: "9", ExternalID: "1234-T1"}
	tests := []struct {
		name    string
		records []models.InsertRecord
		wantErr error
	}{
		{name: "ok", records: []models.InsertRecord{valid}},
		{name: "empty", records: nil, wantErr: ErrNoTransactions},
		{name: "no date", records: []models.InsertRecord{valid, {AssetID: "9", ExternalID: "x"}}, wantErr: ErrInvalidRecord},
		{name: "no asset", records: []models.InsertRecord{{Date: "2024-01-05", ExternalID: "x"}}, wantErr: ErrInvalidRecord},
		{name: "no external id", records: []models.InsertRecord{{Date: "2024-01-05", AssetID: "9"}}, wantErr: ErrInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.records)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type fakeService struct {
	inserted [][]models.InsertRecord
	opts     models.InsertOptions
	err      error
}

func (f *fakeService) GetUser(context.Context) (*models.User, error)    { return &models.User{}, nil }
func (f *fakeService) GetAssets(context.Context) ([]models.Asset, error) { return nil, nil }
func (f *fakeService) UpdateAssetBalance(context.Context, models.AssetID, decimal.Decimal) error {
	return nil
}

func (f *fakeService) InsertTransactions(_ context.Context, records []models.InsertRecord, opts models.InsertOptions) (*models.InsertResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inserted = append(f.inserted, records)
	f.opts = opts
	return &models.InsertResult{IDs: []string{"1", "2"}}, nil
}

func TestImport(t *testing.T) {
	svc := &fakeService{}
	imp := New(svc, log.New(io.Discard))
	records := Format(statementAccounts(), models.AccountMapping{"1234": "9"}, nil)

	result, err := imp.Import(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted())
	require.Len(t, svc.inserted, 1)
	assert.Equal(t, models.DefaultInsertOptions(), svc.opts)
	assert.True(t, svc.opts.SkipDuplicates)
}

func TestImportSkipsInvalidBatch(t *testing.T) {
	svc := &fakeService{}
	_, err := New(svc, log.New(io.Discard)).Import(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoTransactions)
	assert.Empty(t, svc.inserted)
}

func TestImportWrapsServiceError(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{err: boom}
	_, err := New(svc, log.New(io.Discard)).Import(context.Background(), []models.InsertRecord{{Date: "2024-01-01", AssetID: "9", ExternalID: "a-b"}})
	assert.ErrorIs(t, err, boom)
}
