package ynab

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/brunomvsouza/ynab.go/api"
	"github.com/brunomvsouza/ynab.go/api/account"
	"github.com/brunomvsouza/ynab.go/api/transaction"
	"github.com/brunomvsouza/ynab.go/api/user"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/qfxsync/pkg/ledger"
	"github.com/yurifrl/qfxsync/pkg/models"
)

type fakeGateway struct {
	accounts []*account.Account
	created  [][]transaction.PayloadTransaction
	summary  *transaction.OperationSummary
	err      error
}

func (f *fakeGateway) GetUser() (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &user.User{ID: "u-1"}, nil
}

func (f *fakeGateway) GetAccounts(string) ([]*account.Account, error) {
	return f.accounts, f.err
}

func (f *fakeGateway) CreateTransactions(_ string, p []transaction.PayloadTransaction) (*transaction.OperationSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	if f.summary != nil {
		return f.summary, nil
	}
	return &transaction.OperationSummary{}, nil
}

func newService(g *fakeGateway) *Service {
	s := NewService(g, "", log.New(io.Discard))
	s.now = func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestGetAssetsSkipsClosedAndDeleted(t *testing.T) {
	g := &fakeGateway{accounts: []*account.Account{
		{ID: "a", Name: "Chequing", Type: account.Type("checking"), Balance: 1950500},
		{ID: "b", Name: "Old", Closed: true},
		{ID: "c", Name: "Gone", Deleted: true},
	}}

	assets, err := newService(g).GetAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, models.AssetID("a"), assets[0].ID)
	assert.Equal(t, "1950.5", assets[0].Balance.String())
	assert.Equal(t, "checking", assets[0].Kind())
}

func TestInsertTransactions(t *testing.T) {
	g := &fakeGateway{summary: &transaction.OperationSummary{
		TransactionIDs:     []string{"t1"},
		DuplicateImportIDs: []string{"1234-T2"},
	}}
	records := []models.InsertRecord{
		{Date: "2024-01-05", Amount: decimal.RequireFromString("-12.34"), Payee: "Coffee", AssetID: "a", ExternalID: "1234-T1", Notes: "latte"},
		{Date: "2024-01-06", Amount: decimal.RequireFromString("5"), Payee: "Refund", AssetID: "a", ExternalID: "1234-T2"},
	}

	result, err := newService(g).InsertTransactions(context.Background(), records, models.DefaultInsertOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted())
	assert.Equal(t, []string{"1234-T2"}, result.Duplicates)

	require.Len(t, g.created, 1)
	first := g.created[0][0]
	assert.Equal(t, int64(-12340), first.Amount)
	assert.Equal(t, "1234-T1", *first.ImportID)
	assert.Equal(t, "latte", *first.Memo)
	assert.Nil(t, g.created[0][1].Memo)
	assert.Equal(t, transaction.ClearingStatusCleared, first.Cleared)
}

func TestInsertTransactionsRejectsBadDate(t *testing.T) {
	_, err := newService(&fakeGateway{}).InsertTransactions(context.Background(), []models.InsertRecord{{Date: "05/01/2024", AssetID: "a", ExternalID: "x"}}, models.InsertOptions{})
	assert.Error(t, err)
}

func TestUpdateAssetBalanceCreatesAdjustment(t *testing.T) {
	g := &fakeGateway{accounts: []*account.Account{{ID: "a", Name: "Chequing", Balance: 100000}}}

	require.NoError(t, newService(g).UpdateAssetBalance(context.Background(), "a", decimal.RequireFromString("120.5")))
	require.Len(t, g.created, 1)
	adj := g.created[0][0]
	assert.Equal(t, int64(20500), adj.Amount)
	assert.Equal(t, "Balance Adjustment", *adj.PayeeName)
	want, err := api.DateFromString("2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, want, adj.Date)
}

func TestUpdateAssetBalanceNoop(t *testing.T) {
	g := &fakeGateway{accounts: []*account.Account{{ID: "a", Balance: 100000}}}
	require.NoError(t, newService(g).UpdateAssetBalance(context.Background(), "a", decimal.RequireFromString("100.0004")))
	assert.Empty(t, g.created)

	assert.Error(t, newService(g).UpdateAssetBalance(context.Background(), "missing", decimal.Zero))
}

func TestImportID(t *testing.T) {
	assert.Equal(t, "1234-T1", ImportID("1234-T1"))

	long := "123456789012-" + strings.Repeat("X", 40)
	id := ImportID(long)
	assert.Len(t, id, maxImportIDLen)
	assert.Equal(t, id, ImportID(long))
	assert.NotEqual(t, id, ImportID(long+"1"))
}

func TestTranslateUnauthorized(t *testing.T) {
	err := translate(&api.Error{ID: "401", Name: "not_authorized", Detail: "Unauthorized"})
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
	assert.NoError(t, translate(nil))
}
