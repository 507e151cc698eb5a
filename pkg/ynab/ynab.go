package ynab

import (
	"errors"

	"github.com/brunomvsouza/ynab.go"
	"github.com/brunomvsouza/ynab.go/api"
	"github.com/brunomvsouza/ynab.go/api/account"
	"github.com/brunomvsouza/ynab.go/api/transaction"
	"github.com/brunomvsouza/ynab.go/api/user"

	"github.com/yurifrl/qfxsync/pkg/ledger"
)

// Gateway is the part of the YNAB API the backend calls.
type Gateway interface {
	GetUser() (*user.User, error)
	GetAccounts(budgetID string) ([]*account.Account, error)
	CreateTransactions(budgetID string, payloads []transaction.PayloadTransaction) (*transaction.OperationSummary, error)
}

// YNABClient wraps the ynab.go client behind Gateway.
type YNABClient struct {
	client ynab.ClientServicer
}

var _ Gateway = (*YNABClient)(nil)

func New(token string) *YNABClient {
	return &YNABClient{
		client: ynab.NewClient(token),
	}
}

func (c *YNABClient) GetUser() (*user.User, error) {
	u, err := c.client.User().GetUser()
	return u, translate(err)
}

func (c *YNABClient) GetAccounts(budgetID string) ([]*account.Account, error) {
	snapshot, err := c.client.Account().GetAccounts(budgetID, nil)
	if err != nil {
		return nil, translate(err)
	}
	if snapshot == nil {
		return nil, nil
	}
	return snapshot.Accounts, nil
}

// CreateTransactions creates multiple transactions in one API call
func (c *YNABClient) CreateTransactions(budgetID string, payloads []transaction.PayloadTransaction) (*transaction.OperationSummary, error) {
	if len(payloads) == 0 {
		return &transaction.OperationSummary{}, nil
	}
	summary, err := c.client.Transaction().CreateTransactions(budgetID, payloads)
	return summary, translate(err)
}

// translate maps authentication failures to ledger.ErrUnauthorized.
func translate(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.ID == "401" {
		return errors.Join(ledger.ErrUnauthorized, err)
	}
	return err
}
