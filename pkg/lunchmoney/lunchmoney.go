// Package lunchmoney is a small client for the Lunch Money REST API covering
// what the importer needs: the current user, assets, transaction inserts and
// balance updates.
package lunchmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/qfxsync/pkg/ledger"
	"github.com/yurifrl/qfxsync/pkg/models"
)

const DefaultBaseURL = "https://dev.lunchmoney.app/v1"

type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *log.Logger
}

var _ ledger.Service = (*Client)(nil)

func New(opts Options, logger *log.Logger) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{baseURL: base, token: opts.Token, http: hc, logger: logger}
}

// APIError is an error reported by the API, either through the status code
// or through an "error" field in the body.
type APIError struct {
	Status   int
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("lunch money API error (HTTP %d)", e.Status)
	}
	return strings.Join(e.Messages, "; ")
}

// errorBody matches both {"error": "msg"} and {"error": ["a", "b"]}, plus the
// {"message": "..."} shape used for some 4xx responses.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func (b errorBody) messages() []string {
	var out []string
	if len(b.Error) > 0 && string(b.Error) != "null" {
		var one string
		var many []string
		switch {
		case json.Unmarshal(b.Error, &one) == nil:
			out = append(out, one)
		case json.Unmarshal(b.Error, &many) == nil:
			out = append(out, many...)
		default:
			out = append(out, string(b.Error))
		}
	}
	if b.Message != "" {
		out = append(out, b.Message)
	}
	return out
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		return ledger.ErrUnauthorized
	}

	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	if msgs := eb.messages(); len(msgs) > 0 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Messages: msgs}
		c.logger.Error("api error", "method", method, "path", path, "status", resp.StatusCode, "error", apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

type user struct {
	UserID     int64  `json:"user_id"`
	UserName   string `json:"user_name"`
	UserEmail  string `json:"user_email"`
	BudgetName string `json:"budget_name"`
}

func (c *Client) GetUser(ctx context.Context) (*models.User, error) {
	var u user
	if err := c.do(ctx, http.MethodGet, "/me", nil, &u); err != nil {
		return nil, err
	}
	c.logger.Info("API user response", "user_id", u.UserID, "budget", u.BudgetName)
	return &models.User{
		ID:         strconv.FormatInt(u.UserID, 10),
		Name:       u.UserName,
		Email:      u.UserEmail,
		BudgetName: u.BudgetName,
	}, nil
}

type asset struct {
	ID              int64           `json:"id"`
	TypeName        string          `json:"type_name"`
	SubtypeName     *string         `json:"subtype_name"`
	Name            string          `json:"name"`
	DisplayName     *string         `json:"display_name"`
	Balance         decimal.Decimal `json:"balance"`
	Currency        string          `json:"currency"`
	InstitutionName *string         `json:"institution_name"`
	ClosedOn        *string         `json:"closed_on"`
}

func (c *Client) GetAssets(ctx context.Context) ([]models.Asset, error) {
	var resp struct {
		Assets []asset `json:"assets"`
	}
	if err := c.do(ctx, http.MethodGet, "/assets", nil, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Asset, 0, len(resp.Assets))
	for _, a := range resp.Assets {
		if a.ClosedOn != nil && *a.ClosedOn != "" {
			continue
		}
		out = append(out, models.Asset{
			ID:              models.AssetID(strconv.FormatInt(a.ID, 10)),
			Name:            a.Name,
			InstitutionName: deref(a.InstitutionName),
			TypeName:        a.TypeName,
			SubtypeName:     deref(a.SubtypeName),
			Balance:         a.Balance,
			Currency:        a.Currency,
		})
	}
	c.logger.Info("fetched assets", "count", len(out), "closed", len(resp.Assets)-len(out))
	return out, nil
}

type insertTransaction struct {
	Date       string          `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Payee      string          `json:"payee"`
	AssetID    int64           `json:"asset_id"`
	ExternalID string          `json:"external_id"`
	Notes      string          `json:"notes,omitempty"`
	Status     string          `json:"status"`
}

type insertRequest struct {
	Transactions      []insertTransaction `json:"transactions"`
	ApplyRules        bool                `json:"apply_rules"`
	SkipDuplicates    bool                `json:"skip_duplicates"`
	CheckForRecurring bool                `json:"check_for_recurring"`
	DebitAsNegative   bool                `json:"debit_as_negative"`
	SkipBalanceUpdate bool                `json:"skip_balance_update"`
}

func (c *Client) InsertTransactions(ctx context.Context, records []models.InsertRecord, opts models.InsertOptions) (*models.InsertResult, error) {
	req := insertRequest{
		Transactions:      make([]insertTransaction, 0, len(records)),
		ApplyRules:        opts.ApplyRules,
		SkipDuplicates:    opts.SkipDuplicates,
		CheckForRecurring: opts.CheckForRecurring,
		DebitAsNegative:   opts.DebitAsNegative,
		SkipBalanceUpdate: opts.SkipBalanceUpdate,
	}
	for _, r := range records {
		id, err := assetID(r.AssetID)
		if err != nil {
			return nil, err
		}
		req.Transactions = append(req.Transactions, insertTransaction{
			Date:       r.Date,
			Amount:     r.Amount,
			Payee:      r.Payee,
			AssetID:    id,
			ExternalID: r.ExternalID,
			Notes:      r.Notes,
			Status:     "cleared",
		})
	}

	var resp struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.do(ctx, http.MethodPost, "/transactions", req, &resp); err != nil {
		return nil, err
	}

	result := &models.InsertResult{IDs: make([]string, 0, len(resp.IDs))}
	for _, id := range resp.IDs {
		result.IDs = append(result.IDs, strconv.FormatInt(id, 10))
	}
	return result, nil
}

func (c *Client) UpdateAssetBalance(ctx context.Context, id models.AssetID, balance decimal.Decimal) error {
	if _, err := assetID(id); err != nil {
		return err
	}
	body := map[string]string{"balance": balance.StringFixed(2)}
	if err := c.do(ctx, http.MethodPut, "/assets/"+string(id), body, nil); err != nil {
		return err
	}
	c.logger.Info("updated asset balance", "asset", id, "balance", balance.StringFixed(2))
	return nil
}

func assetID(id models.AssetID) (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, errors.New("invalid Lunch Money asset id " + strconv.Quote(string(id)))
	}
	return n, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
