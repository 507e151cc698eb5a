// Package qfx reads Quicken/OFX statement exports into file-side accounts.
package qfx

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/shopspring/decimal"

	"github.com/yurifrl/qfxsync/pkg/models"
)

// ErrNoAccounts is returned when a file parses but holds no statements.
var ErrNoAccounts = errors.New("no accounts found in QFX file")

// Attempt records why one decode strategy failed.
type Attempt struct {
	Strategy string
	Err      error
}

// ParseError is returned when every decode strategy failed. It unwraps to the
// error of the last attempt.
type ParseError struct {
	Path     string
	Attempts []Attempt
}

func (e *ParseError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("could not parse %s (%s)", e.Path, strings.Join(parts, "; "))
}

func (e *ParseError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

type Parser struct {
	logger     *log.Logger
	strategies []Strategy
	dump       *pp.PrettyPrinter
}

func New(logger *log.Logger) *Parser {
	dump := pp.New()
	dump.SetColoringEnabled(false)
	return &Parser{
		logger:     logger,
		strategies: DefaultStrategies,
		dump:       dump,
	}
}

// ParseFile reads and parses the statement file at path.
func (p *Parser) ParseFile(path string) ([]models.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	accounts, err := p.ProcessBytes(data)
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.Path = path
	}
	return accounts, err
}

// ProcessBytes tries each decode strategy in order and returns the accounts
// of the first decoding the OFX parser accepts.
func (p *Parser) ProcessBytes(data []byte) ([]models.Account, error) {
	perr := &ParseError{Path: "<memory>"}
	for _, s := range p.strategies {
		text, err := s.Decode(data)
		if err != nil {
			p.logger.Debug("decode failed", "strategy", s.Name, "error", err)
			perr.Attempts = append(perr.Attempts, Attempt{Strategy: s.Name, Err: err})
			continue
		}

		resp, err := ofxgo.ParseResponse(strings.NewReader(text))
		if err != nil {
			p.logger.Debug("ofx parse failed", "strategy", s.Name, "error", err)
			perr.Attempts = append(perr.Attempts, Attempt{Strategy: s.Name, Err: err})
			continue
		}

		p.logger.Info("parsed statement file", "strategy", s.Name, "bytes", len(data))
		accounts, err := p.accounts(resp)
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			p.logger.Debug("parsed account", "account", p.dump.Sprint(a))
		}
		return accounts, nil
	}

	p.logger.Error("failed to parse statement after all attempts", "error", perr)
	return nil, perr
}

func (p *Parser) accounts(resp *ofxgo.Response) ([]models.Account, error) {
	var accounts []models.Account

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			p.logger.Warn("skipping unexpected bank message", "type", fmt.Sprintf("%T", msg))
			continue
		}
		accounts = append(accounts, models.Account{
			ID:        stmt.BankAcctFrom.AcctID.String(),
			Type:      strings.ToLower(stmt.BankAcctFrom.AcctType.String()),
			Currency:  stmt.CurDef.String(),
			Statement: statement(stmt.BankTranList, stmt.AvailBalAmt),
		})
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			p.logger.Warn("skipping unexpected credit card message", "type", fmt.Sprintf("%T", msg))
			continue
		}
		accounts = append(accounts, models.Account{
			ID:        stmt.CCAcctFrom.AcctID.String(),
			Type:      "credit",
			Currency:  stmt.CurDef.String(),
			Statement: statement(stmt.BankTranList, stmt.AvailBalAmt),
		})
	}

	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return accounts, nil
}

func statement(list *ofxgo.TransactionList, avail *ofxgo.Amount) models.Statement {
	st := models.Statement{AvailableBalance: amountPtr(avail)}
	if list == nil {
		return st
	}
	st.Transactions = make([]models.Transaction, 0, len(list.Transactions))
	for _, txn := range list.Transactions {
		st.Transactions = append(st.Transactions, transaction(txn))
	}
	return st
}

func transaction(txn ofxgo.Transaction) models.Transaction {
	date := txn.DtPosted.Time
	if date.IsZero() && txn.DtUser != nil {
		date = txn.DtUser.Time
	}

	payee := strings.TrimSpace(txn.Name.String())
	if payee == "" && txn.Payee != nil {
		payee = strings.TrimSpace(txn.Payee.Name.String())
	}

	return models.Transaction{
		ID:     txn.FiTID.String(),
		Date:   date,
		Amount: amount(txn.TrnAmt),
		Payee:  payee,
		Memo:   strings.TrimSpace(txn.Memo.String()),
	}
}

// amount converts the exact rational OFX amount; two-decimal currency
// amounts always have a terminating decimal expansion.
func amount(a ofxgo.Amount) decimal.Decimal {
	return decimal.NewFromBigRat(&a.Rat, 6)
}

func amountPtr(a *ofxgo.Amount) *decimal.Decimal {
	if a == nil {
		return nil
	}
	d := amount(*a)
	return &d
}
