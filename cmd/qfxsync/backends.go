package main

import (
	"github.com/charmbracelet/log"

	"github.com/yurifrl/qfxsync/pkg/ledger"
	"github.com/yurifrl/qfxsync/pkg/lunchmoney"
	"github.com/yurifrl/qfxsync/pkg/settings"
	"github.com/yurifrl/qfxsync/pkg/ynab"
)

func serviceName(backend string) string {
	if backend == settings.BackendYNAB {
		return "YNAB"
	}
	return "Lunch Money"
}

func newConnector(s *settings.Settings, logger *log.Logger) ledger.Connector {
	if s.Backend == settings.BackendYNAB {
		return func(token string) (ledger.Service, error) {
			return ynab.NewService(ynab.New(token), s.BudgetID, logger), nil
		}
	}
	return func(token string) (ledger.Service, error) {
		return lunchmoney.New(lunchmoney.Options{
			BaseURL: s.APIURL,
			Token:   token,
			Timeout: s.Timeout,
		}, logger), nil
	}
}
