// Package reconcile matches statement accounts with the accounts that exist on
// the budgeting service. It is isolated from the import flow so the same
// logic backs onboarding and the balance check that follows an import.
package reconcile

import (
	"context"
	"errors"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/qfxsync/pkg/models"
	"github.com/yurifrl/qfxsync/pkg/ui"
)

// ErrNoAssets is returned by Onboard when the service has no account to pick.
var ErrNoAssets = errors.New("no accounts available on the budgeting service")

// FindNew returns the ids of statement accounts that have no mapping yet,
// sorted and without duplicates.
func FindNew(accounts []models.Account, mapping models.AccountMapping) []string {
	seen := make(map[string]bool, len(accounts))
	var out []string
	for _, a := range accounts {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		if _, ok := mapping.Lookup(a.ID); !ok {
			out = append(out, a.ID)
		}
	}
	sort.Strings(out)
	return out
}

// Select returns the accounts whose ids are listed, keeping statement order.
func Select(accounts []models.Account, ids []string) []models.Account {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Account
	for _, a := range accounts {
		if want[a.ID] {
			out = append(out, a)
			delete(want, a.ID)
		}
	}
	return out
}

// Onboarder asks the user which remote account each statement account feeds.
type Onboarder struct {
	prompter *ui.Prompter
	logger   *log.Logger
}

func NewOnboarder(prompter *ui.Prompter, logger *log.Logger) *Onboarder {
	return &Onboarder{prompter: prompter, logger: logger}
}

// Onboard prompts once per distinct account and returns the chosen pairs.
// The returned mapping is meant to be merged, never to replace an existing one.
func (o *Onboarder) Onboard(ctx context.Context, accounts []models.Account, assets []models.Asset) (models.AccountMapping, error) {
	additions := models.AccountMapping{}
	if len(accounts) == 0 {
		return additions, nil
	}
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}

	o.prompter.Header("Available Accounts")
	o.prompter.Assets(assets)
	o.prompter.Header("QFX Accounts to Match")

	for _, account := range accounts {
		if _, done := additions[account.ID]; done {
			continue
		}
		o.prompter.Println()
		o.prompter.Printf("Account: %s\n", account.ID)

		idx, err := o.prompter.Choose(ctx, len(assets))
		if err != nil {
			return nil, err
		}
		asset := assets[idx]
		additions[account.ID] = asset.ID
		o.prompter.Success("Matched with " + asset.Name)
		o.logger.Info("mapped account", "account", account.ID, "asset", asset.ID, "name", asset.Name)
	}
	return additions, nil
}
