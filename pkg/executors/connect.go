package executors

import (
	"context"
	"errors"
	"fmt"

	"github.com/yurifrl/qfxsync/pkg/config"
	"github.com/yurifrl/qfxsync/pkg/models"
	"github.com/yurifrl/qfxsync/pkg/reconcile"
	"github.com/yurifrl/qfxsync/pkg/ui"
)

func (e *Executor) awaitCredential(ctx context.Context, s *Session) (State, error) {
	cfg, err := e.store.Load()
	switch {
	case errors.Is(err, config.ErrCorrupted):
		e.prompter.Error(fmt.Sprintf("%v. It will be replaced once setup completes.", err))
		cfg = nil
	case err != nil:
		return Done, err
	}
	s.Config = cfg

	if cfg != nil && cfg.Credential != "" && cfg.Credential != s.discarded {
		s.credential = cfg.Credential
		s.stored = true
		return Connecting, nil
	}

	key, err := e.prompter.AskSecretNonEmpty(ctx, fmt.Sprintf("Enter your %s API key: ", e.service), "API key cannot be empty")
	if err != nil {
		return Done, err
	}
	s.credential = key
	s.stored = false
	return Connecting, nil
}

func (e *Executor) connecting(ctx context.Context, s *Session) (State, error) {
	e.prompter.Progress("Connecting to " + e.service + " API")

	svc, err := e.connect(s.credential)
	if err != nil {
		return Done, fmt.Errorf("failed to create %s client: %w", e.service, err)
	}

	user, err := svc.GetUser(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Done, ctxErr
		}
		e.logger.Error("API connection error", "stored", s.stored, "error", err)
		if s.stored {
			e.prompter.Println("\nStored API key is invalid. Please enter a new one.")
			if err := e.store.Reset(config.ScopeCredential); err != nil {
				e.logger.Error("failed to discard stored credential", "error", err)
			}
			s.discarded = s.credential
		} else {
			e.prompter.Println("\nInvalid API key or connection error. Please try again.")
		}
		s.credential = ""
		s.stored = false
		return AwaitCredential, nil
	}

	assets, err := svc.GetAssets(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Done, ctxErr
		}
		e.logger.Error("failed to list accounts", "error", err)
		e.prompter.Error(fmt.Sprintf("API Error: %v", err))
		if _, err := e.prompter.Ask(ctx, "Press Enter to retry..."); err != nil {
			return Done, err
		}
		return AwaitCredential, nil
	}

	s.Service = svc
	s.User = user
	s.Assets = assets
	e.prompter.User(user)
	return Reconciling, nil
}

func (e *Executor) reconciling(ctx context.Context, s *Session) (State, error) {
	if s.Config == nil {
		s.Config = config.New(s.credential)
	}
	s.Config.Credential = s.credential

	pending := reconcile.FindNew(s.Accounts, s.Config.AccountMapping)
	dirty := !s.stored
	if len(pending) > 0 {
		e.logger.Info("found unmapped accounts", "accounts", pending)
		additions, err := e.onboarder.Onboard(ctx, reconcile.Select(s.Accounts, pending), s.Assets)
		if errors.Is(err, reconcile.ErrNoAssets) {
			e.prompter.Error(fmt.Sprintf("No accounts found in %s. Create one and run the importer again.", e.service))
			return Done, err
		}
		if err != nil {
			return Done, err
		}
		if s.Config.AccountMapping.Merge(additions) > 0 {
			dirty = true
		}
	}

	if dirty {
		if err := e.store.Save(s.Config); err != nil {
			e.prompter.Error("Failed to save configuration")
			return Done, err
		}
		s.stored = true
		s.discarded = ""
		if s.changed {
			e.prompter.Success("API key updated successfully")
			s.changed = false
		}
	}
	return AwaitDateFilter, nil
}

func (e *Executor) awaitDateFilter(ctx context.Context, s *Session) (State, error) {
	choice, start, err := e.prompter.Menu(ctx)
	if err != nil {
		return Done, err
	}
	e.logger.Info("menu choice", "choice", choice)

	switch choice {
	case ui.FilterByDate:
		s.Start = &start
		return Previewing, nil
	case ui.ImportAll:
		s.Start = nil
		return Previewing, nil
	case ui.ChangeCredential:
		if err := e.store.Reset(config.ScopeCredential); err != nil {
			return Done, err
		}
		s.credential = ""
		s.stored = false
		s.changed = true
		return AwaitCredential, nil
	case ui.ReconfigureAccounts:
		if err := e.store.Reset(config.ScopeMapping); err != nil {
			return Done, err
		}
		s.Config.AccountMapping = models.AccountMapping{}
		return Reconciling, nil
	case ui.Reset:
		if err := e.store.Reset(config.ScopeFull); err != nil {
			return Done, err
		}
		s.Config = nil
		s.credential = ""
		s.stored = false
		return AwaitCredential, nil
	case ui.Exit:
		return Done, nil
	default:
		return Done, fmt.Errorf("unhandled menu choice %v", choice)
	}
}
