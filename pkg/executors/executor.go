// Package executors drives an import session from credential to balance
// reconciliation as an explicit state machine.
package executors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/qfxsync/pkg/config"
	"github.com/yurifrl/qfxsync/pkg/importer"
	"github.com/yurifrl/qfxsync/pkg/ledger"
	"github.com/yurifrl/qfxsync/pkg/models"
	"github.com/yurifrl/qfxsync/pkg/reconcile"
	"github.com/yurifrl/qfxsync/pkg/ui"
)

// ErrImportFailed wraps a failed transaction insert.
var ErrImportFailed = errors.New("import failed")

// ConfigStore persists the credential and account mapping.
type ConfigStore interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	Reset(scope config.Scope) error
}

type State int

const (
	AwaitCredential State = iota
	Connecting
	Reconciling
	AwaitDateFilter
	Previewing
	Confirming
	Importing
	ReconcilingBalances
	Done
)

func (s State) String() string {
	switch s {
	case AwaitCredential:
		return "await_credential"
	case Connecting:
		return "connecting"
	case Reconciling:
		return "reconciling"
	case AwaitDateFilter:
		return "await_date_filter"
	case Previewing:
		return "previewing"
	case Confirming:
		return "confirming"
	case Importing:
		return "importing"
	case ReconcilingBalances:
		return "reconciling_balances"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is everything one run knows. It is passed through the state
// handlers instead of living in package state.
type Session struct {
	Accounts []models.Account
	Config   *config.Config
	Service  ledger.Service
	User     *models.User
	Assets   []models.Asset
	Start    *time.Time
	Records  []models.InsertRecord
	Result   *models.InsertResult

	credential string
	// stored is set when credential came from the config store.
	stored bool
	// changed is set when the user asked to replace the credential.
	changed bool
	// discarded is a stored credential that failed the probe. It is not
	// offered again even if the store could not forget it.
	discarded string
}

func (s *Session) mapping() models.AccountMapping {
	if s.Config == nil {
		return nil
	}
	return s.Config.AccountMapping
}

type Executor struct {
	logger    *log.Logger
	store     ConfigStore
	connect   ledger.Connector
	prompter  *ui.Prompter
	onboarder *reconcile.Onboarder
	service   string
}

// New returns an Executor. service names the budgeting service in messages.
func New(logger *log.Logger, store ConfigStore, connect ledger.Connector, prompter *ui.Prompter, service string) *Executor {
	return &Executor{
		logger:    logger,
		store:     store,
		connect:   connect,
		prompter:  prompter,
		onboarder: reconcile.NewOnboarder(prompter, logger),
		service:   service,
	}
}

// Run imports the given statement accounts. It returns nil when the run ends
// normally, including when the user cancels or there is nothing to import.
func (e *Executor) Run(ctx context.Context, accounts []models.Account) error {
	s := &Session{Accounts: accounts}
	state := AwaitCredential
	for state != Done {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.logger.Debug("entering state", "state", state)

		next, err := e.step(ctx, s, state)
		if err != nil {
			e.logger.Error("run aborted", "state", state, "error", err)
			return err
		}
		state = next
	}
	e.logger.Info("run finished")
	return nil
}

func (e *Executor) step(ctx context.Context, s *Session, state State) (State, error) {
	switch state {
	case AwaitCredential:
		return e.awaitCredential(ctx, s)
	case Connecting:
		return e.connecting(ctx, s)
	case Reconciling:
		return e.reconciling(ctx, s)
	case AwaitDateFilter:
		return e.awaitDateFilter(ctx, s)
	case Previewing:
		return e.previewing(s)
	case Confirming:
		return e.confirming(ctx, s)
	case Importing:
		return e.importing(ctx, s)
	case ReconcilingBalances:
		return e.reconcilingBalances(ctx, s)
	default:
		return Done, fmt.Errorf("unknown state %v", state)
	}
}

func (e *Executor) importer(s *Session) *importer.Importer {
	return importer.New(s.Service, e.logger)
}
