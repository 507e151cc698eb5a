package executors

import (
	"context"

	"github.com/yurifrl/qfxsync/pkg/importer"
)

// previewing formats the pending records and shows all of them before
// anything is sent.
func (e *Executor) previewing(s *Session) (State, error) {
	e.prompter.Progress("Processing transactions")

	s.Records = importer.Format(s.Accounts, s.mapping(), s.Start)
	e.logger.Info("formatted transactions", "count", len(s.Records), "start", s.Start)
	if len(s.Records) == 0 {
		e.prompter.Error("No transactions to import")
		return Done, nil
	}

	e.prompter.Transactions(s.Records, s.Assets, s.mapping())
	return Confirming, nil
}

func (e *Executor) confirming(ctx context.Context, s *Session) (State, error) {
	ok, err := e.prompter.Confirm(ctx, "\nDo you want to proceed with the import?")
	if err != nil {
		return Done, err
	}
	if !ok {
		e.logger.Info("import cancelled by user", "pending", len(s.Records))
		e.prompter.Println("Import cancelled")
		return Done, nil
	}
	return Importing, nil
}
