package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/yurifrl/qfxsync/pkg/config"
	"github.com/yurifrl/qfxsync/pkg/executors"
	"github.com/yurifrl/qfxsync/pkg/logging"
	"github.com/yurifrl/qfxsync/pkg/settings"
	"github.com/yurifrl/qfxsync/pkg/ui"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "qfxsync [file.qfx]",
	Short:         "Import QFX bank statements into Lunch Money or YNAB",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		logger, err := logging.New(logging.Options{File: s.LogFile, Level: s.LogLevel, Verbose: s.Verbose})
		if err != nil {
			return err
		}
		defer logger.Close()
		logger.Info("settings loaded", "backend", s.Backend, "config_dir", s.ConfigDir, "secret_store", s.SecretStore)

		ctx := cmd.Context()
		prompter := ui.NewPrompter(os.Stdin, os.Stdout)
		name := serviceName(s.Backend)
		prompter.Welcome("QFX to " + name + " Importer")

		path, err := inputPath(ctx, prompter, args)
		if err != nil {
			return err
		}
		accounts, err := parseStatement(logger.Logger, path)
		if err != nil {
			logger.Error("failed to read statement", "path", path, "error", err)
			return err
		}

		var secrets config.SecretStore
		if s.SecretStore == settings.SecretStoreKeyring {
			secrets = config.NewKeyring(s.Backend)
		}
		store := config.NewStore(config.Options{
			Dir:            s.ConfigDir,
			Backend:        s.Backend,
			Secrets:        secrets,
			SeedCredential: s.Token,
		}, logger.Logger)
		logger.Info("using configuration", "path", store.Path())

		exec := executors.New(logger.Logger, store, newConnector(s, logger.Logger), prompter, name)
		err = exec.Run(ctx, accounts)
		logger.Info("exiting", "code", exitCode(err), "error", err)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Settings file (default is <config-dir>/settings.yaml)")
	settings.RegisterFlags(rootCmd.Flags())
}

// exitCode is 0 for a finished, cancelled or abandoned run and 1 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, ui.ErrInputClosed):
		return 0
	default:
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	switch {
	case code == 0 && err != nil:
		fmt.Println("\nOperation cancelled by user")
	case errors.Is(err, executors.ErrImportFailed):
		// already reported by the executor
	case err != nil:
		ui.NewPrinter(os.Stdout).Error(err.Error())
	}
	stop()
	os.Exit(code)
}
