package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/qfxsync/pkg/models"
	"github.com/yurifrl/qfxsync/pkg/qfx"
	"github.com/yurifrl/qfxsync/pkg/ui"
)

// inputPath returns the statement path given on the command line, or asks
// for one until an existing file is entered.
func inputPath(ctx context.Context, prompter *ui.Prompter, args []string) (string, error) {
	if len(args) > 0 {
		if !fileExists(args[0]) {
			return "", fmt.Errorf("input file not found: %s", args[0])
		}
		return args[0], nil
	}
	for {
		path, err := prompter.Ask(ctx, "Enter path to QFX file: ")
		if err != nil {
			return "", err
		}
		if path != "" && fileExists(path) {
			return path, nil
		}
		prompter.Println("File not found. Please enter a valid path.")
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// parseStatement reads every account of the file at path. Any failure here
// ends the run.
func parseStatement(logger *log.Logger, path string) ([]models.Account, error) {
	accounts, err := qfx.New(logger).ParseFile(path)
	if errors.Is(err, qfx.ErrNoAccounts) {
		return nil, errors.New("no accounts found in QFX file")
	}
	if err != nil {
		return nil, err
	}
	logger.Info("parsed statement", "path", path, "accounts", len(accounts))
	return accounts, nil
}
