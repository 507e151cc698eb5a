package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/qfxsync/pkg/executors"
	"github.com/yurifrl/qfxsync/pkg/lunchmoney"
	"github.com/yurifrl/qfxsync/pkg/settings"
	"github.com/yurifrl/qfxsync/pkg/ui"
	"github.com/yurifrl/qfxsync/pkg/ynab"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{context.Canceled, 0},
		{fmt.Errorf("prompt: %w", ui.ErrInputClosed), 0},
		{fmt.Errorf("%w: boom", executors.ErrImportFailed), 1},
		{errors.New("input file not found: x.qfx"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestInputPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "export.qfx")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	p := ui.NewPrompter(strings.NewReader(""), io.Discard)
	got, err := inputPath(context.Background(), p, []string{file})
	require.NoError(t, err)
	assert.Equal(t, file, got)

	_, err = inputPath(context.Background(), p, []string{filepath.Join(dir, "missing.qfx")})
	assert.ErrorContains(t, err, "input file not found")

	var out bytes.Buffer
	p = ui.NewPrompter(strings.NewReader("\n"+dir+"\n"+file+"\n"), &out)
	got, err = inputPath(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, file, got)
	assert.Equal(t, 2, strings.Count(out.String(), "File not found. Please enter a valid path."))
}

func TestParseStatementRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.qfx")
	require.NoError(t, os.WriteFile(path, []byte("not a statement"), 0o600))

	_, err := parseStatement(log.New(io.Discard), path)
	assert.Error(t, err)
}

func TestNewConnector(t *testing.T) {
	logger := log.New(io.Discard)

	svc, err := newConnector(&settings.Settings{Backend: settings.BackendYNAB, BudgetID: "b"}, logger)("tok")
	require.NoError(t, err)
	assert.IsType(t, &ynab.Service{}, svc)

	svc, err = newConnector(&settings.Settings{Backend: settings.BackendLunchMoney}, logger)("tok")
	require.NoError(t, err)
	assert.IsType(t, &lunchmoney.Client{}, svc)

	assert.Equal(t, "YNAB", serviceName(settings.BackendYNAB))
	assert.Equal(t, "Lunch Money", serviceName(settings.BackendLunchMoney))
}
