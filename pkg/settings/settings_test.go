package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestBuildDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	s, err := Build("", flags(t, "--config-dir", dir))
	require.NoError(t, err)
	assert.Equal(t, BackendLunchMoney, s.Backend)
	assert.Equal(t, "last-used", s.BudgetID)
	assert.Equal(t, dir, s.ConfigDir)
	assert.Equal(t, filepath.Join(dir, "logs", "qfxsync.log"), s.LogFile)
	assert.Equal(t, "https://dev.lunchmoney.app/v1", s.APIURL)
	assert.Equal(t, SecretStoreKeyring, s.SecretStore)
	assert.Equal(t, 30*time.Second, s.Timeout)
}

func TestBuildLayering(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("backend: ynab\nbudget_id: from-file\nlog_level: warn\n"), 0o600))
	t.Setenv("QFXSYNC_BUDGET_ID", "from-env")
	t.Setenv("QFXSYNC_TOKEN", "env-token")

	s, err := Build(cfg, flags(t, "--log-level", "debug", "--config-dir", dir))
	require.NoError(t, err)
	assert.Equal(t, BackendYNAB, s.Backend)
	assert.Equal(t, "from-env", s.BudgetID)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "env-token", s.Token)
}

func TestBuildReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QFXSYNC_SECRET_STORE=file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("QFXSYNC_SECRET_STORE") })

	s, err := Build("", flags(t, "--config-dir", dir))
	require.NoError(t, err)
	assert.Equal(t, SecretStoreFile, s.SecretStore)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{name: "ok", s: Settings{Backend: "YNAB", SecretStore: SecretStoreFile, Timeout: time.Second}},
		{name: "bad backend", s: Settings{Backend: "mint", SecretStore: SecretStoreFile, Timeout: time.Second}, wantErr: true},
		{name: "bad store", s: Settings{Backend: BackendYNAB, SecretStore: "vault", Timeout: time.Second}, wantErr: true},
		{name: "zero timeout", s: Settings{Backend: BackendYNAB, SecretStore: SecretStoreFile}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
