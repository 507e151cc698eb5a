// Package settings resolves run settings from flags, environment, an optional
// settings file and defaults.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	BackendLunchMoney = "lunchmoney"
	BackendYNAB       = "ynab"

	SecretStoreKeyring = "keyring"
	SecretStoreFile    = "file"

	envPrefix = "QFXSYNC"
)

type Settings struct {
	Backend     string        `mapstructure:"backend"`
	BudgetID    string        `mapstructure:"budget_id"`
	ConfigDir   string        `mapstructure:"config_dir"`
	LogFile     string        `mapstructure:"log_file"`
	LogLevel    string        `mapstructure:"log_level"`
	APIURL      string        `mapstructure:"api_url"`
	Token       string        `mapstructure:"token"`
	SecretStore string        `mapstructure:"secret_store"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Verbose     bool          `mapstructure:"verbose"`
}

// flagKeys maps command-line flag names to settings keys.
var flagKeys = map[string]string{
	"backend":      "backend",
	"budget-id":    "budget_id",
	"config-dir":   "config_dir",
	"log-file":     "log_file",
	"log-level":    "log_level",
	"api-url":      "api_url",
	"secret-store": "secret_store",
	"timeout":      "timeout",
	"verbose":      "verbose",
}

// RegisterFlags adds the settings flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("backend", "", "Budgeting service: lunchmoney or ynab")
	fs.String("budget-id", "", "YNAB budget id (default last-used)")
	fs.String("config-dir", "", "Directory for configuration and logs (default ~/.qfxsync)")
	fs.String("log-file", "", "Log file (default <config-dir>/logs/qfxsync.log)")
	fs.String("log-level", "", "Log level: debug, info, warn, error")
	fs.String("api-url", "", "Lunch Money API base URL")
	fs.String("secret-store", "", "Credential storage: keyring or file")
	fs.Duration("timeout", 0, "HTTP timeout for API calls")
	fs.BoolP("verbose", "v", false, "Also write logs to stderr")
}

// Build resolves settings. cfgFile may be empty, in which case
// <config_dir>/settings.yaml is read when it exists. A .env file in the
// working directory is loaded into the environment first.
func Build(cfgFile string, fs *pflag.FlagSet) (*Settings, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("backend", BackendLunchMoney)
	v.SetDefault("budget_id", "last-used")
	v.SetDefault("config_dir", filepath.Join(home, ".qfxsync"))
	v.SetDefault("log_level", "info")
	v.SetDefault("api_url", "https://dev.lunchmoney.app/v1")
	v.SetDefault("secret_store", SecretStoreKeyring)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("token", "")
	v.SetDefault("log_file", "")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	} else {
		v.SetConfigName("settings")
		v.SetConfigType("yaml")
		v.AddConfigPath(expandHome(v.GetString("config_dir"), home))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read settings file: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.ConfigDir = expandHome(s.ConfigDir, home)
	if s.LogFile == "" {
		s.LogFile = filepath.Join(s.ConfigDir, "logs", "qfxsync.log")
	}
	s.LogFile = expandHome(s.LogFile, home)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks enumerated values.
func (s *Settings) Validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case BackendLunchMoney, BackendYNAB:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", s.Backend, BackendLunchMoney, BackendYNAB)
	}
	switch s.SecretStore {
	case SecretStoreKeyring, SecretStoreFile:
	default:
		return fmt.Errorf("unknown secret store %q (want %s or %s)", s.SecretStore, SecretStoreKeyring, SecretStoreFile)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	return nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
