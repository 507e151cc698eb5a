// Package config persists the credential and account mapping between runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/yurifrl/qfxsync/pkg/models"
)

var (
	ErrCorrupted      = errors.New("configuration file is corrupted")
	ErrCredentialSave = errors.New("failed to save credential")
	ErrMappingSave    = errors.New("failed to save account mapping")
)

// Scope selects what Reset clears.
type Scope int

const (
	ScopeMapping Scope = iota + 1
	ScopeCredential
	ScopeFull
)

func (s Scope) String() string {
	switch s {
	case ScopeMapping:
		return "mapping"
	case ScopeCredential:
		return "credential"
	case ScopeFull:
		return "full"
	default:
		return "scope(" + strconv.Itoa(int(s)) + ")"
	}
}

// Config is what survives between runs.
type Config struct {
	Credential     string
	AccountMapping models.AccountMapping
}

// New returns an empty configuration holding only a credential.
func New(credential string) *Config {
	return &Config{Credential: credential, AccountMapping: models.AccountMapping{}}
}

// fileConfig is the on-disk layout. APIKey is only written in degraded mode,
// when no secret store is available.
type fileConfig struct {
	AccountMapping map[string]string `yaml:"account_mapping"`
	APIKey         string            `yaml:"api_key,omitempty"`
}

// Options configure a Store.
type Options struct {
	// Dir holds the mapping file and the legacy config.json.
	Dir string
	// Backend namespaces the mapping file and the keyring entry.
	Backend string
	// Secrets stores the credential; nil means degraded file-only mode.
	Secrets SecretStore
	// SeedCredential is used when nothing is stored, typically from the environment.
	SeedCredential string
}

// Store loads and saves Config on the local filesystem and secret store.
type Store struct {
	logger  *log.Logger
	path    string
	legacy  string
	secrets SecretStore
	seed    string
}

func NewStore(opts Options, logger *log.Logger) *Store {
	backend := opts.Backend
	if backend == "" {
		backend = "lunchmoney"
	}
	s := &Store{
		logger:  logger,
		path:    filepath.Join(opts.Dir, backend+".yaml"),
		secrets: opts.Secrets,
		seed:    opts.SeedCredential,
	}
	if backend == "lunchmoney" {
		s.legacy = filepath.Join(opts.Dir, "config.json")
	}
	return s
}

// Path returns the mapping file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored configuration, or nil when there is neither a
// credential nor a mapping. A structurally invalid file yields ErrCorrupted.
func (s *Store) Load() (*Config, error) {
	fc, found, err := s.readFile()
	if err != nil {
		return nil, err
	}

	credential := s.loadCredential(fc)
	if !found && credential == "" {
		return nil, nil
	}

	cfg := New(credential)
	if fc != nil {
		for k, v := range fc.AccountMapping {
			cfg.AccountMapping[k] = models.AssetID(v)
		}
	}
	return cfg, nil
}

func (s *Store) loadCredential(fc *fileConfig) string {
	if s.secrets != nil {
		key, err := s.secrets.Get()
		switch {
		case err == nil && key != "":
			return key
		case err != nil && !errors.Is(err, ErrSecretNotFound):
			s.logger.Warn("failed to read credential from secret store", "error", err)
		}
	}
	if fc != nil && fc.APIKey != "" {
		return decodeFileSecret(fc.APIKey)
	}
	return s.seed
}

// readFile returns the parsed mapping file, falling back to the legacy JSON
// layout. found is false when neither exists.
func (s *Store) readFile() (*fileConfig, bool, error) {
	for _, path := range []string{s.path, s.legacy} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			s.logger.Error("error accessing config file", "path", path, "error", err)
			return nil, false, fmt.Errorf("could not access configuration file: %w", err)
		}
		fc, err := parseFile(data)
		if err != nil {
			s.logger.Error("invalid configuration", "path", path, "error", err)
			return nil, false, err
		}
		if path == s.legacy {
			s.logger.Info("loaded legacy configuration", "path", path)
		}
		return fc, true, nil
	}
	return nil, false, nil
}

// parseFile decodes YAML (and therefore JSON). Mapping keys and values are
// coerced to strings since older files stored numeric ids.
func parseFile(data []byte) (*fileConfig, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if raw == nil {
		return &fileConfig{AccountMapping: map[string]string{}}, nil
	}

	root, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: invalid structure", ErrCorrupted)
	}

	fc := &fileConfig{AccountMapping: map[string]string{}}
	if key, ok := root["api_key"]; ok && key != nil {
		fc.APIKey = fmt.Sprint(key)
	}

	rawMapping, ok := root["account_mapping"]
	if !ok || rawMapping == nil {
		return fc, nil
	}
	switch m := rawMapping.(type) {
	case map[string]any:
		for k, v := range m {
			fc.AccountMapping[k] = fmt.Sprint(v)
		}
	case map[any]any:
		for k, v := range m {
			fc.AccountMapping[fmt.Sprint(k)] = fmt.Sprint(v)
		}
	default:
		return nil, fmt.Errorf("%w: invalid mapping", ErrCorrupted)
	}
	return fc, nil
}

// Save writes the credential to the secret store and the mapping to the
// mapping file. Failures of either half are reported together.
func (s *Store) Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil configuration")
	}

	fc := &fileConfig{AccountMapping: make(map[string]string, len(cfg.AccountMapping))}
	for k, v := range cfg.AccountMapping {
		fc.AccountMapping[k] = string(v)
	}

	var credErr error
	if cfg.Credential != "" {
		if s.secrets == nil {
			fc.APIKey = encodeFileSecret(cfg.Credential)
		} else if err := s.secrets.Set(cfg.Credential); err != nil {
			s.logger.Warn("secret store unavailable, storing encoded credential in config file", "error", err)
			fc.APIKey = encodeFileSecret(cfg.Credential)
		} else {
			s.logger.Info("credential saved to secret store")
		}
	}

	mapErr := s.writeFile(fc)
	if mapErr != nil && fc.APIKey != "" {
		// The credential only lived in the file that failed to write.
		credErr = fmt.Errorf("%w: %v", ErrCredentialSave, mapErr)
	}
	if mapErr != nil {
		mapErr = fmt.Errorf("%w: %v", ErrMappingSave, mapErr)
	} else {
		s.logger.Info("configuration saved", "path", s.path, "accounts", len(fc.AccountMapping))
	}
	return errors.Join(credErr, mapErr)
}

func (s *Store) writeFile(fc *fileConfig) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return err
	}
	if s.legacy != "" {
		if err := os.Remove(s.legacy); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove legacy config file", "path", s.legacy, "error", err)
		} else if err == nil {
			s.logger.Info("migrated legacy config file", "from", s.legacy, "to", s.path)
		}
	}
	return nil
}

// Reset clears the parts of the configuration named by scope.
func (s *Store) Reset(scope Scope) error {
	s.logger.Info("resetting configuration", "scope", scope)

	switch scope {
	case ScopeMapping:
		fc, _, err := s.readFile()
		if err != nil && !errors.Is(err, ErrCorrupted) {
			return err
		}
		if fc == nil || fc.APIKey == "" {
			return s.removeFiles()
		}
		// Degraded mode keeps the credential inside the mapping file.
		return s.writeFile(&fileConfig{AccountMapping: map[string]string{}, APIKey: fc.APIKey})
	case ScopeCredential:
		s.seed = ""
		s.deleteSecret()
		fc, found, err := s.readFile()
		if err != nil || !found || fc.APIKey == "" {
			return nil
		}
		fc.APIKey = ""
		return s.writeFile(fc)
	case ScopeFull:
		s.seed = ""
		s.deleteSecret()
		return s.removeFiles()
	default:
		return fmt.Errorf("unknown reset scope %v", scope)
	}
}

// deleteSecret removes the credential from the secret store. An unreachable
// store means degraded mode, where the credential lives in the mapping file
// and is cleared there by the caller.
func (s *Store) deleteSecret() {
	if s.secrets == nil {
		return
	}
	err := s.secrets.Delete()
	switch {
	case err == nil:
		s.logger.Info("credential removed from secret store")
	case errors.Is(err, ErrSecretNotFound):
	default:
		s.logger.Warn("secret store unavailable, clearing file credential only", "error", err)
	}
}

func (s *Store) removeFiles() error {
	for _, path := range []string{s.path, s.legacy} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
