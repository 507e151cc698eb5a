package config

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "qfxsync"
	encodedPrefix  = "b64:"
)

// ErrSecretNotFound is returned by a SecretStore holding no credential.
var ErrSecretNotFound = errors.New("credential not found")

// SecretStore keeps the API credential outside the config file.
type SecretStore interface {
	Get() (string, error)
	Set(secret string) error
	Delete() error
}

// Keyring stores the credential in the platform secret service.
type Keyring struct {
	service string
	user    string
}

// NewKeyring returns the keyring entry used for the given backend.
func NewKeyring(backend string) *Keyring {
	return &Keyring{service: keyringService, user: backend + "_api"}
}

func (k *Keyring) Get() (string, error) {
	secret, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	return secret, err
}

func (k *Keyring) Set(secret string) error {
	return keyring.Set(k.service, k.user, secret)
}

func (k *Keyring) Delete() error {
	err := keyring.Delete(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrSecretNotFound
	}
	return err
}

// encodeFileSecret obscures a credential written to the config file. It is
// not encryption.
func encodeFileSecret(secret string) string {
	return encodedPrefix + base64.StdEncoding.EncodeToString([]byte(secret))
}

// decodeFileSecret accepts both encoded values and plain legacy keys.
func decodeFileSecret(value string) string {
	encoded, ok := strings.CutPrefix(value, encodedPrefix)
	if !ok {
		return value
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return value
	}
	return string(decoded)
}
