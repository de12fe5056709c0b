package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"

	"github.com/Ilia01/adoflow/internal/utils"
)

const (
	serviceName = "adoflow"

	// TokenKey is the keyring entry holding the Azure DevOps personal access token.
	TokenKey = "azure.token"

	// FilePasswordEnv holds the password of the encrypted file backend, which is
	// only used when no OS keyring is available.
	FilePasswordEnv = "ADOFLOW_KEYRING_PASSWORD"
)

var ErrNotFound = errors.New("credential not found")

var openKeyring = func() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.adoflow/credentials",
		FilePasswordFunc:         filePassword,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// filePassword reads the file backend password from FilePasswordEnv, falling back
// to an interactive prompt.
func filePassword(prompt string) (string, error) {
	if password := os.Getenv(FilePasswordEnv); password != "" {
		return password, nil
	}
	password, err := utils.PromptPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("reading keyring password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("empty keyring password; set %s", FilePasswordEnv)
	}
	return password, nil
}

func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

func Set(key, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "adoflow " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
