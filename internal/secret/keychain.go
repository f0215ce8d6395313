package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const keychainService = "employerexport"

// KeychainStore implements SecretStore using the macOS Keychain
// via the `security` CLI tool. Store the connection string with:
//
//	security add-generic-password -a CONNECTION_STRING -s employerexport -w '<dsn>'
type KeychainStore struct {
	// command runs the security tool; replaced in tests.
	command func(name string, args ...string) ([]byte, error)
}

// NewKeychainStore creates a new KeychainStore.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{command: func(name string, args ...string) ([]byte, error) {
		return exec.Command(name, args...).Output()
	}}
}

// Get retrieves a secret from the macOS Keychain.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := k.command("security", "find-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", // output only the password
	)
	if err != nil {
		// "security" returns exit code 44 when item not found
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 44 {
			return nil, fmt.Errorf("%w: keychain item %s/%s", ErrNotFound, keychainService, key)
		}
		return nil, fmt.Errorf("keychain get: %w", err)
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return nil, fmt.Errorf("%w: keychain item %s/%s is empty", ErrNotFound, keychainService, key)
	}
	return []byte(v), nil
}
