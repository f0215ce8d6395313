package secret

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound is returned when a secret has no value in its source.
var ErrNotFound = errors.New("secret not found")

// ConnectionStringKey is the key the exporter's connection string is
// stored under in every source.
const ConnectionStringKey = "CONNECTION_STRING"

// SecretStore provides a pluggable interface for reading sensitive values
// such as the database connection string. Sources are environment
// variables, mounted secret files and the macOS Keychain.
type SecretStore interface {
	// Get retrieves the secret value for the given key.
	// Returns ErrNotFound if the source has no value.
	Get(key string) ([]byte, error)
}

// New returns the SecretStore for a configured source name.
func New(source, filePath string, getenv func(string) string) (SecretStore, error) {
	switch source {
	case "", "env":
		return &EnvStore{Getenv: getenv}, nil
	case "file":
		return &FileStore{Path: filePath}, nil
	case "keychain":
		return NewKeychainStore(), nil
	default:
		return nil, fmt.Errorf("unknown secret source %q", source)
	}
}

// ── EnvStore ───────────────────────────────────────────────

// EnvStore reads secrets from environment variables.
type EnvStore struct {
	Getenv func(string) string
}

func (s *EnvStore) Get(key string) ([]byte, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return nil, fmt.Errorf("%w: environment variable %s is empty", ErrNotFound, key)
	}
	return []byte(v), nil
}

// ── FileStore ──────────────────────────────────────────────

// FileStore reads a single secret from a file, as mounted by Docker or
// Kubernetes secrets. The key is ignored; trailing whitespace is trimmed.
type FileStore struct {
	Path string
}

func (s *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: file %s does not exist", ErrNotFound, key, s.Path)
		}
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	v := strings.TrimRight(string(data), " \t\r\n")
	if v == "" {
		return nil, fmt.Errorf("%w: %s: file %s is empty", ErrNotFound, key, s.Path)
	}
	return []byte(v), nil
}
