package secret

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvStore_Get(t *testing.T) {
	s := &EnvStore{Getenv: func(k string) string {
		if k == ConnectionStringKey {
			return "  sqlserver://app:pw@db?database=Jobs \n"
		}
		return ""
	}}
	got, err := s.Get(ConnectionStringKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "sqlserver://app:pw@db?database=Jobs" {
		t.Errorf("got %q", got)
	}
	if _, err := s.Get("OTHER"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_Get(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conn")
	if err := os.WriteFile(path, []byte("postgres://app:pw@db/jobs\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := (&FileStore{Path: path}).Get(ConnectionStringKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "postgres://app:pw@db/jobs" {
		t.Errorf("got %q", got)
	}

	if _, err := (&FileStore{Path: filepath.Join(dir, "missing")}).Get(ConnectionStringKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing file, got %v", err)
	}

	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (&FileStore{Path: empty}).Get(ConnectionStringKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty file, got %v", err)
	}
}

func TestKeychainStore_Get(t *testing.T) {
	var gotArgs []string
	k := &KeychainStore{command: func(name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte("mysql-dsn\n"), nil
	}}

	got, err := k.Get(ConnectionStringKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "mysql-dsn" {
		t.Errorf("got %q", got)
	}
	want := []string{"security", "find-generic-password", "-a", ConnectionStringKey, "-s", keychainService, "-w"}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, gotArgs[i], want[i])
		}
	}
}

func TestKeychainStore_CommandFailure(t *testing.T) {
	k := &KeychainStore{command: func(string, ...string) ([]byte, error) {
		return nil, errors.New("security: not available")
	}}
	if _, err := k.Get(ConnectionStringKey); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew(t *testing.T) {
	if s, err := New("env", "", nil); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*EnvStore); !ok {
		t.Errorf("env -> %T", s)
	}
	if s, err := New("file", "/run/secrets/conn", nil); err != nil {
		t.Fatal(err)
	} else if fs, ok := s.(*FileStore); !ok || fs.Path != "/run/secrets/conn" {
		t.Errorf("file -> %#v", s)
	}
	if s, err := New("keychain", "", nil); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*KeychainStore); !ok {
		t.Errorf("keychain -> %T", s)
	}
	if _, err := New("vault", "", nil); err == nil {
		t.Error("expected error for unknown source")
	}
}
