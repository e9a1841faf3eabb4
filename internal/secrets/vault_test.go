package secrets_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Strob0t/seogov/internal/secrets"
)

func TestNewVault_InitialLoad(t *testing.T) {
	v, err := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"KEY_A": "val_a", "KEY_B": "val_b"}, nil
	})
	if err != nil {
		t.Fatalf("NewVault failed: %v", err)
	}

	if got := v.Get("KEY_A"); got != "val_a" {
		t.Fatalf("expected 'val_a', got %q", got)
	}
	if got := v.Get("MISSING"); got != "" {
		t.Fatalf("expected empty string for missing key, got %q", got)
	}
	if keys := v.Keys(); len(keys) != 2 || keys[0] != "KEY_A" || keys[1] != "KEY_B" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestNewVault_LoaderError(t *testing.T) {
	_, err := secrets.NewVault(func() (map[string]string, error) {
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("SEOGOV_TEST_SECRET", "mysecret")
	vals, err := secrets.EnvLoader("SEOGOV_TEST_SECRET", "SEOGOV_MISSING_SECRET")()
	if err != nil {
		t.Fatalf("EnvLoader failed: %v", err)
	}
	if vals["SEOGOV_TEST_SECRET"] != "mysecret" {
		t.Fatalf("expected 'mysecret', got %q", vals["SEOGOV_TEST_SECRET"])
	}
	if _, ok := vals["SEOGOV_MISSING_SECRET"]; ok {
		t.Fatal("expected missing env var to be omitted")
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smtp_password")
	if err := os.WriteFile(path, []byte("hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEOGOV_SMTP_PASSWORD_FILE", path)

	vals, err := secrets.FileLoader("SEOGOV_SMTP_PASSWORD", "DATABASE_URL")()
	if err != nil {
		t.Fatalf("FileLoader failed: %v", err)
	}
	if vals["SEOGOV_SMTP_PASSWORD"] != "hunter2" {
		t.Fatalf("expected trimmed file content, got %q", vals["SEOGOV_SMTP_PASSWORD"])
	}
	if _, ok := vals["DATABASE_URL"]; ok {
		t.Fatal("key without _FILE must be omitted")
	}

	t.Setenv("DATABASE_URL_FILE", filepath.Join(dir, "missing"))
	if _, err := secrets.FileLoader("DATABASE_URL")(); err == nil {
		t.Fatal("expected error for unreadable secret file")
	}
}

func TestChainLaterWins(t *testing.T) {
	first := func() (map[string]string, error) { return map[string]string{"A": "1", "B": "1"}, nil }
	second := func() (map[string]string, error) { return map[string]string{"B": "2"}, nil }

	v, err := secrets.NewVault(secrets.Chain(first, second))
	if err != nil {
		t.Fatal(err)
	}
	if v.Get("A") != "1" || v.Get("B") != "2" {
		t.Fatalf("A=%q B=%q, want 1 and 2", v.Get("A"), v.Get("B"))
	}

	failing := func() (map[string]string, error) { return nil, errors.New("boom") }
	if _, err := secrets.NewVault(secrets.Chain(first, failing)); err == nil {
		t.Fatal("expected chain to propagate loader error")
	}
}
