package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secrets file: %v", err)
	}
	return path
}

func TestCheckFailsWhenFileAbsent(t *testing.T) {
	g := NewGuard(filepath.Join(t.TempDir(), ".env"))
	err := g.Check()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}

func TestCheckFailsWhenRequiredKeyUnset(t *testing.T) {
	path := writeSecrets(t, "SECRET_KEY=abc\nDATABASE_URL=postgres://x\nEMAIL_HOST_USER=ops@example.com\n")
	err := NewGuard(path).Check()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing for absent EMAIL_HOST_PASSWORD, got %v", err)
	}
}

func TestCheckFailsWhenRequiredKeyBlank(t *testing.T) {
	path := writeSecrets(t, "SECRET_KEY=abc\nDATABASE_URL=postgres://x\nEMAIL_HOST_USER=ops@example.com\nEMAIL_HOST_PASSWORD=\n")
	err := NewGuard(path).Check()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing for blank EMAIL_HOST_PASSWORD, got %v", err)
	}
}

func TestCheckPassesWithAllKeys(t *testing.T) {
	path := writeSecrets(t, "SECRET_KEY=abc\nDATABASE_URL=postgres://x\nEMAIL_HOST_USER=ops@example.com\nEMAIL_HOST_PASSWORD=hunter2\n")
	if err := NewGuard(path).Check(); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func TestCheckWithCustomKeys(t *testing.T) {
	path := writeSecrets(t, "ONLY_KEY=1\n")
	if err := NewGuardWithKeys(path, []string{"ONLY_KEY"}).Check(); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if err := NewGuardWithKeys(path, []string{"OTHER"}).Check(); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}
