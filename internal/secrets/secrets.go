// Package secrets gates mutating commands on the presence of the external
// secrets configuration. It is a pure check: no retry, no side effects.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissing indicates the secrets configuration is absent or incomplete.
var ErrMissing = errors.New("secrets configuration missing")

// DefaultRequiredKeys are the credentials the managed application cannot run
// without: app secret, database credentials and mail credentials.
var DefaultRequiredKeys = []string{
	"SECRET_KEY",
	"DATABASE_URL",
	"EMAIL_HOST_USER",
	"EMAIL_HOST_PASSWORD",
}

// Guard verifies the secrets file before any mutating command proceeds.
type Guard struct {
	path     string
	required []string
}

// NewGuard returns a guard for the given secrets file path checking the
// default required keys.
func NewGuard(path string) Guard {
	return Guard{path: path, required: DefaultRequiredKeys}
}

// NewGuardWithKeys returns a guard checking a custom key set.
func NewGuardWithKeys(path string, required []string) Guard {
	return Guard{path: path, required: required}
}

// Check fails with ErrMissing when the secrets file is absent or any
// required key is unset or blank.
func (g Guard) Check() error {
	if _, err := os.Stat(g.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s not found", ErrMissing, g.path)
		}
		return fmt.Errorf("stat secrets file: %w", err)
	}
	values, err := godotenv.Read(g.path)
	if err != nil {
		return fmt.Errorf("parse secrets file %s: %w", g.path, err)
	}
	var absent []string
	for _, key := range g.required {
		if strings.TrimSpace(values[key]) == "" {
			absent = append(absent, key)
		}
	}
	if len(absent) > 0 {
		return fmt.Errorf("%w: %s lacks %s", ErrMissing, g.path, strings.Join(absent, ", "))
	}
	return nil
}
