// Package routing owns the generated reverse-proxy configuration and the
// deployment phase derived from it. Exactly one variant is active at any
// time: the plain-HTTP bootstrap variant or the TLS secured variant.
package routing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Phase is the bootstrap state of the routing configuration.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseBootstrapInsecure
	PhaseSecuredRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseBootstrapInsecure:
		return "bootstrap-insecure"
	case PhaseSecuredRunning:
		return "secured-running"
	default:
		return "uninitialized"
	}
}

func parsePhase(s string) Phase {
	switch strings.TrimSpace(s) {
	case PhaseBootstrapInsecure.String():
		return PhaseBootstrapInsecure
	case PhaseSecuredRunning.String():
		return PhaseSecuredRunning
	default:
		return PhaseUninitialized
	}
}

// ErrInvalidTransition indicates a phase change not permitted from the
// current phase.
var ErrInvalidTransition = errors.New("invalid phase transition")

const (
	activeName    = "default.conf"
	bootstrapName = "bootstrap.conf"
	securedName   = "secured.conf"
	// Parking name for a secured variant displaced during re-init. The file
	// is relocated, never deleted, so securing again restores it.
	parkedName = "default.conf.secured"

	phaseFile = "phase"
)

// Manager installs and swaps routing-config variants and keeps the stored
// phase value in step with the active file.
type Manager struct {
	dir      string
	stateDir string
}

// NewManager returns a manager over the routing directory. dir holds the
// shipped variant templates and the single active file; stateDir holds the
// stored phase.
func NewManager(dir, stateDir string) *Manager {
	return &Manager{dir: dir, stateDir: stateDir}
}

func (m *Manager) active() string    { return filepath.Join(m.dir, activeName) }
func (m *Manager) bootstrap() string { return filepath.Join(m.dir, bootstrapName) }
func (m *Manager) secured() string   { return filepath.Join(m.dir, securedName) }
func (m *Manager) parked() string    { return filepath.Join(m.dir, parkedName) }
func (m *Manager) phasePath() string { return filepath.Join(m.stateDir, phaseFile) }

// Current returns the stored phase. When the state file is absent (first run
// or state directory wiped) the phase is inferred from which variant file is
// present on disk.
func (m *Manager) Current() (Phase, error) {
	data, err := os.ReadFile(m.phasePath())
	if err == nil {
		return parsePhase(string(data)), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return PhaseUninitialized, fmt.Errorf("read phase state: %w", err)
	}
	return m.infer()
}

func (m *Manager) infer() (Phase, error) {
	if _, err := os.Stat(m.active()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return PhaseUninitialized, nil
		}
		return PhaseUninitialized, fmt.Errorf("stat active routing config: %w", err)
	}
	// A parked secured variant means the active file is the bootstrap one.
	if _, err := os.Stat(m.parked()); err == nil {
		return PhaseBootstrapInsecure, nil
	}
	return PhaseSecuredRunning, nil
}

func (m *Manager) persist(p Phase) error {
	if err := os.MkdirAll(m.stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(m.phasePath(), []byte(p.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("persist phase: %w", err)
	}
	return nil
}

// ActivateBootstrap installs the BootstrapInsecure variant. Any active
// secured variant is first relocated to a parking file so it survives; it is
// never deleted. Safe to invoke repeatedly.
func (m *Manager) ActivateBootstrap() error {
	// Every phase may re-enter bootstrap; init is idempotent.
	current, err := m.Current()
	if err != nil {
		return err
	}

	if _, err := os.Stat(m.bootstrap()); err != nil {
		return fmt.Errorf("bootstrap variant unavailable: %w", err)
	}

	// Relocate a live secured variant so it survives; the active file in
	// any other phase is already the bootstrap variant.
	if current == PhaseSecuredRunning {
		if _, perr := os.Stat(m.parked()); errors.Is(perr, os.ErrNotExist) {
			if err := os.Rename(m.active(), m.parked()); err != nil {
				return fmt.Errorf("relocate secured variant: %w", err)
			}
		}
	}

	data, err := os.ReadFile(m.bootstrap())
	if err != nil {
		return fmt.Errorf("read bootstrap variant: %w", err)
	}
	if err := os.WriteFile(m.active(), data, 0o644); err != nil {
		return fmt.Errorf("install bootstrap variant: %w", err)
	}
	return m.persist(PhaseBootstrapInsecure)
}

// ActivateSecured swaps the preserved secured variant back into place. The
// swap is conditional on file presence, making repeated invocations
// harmless: when no parked variant exists and the phase is already secured,
// the call is a no-op. Securing from Uninitialized is rejected.
func (m *Manager) ActivateSecured() error {
	current, err := m.Current()
	if err != nil {
		return err
	}
	if current == PhaseUninitialized {
		return fmt.Errorf("%w: cannot secure from %s", ErrInvalidTransition, current)
	}

	if _, err := os.Stat(m.parked()); err == nil {
		if err := os.Rename(m.parked(), m.active()); err != nil {
			return fmt.Errorf("restore secured variant: %w", err)
		}
		return m.persist(PhaseSecuredRunning)
	}

	if current == PhaseSecuredRunning {
		return nil
	}

	// First bootstrap on a fresh checkout: no variant was ever parked, fall
	// back to the shipped secured template.
	data, err := os.ReadFile(m.secured())
	if err != nil {
		return fmt.Errorf("secured variant unavailable: %w", err)
	}
	if err := os.WriteFile(m.active(), data, 0o644); err != nil {
		return fmt.Errorf("install secured variant: %w", err)
	}
	return m.persist(PhaseSecuredRunning)
}
