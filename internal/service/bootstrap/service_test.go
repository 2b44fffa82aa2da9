package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

type fixture struct {
	calls []string
}

type fakeGuard struct {
	f   *fixture
	err error
}

func (g fakeGuard) Check() error {
	g.f.calls = append(g.f.calls, "guard")
	return g.err
}

type fakeRouter struct {
	f            *fixture
	bootstrapErr error
	securedErr   error
}

func (r fakeRouter) ActivateBootstrap() error {
	r.f.calls = append(r.f.calls, "routing-bootstrap")
	return r.bootstrapErr
}

func (r fakeRouter) ActivateSecured() error {
	r.f.calls = append(r.f.calls, "routing-secured")
	return r.securedErr
}

type fakeGroup struct {
	f        *fixture
	buildErr error
	upErr    error
}

func (g fakeGroup) Build(ctx context.Context) error {
	g.f.calls = append(g.f.calls, "build")
	return g.buildErr
}

func (g fakeGroup) Up(ctx context.Context) error {
	g.f.calls = append(g.f.calls, "up")
	return g.upErr
}

type fakeMigrator struct {
	f   *fixture
	err error
}

func (m fakeMigrator) Migrate(ctx context.Context) error {
	m.f.calls = append(m.f.calls, "migrate")
	return m.err
}

type fakeIssuer struct {
	f       *fixture
	err     error
	domains []string
}

func (i *fakeIssuer) Obtain(ctx context.Context, domains []string) error {
	i.f.calls = append(i.f.calls, "certonly")
	i.domains = domains
	return i.err
}

type fakeProxy struct {
	f   *fixture
	err error
}

func (p fakeProxy) Restart(ctx context.Context) error {
	p.f.calls = append(p.f.calls, "proxy-restart")
	return p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type options struct {
	guardErr     error
	bootstrapErr error
	securedErr   error
	buildErr     error
	upErr        error
	migrateErr   error
	certErr      error
	proxyErr     error
	dirs         []string
	domain       string
}

func newTestService(f *fixture, opt options) (Service, *fakeIssuer) {
	if opt.domain == "" {
		opt.domain = "example.kg"
	}
	issuer := &fakeIssuer{f: f, err: opt.certErr}
	svc := New(
		fakeGuard{f: f, err: opt.guardErr},
		fakeRouter{f: f, bootstrapErr: opt.bootstrapErr, securedErr: opt.securedErr},
		fakeGroup{f: f, buildErr: opt.buildErr, upErr: opt.upErr},
		fakeMigrator{f: f, err: opt.migrateErr},
		issuer,
		fakeProxy{f: f, err: opt.proxyErr},
		opt.dirs,
		0, // no settle wait in tests
		opt.domain,
		discardLogger(),
	)
	return svc, issuer
}

func TestInitRunsStepsInOrder(t *testing.T) {
	f := &fixture{}
	svc, _ := newTestService(f, options{})

	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	want := []string{"guard", "routing-bootstrap", "build", "up", "migrate"}
	if len(f.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, f.calls)
	}
	for i, step := range want {
		if f.calls[i] != step {
			t.Fatalf("expected %v, got %v", want, f.calls)
		}
	}
}

func TestInitNeverIssuesCertificates(t *testing.T) {
	f := &fixture{}
	svc, _ := newTestService(f, options{})

	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	for _, call := range f.calls {
		if call == "certonly" {
			t.Fatal("init must not auto-issue certificates; the bootstrap is two-phase")
		}
	}
}

func TestInitCreatesPersistentDirsIdempotently(t *testing.T) {
	f := &fixture{}
	base := t.TempDir()
	dirs := []string{filepath.Join(base, "backups"), filepath.Join(base, ".deploy")}
	svc, _ := newTestService(f, options{dirs: dirs})

	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("second init over existing dirs: %v", err)
	}
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected persistent dir %s: %v", dir, err)
		}
	}
}

func TestInitAbortsOnBuildFailureBeforeMigration(t *testing.T) {
	f := &fixture{}
	svc, _ := newTestService(f, options{buildErr: errors.New("dockerfile syntax")})

	if err := svc.Init(context.Background()); err == nil {
		t.Fatal("expected build failure to propagate")
	}
	for _, call := range f.calls {
		if call == "up" || call == "migrate" {
			t.Fatalf("no step may run after a failed build, got %v", f.calls)
		}
	}
}

func TestInitGuardFailureHasZeroSideEffects(t *testing.T) {
	f := &fixture{}
	svc, _ := newTestService(f, options{guardErr: errors.New("secrets missing")})

	if err := svc.Init(context.Background()); err == nil {
		t.Fatal("expected guard failure to propagate")
	}
	if len(f.calls) != 1 || f.calls[0] != "guard" {
		t.Fatalf("expected only the guard to run, got %v", f.calls)
	}
}

func TestSSLCoversApexWwwAndApi(t *testing.T) {
	f := &fixture{}
	svc, issuer := newTestService(f, options{domain: "example.kg"})

	if err := svc.SSL(context.Background()); err != nil {
		t.Fatalf("SSL returned error: %v", err)
	}
	want := []string{"example.kg", "www.example.kg", "api.example.kg"}
	if len(issuer.domains) != len(want) {
		t.Fatalf("expected %v, got %v", want, issuer.domains)
	}
	for i, d := range want {
		if issuer.domains[i] != d {
			t.Fatalf("expected %v, got %v", want, issuer.domains)
		}
	}
}

func TestSSLSwapsConfigAndRestartsOnlyProxy(t *testing.T) {
	f := &fixture{}
	svc, _ := newTestService(f, options{})

	if err := svc.SSL(context.Background()); err != nil {
		t.Fatalf("SSL returned error: %v", err)
	}
	want := []string{"guard", "certonly", "routing-secured", "proxy-restart"}
	if len(f.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, f.calls)
	}
	for i, step := range want {
		if f.calls[i] != step {
			t.Fatalf("expected %v, got %v", want, f.calls)
		}
	}
}

func TestSSLFailedIssuanceLeavesBootstrapActive(t *testing.T) {
	f := &fixture{}
	svc, _ := newTestService(f, options{certErr: errors.New("challenge failed")})

	if err := svc.SSL(context.Background()); err == nil {
		t.Fatal("expected issuance failure to propagate")
	}
	for _, call := range f.calls {
		if call == "routing-secured" || call == "proxy-restart" {
			t.Fatalf("no swap or restart after failed issuance, got %v", f.calls)
		}
	}
}
