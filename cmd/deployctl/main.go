package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/almaops/deployctl/internal/cache"
	"github.com/almaops/deployctl/internal/certissuer"
	"github.com/almaops/deployctl/internal/compose"
	"github.com/almaops/deployctl/internal/database"
	"github.com/almaops/deployctl/internal/git"
	"github.com/almaops/deployctl/internal/ingress"
	"github.com/almaops/deployctl/internal/metrics"
	"github.com/almaops/deployctl/internal/routing"
	"github.com/almaops/deployctl/internal/runner"
	"github.com/almaops/deployctl/internal/secrets"
	"github.com/almaops/deployctl/internal/service/backup"
	"github.com/almaops/deployctl/internal/service/bootstrap"
	"github.com/almaops/deployctl/internal/service/health"
	"github.com/almaops/deployctl/internal/service/lifecycle"
	"github.com/almaops/deployctl/internal/service/update"
	"github.com/almaops/deployctl/internal/webapp"
	"github.com/almaops/deployctl/pkg/config"
	"github.com/almaops/deployctl/pkg/logger"
)

var buildVersion = "dev"

type app struct {
	cfg     config.DeployConfig
	log     *slog.Logger
	exec    runner.Exec
	compose *compose.Client
	guard   secrets.Guard
}

func main() {
	verb := "help"
	args := []string{}
	if len(os.Args) > 1 {
		verb = os.Args[1]
		args = os.Args[2:]
	}

	switch verb {
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "--version", "-v":
		fmt.Println(strings.TrimSpace(buildVersion))
		return
	case "init", "ssl", "start", "stop", "restart", "logs", "backup", "update", "createsuperuser", "status", "health":
	default:
		// Help-not-strict policy: an unrecognized verb is not an error.
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", verb)
		printUsage()
		return
	}

	cfg := config.LoadDeployConfig()
	log := newLogger(cfg).With("run_id", uuid.NewString(), "env", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app{
		cfg:     cfg,
		log:     log,
		exec:    runner.New(),
		compose: compose.New(runner.New(), cfg),
		guard:   secrets.NewGuard(cfg.SecretsFile),
	}

	recorder := metrics.New(cfg.MetricsTextfile, log)
	started := time.Now()
	err := a.dispatch(ctx, verb, args)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	recorder.Record(verb, outcome, time.Since(started))
	recorder.Flush()

	if err != nil {
		log.Error("command failed", "verb", verb, "error", err)
		code := runner.ExitCode(err)
		if code <= 0 {
			code = 1
		}
		os.Exit(code)
	}
}

func (a app) dispatch(ctx context.Context, verb string, args []string) error {
	switch verb {
	case "init":
		return a.commandInit(ctx)
	case "ssl":
		return a.commandSSL(ctx)
	case "start":
		return a.lifecycle(nil).Start(ctx)
	case "stop":
		return a.lifecycle(nil).Stop(ctx)
	case "restart":
		return a.lifecycle(nil).Restart(ctx)
	case "status":
		return a.commandStatus(ctx)
	case "logs":
		service := ""
		if len(args) > 0 {
			service = args[0]
		}
		return a.lifecycle(nil).Logs(ctx, service)
	case "backup":
		if err := a.guard.Check(); err != nil {
			return err
		}
		_, err := a.backups().Backup(ctx)
		return err
	case "update":
		return a.commandUpdate(ctx)
	case "createsuperuser":
		return a.commandCreateSuperuser(ctx)
	case "health":
		return a.commandHealth(ctx)
	}
	return nil
}

// newLogger picks the log format: text for an operator at a terminal, JSON
// when output is collected (cron, systemd) or when forced via DEPLOY_LOG_JSON.
func newLogger(cfg config.DeployConfig) *slog.Logger {
	if cfg.LogJSON || !term.IsTerminal(int(os.Stderr.Fd())) {
		return logger.New(os.Stderr, "deployctl", slog.LevelInfo)
	}
	return logger.NewText(os.Stderr, slog.LevelInfo)
}

func (a app) lifecycle(daemon lifecycle.DaemonPinger) lifecycle.Service {
	return lifecycle.New(a.guard, a.compose, daemon, os.Stdout, a.cfg.LogTail, a.log)
}

func (a app) manage() webapp.Manage {
	return webapp.NewManage(a.compose, a.cfg.WebService)
}

func (a app) backups() backup.Service {
	db := database.New(a.compose, a.cfg.DBService, a.cfg.DBUser, a.cfg.DBName, a.cfg.DatabaseURL)
	return backup.New(a.cfg.BackupDir, a.cfg.BackupRetention, db, a.log)
}

func (a app) routing() *routing.Manager {
	return routing.NewManager(a.cfg.RoutingDir, a.cfg.StateDir)
}

func (a app) bootstrap(proxy bootstrap.ProxyRestarter) bootstrap.Service {
	certs := certissuer.New(a.compose, a.cfg.CertService, a.cfg.WebrootPath, a.cfg.CertEmail)
	return bootstrap.New(
		a.guard,
		a.routing(),
		a.compose,
		a.manage(),
		certs,
		proxy,
		a.persistentDirs(),
		a.cfg.SettleDelay,
		a.cfg.Domain,
		a.log,
	)
}

func (a app) persistentDirs() []string {
	return []string{
		a.cfg.StateDir,
		a.cfg.BackupDir,
	}
}

func (a app) commandInit(ctx context.Context) error {
	return a.bootstrap(nil).Init(ctx)
}

func (a app) commandSSL(ctx context.Context) error {
	proxy, err := ingress.New(a.cfg.ProxyContainer)
	if err != nil {
		return err
	}
	defer proxy.Close()
	return a.bootstrap(proxy).SSL(ctx)
}

func (a app) commandStatus(ctx context.Context) error {
	proxy, err := ingress.New(a.cfg.ProxyContainer)
	if err != nil {
		return err
	}
	defer proxy.Close()
	return a.lifecycle(proxy).Status(ctx)
}

func (a app) commandUpdate(ctx context.Context) error {
	fetcher := gitFetcher{exec: a.exec, dir: a.cfg.ProjectDir, remote: a.cfg.GitRemote, branch: a.cfg.GitBranch}
	svc := update.New(a.guard, a.backups(), fetcher, a.compose, a.manage(), a.log)
	return svc.Update(ctx)
}

func (a app) commandCreateSuperuser(ctx context.Context) error {
	if err := a.guard.Check(); err != nil {
		return err
	}
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read username: %w", err)
	}
	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	fmt.Print("Password: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || len(secret) == 0 {
		return fmt.Errorf("username, email and password are all required")
	}
	if err := a.manage().CreateSuperuser(ctx, username, email, string(secret)); err != nil {
		return err
	}
	fmt.Println("superuser created")
	return nil
}

func (a app) commandHealth(ctx context.Context) error {
	db := database.New(a.compose, a.cfg.DBService, a.cfg.DBUser, a.cfg.DBName, a.cfg.DatabaseURL)
	svc := health.New(
		webapp.NewLiveness(a.cfg.WebHealthURL),
		cache.NewPinger(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB),
		db,
	)
	for _, check := range svc.Run(ctx) {
		fmt.Printf("%-10s %-5s %s\n", check.Subsystem, check.Status, check.Detail)
	}
	// The operator interprets the three lines; no aggregate verdict.
	return nil
}

// gitFetcher adapts the git primitive to the update workflow's Fetcher.
type gitFetcher struct {
	exec   runner.Runner
	dir    string
	remote string
	branch string
}

func (f gitFetcher) Fetch(ctx context.Context) error {
	return git.Pull(ctx, f.exec, f.dir, f.remote, f.branch)
}

func printUsage() {
	fmt.Printf("deployctl %s\n\n", buildVersion)
	fmt.Print(`Usage:
	deployctl init              bootstrap the stack over plain HTTP (run once, then ssl)
	deployctl ssl               obtain certificates and switch to the secured config
	deployctl start             start the service group
	deployctl stop              stop the service group
	deployctl restart           restart the service group
	deployctl status            list service group processes
	deployctl logs [service]    stream recent logs, optionally for one service
	deployctl backup            snapshot the database and prune old backups
	deployctl update            backup, pull, rebuild, migrate, collectstatic
	deployctl createsuperuser   create a privileged application account
	deployctl health            probe web, cache and database
	deployctl help              show this message
`)
}
