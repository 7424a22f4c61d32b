package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Domenick1991/repricing/config"
	"github.com/Domenick1991/repricing/internal/cache"
	"github.com/Domenick1991/repricing/internal/client"
	"github.com/Domenick1991/repricing/internal/repository"
	"github.com/Domenick1991/repricing/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rpctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiURL := fs.String("api", envOr("RPCTL_API_URL", "http://localhost:8080"), "base URL of the repricing app")
	cfgPath := fs.String("config", envOr("CONFIG_PATH", "config.yaml"), "config file for redis and database settings")
	profile := fs.String("profile", "default", "name of the stored sign-in")
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	storage, err := openStorage(cfg, *profile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer storage.Close()

	a := newApp(client.New(*apiURL), storage, stdout)
	a.openHistory = func(ctx context.Context) (repository.RepricingEventRepository, func(), error) {
		return openHistory(ctx, cfg)
	}
	if token := os.Getenv("RPCTL_TOKEN"); token != "" {
		if err := a.seedToken(ctx, token); err != nil {
			fmt.Fprintln(stderr, err)
			return exitError
		}
	}

	if err := a.Run(ctx, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%v\n\n%s", err, usageText)
			return exitUsage
		}
		fmt.Fprintln(stderr, err)
		if redirect, ok := client.LoginRedirect(err); ok {
			fmt.Fprintf(stderr, "next: sign in again (%s)\n", redirect)
		}
		return exitError
	}
	return exitOK
}

// openStorage keeps the sign-in in redis when configured, else only for this run.
func openStorage(cfg *config.Config, profile string) (session.Storage, error) {
	if !cfg.Redis.Enabled() {
		return session.NewStorage(session.StorageTypeMemory)
	}
	return session.NewStorage(session.StorageTypeRedis,
		session.WithRedisClient(cache.NewRedisClient(cfg.Redis)),
		session.WithRedisTTL(time.Duration(cfg.Cache.SessionTTLHours)*time.Hour),
		session.WithNamespace(profile),
	)
}

func openHistory(ctx context.Context, cfg *config.Config) (repository.RepricingEventRepository, func(), error) {
	if !cfg.Database.Enabled() {
		return nil, nil, fmt.Errorf("history needs a database: set DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return repository.NewRepricingEventRepository(pool), pool.Close, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

const usageText = `rpctl - drive the repricing app from a terminal

USAGE:
  rpctl [--api URL] [--config PATH] [--profile NAME] <command> [args]

COMMANDS:
  login <phone> <code> [--state-id ID]   Sign in with a phone verification code
  logout                                 Forget the stored sign-in
  impersonate <customer-id> | --stop     Act as another customer (admins only)
  trips [--year Upcoming|YYYY|past] [--all]
                                         List trips, best savings first
  trip <id>                              Show one trip as JSON
  reprice <id> [--otp CODE] [--citizenship CC] [--redirect URL]
                                         Walk a trip through repricing
  history <repricing-session-id>         Show recorded repricing events

ENVIRONMENT:
  RPCTL_API_URL   base URL of the app (default http://localhost:8080)
  RPCTL_TOKEN     bearer token to use instead of a stored sign-in
  REDIS_ADDR      keep sign-ins across runs
  DATABASE_URL    event history
`
