package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	accounts "github.com/goliatone/go-accounts"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	logger := newLogger("accountsd")

	cfg, err := accounts.LoadConfigFromEnv()
	if err != nil {
		logger.Error("config: %s", err)
		os.Exit(1)
	}

	ctx := context.Background()

	repo, err := setupPersistence(ctx, cfg, logger)
	if err != nil {
		logger.Error("persistence: %s", err)
		os.Exit(1)
	}

	tokens := accounts.NewTokenService(
		[]byte(cfg.JWTSecret),
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		logger,
	)
	verification := accounts.NewVerificationTokenService(
		[]byte(cfg.VerificationSecret),
		cfg.VerificationTTL,
	)

	mailer, err := accounts.NewSMTPMailer(cfg)
	if err != nil {
		logger.Error("mailer: %s", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName: "accountsd",
	})

	accounts.RegisterAuthRoutes(app,
		accounts.WithControllerLogger(newLogger("accounts:http")),
		accounts.WithRepositoryManager(repo),
		accounts.WithAuthenticator(
			accounts.NewAuthenticator(repo, tokens).WithLogger(newLogger("accounts:login")),
		),
		accounts.WithAuthorizer(
			accounts.NewAuthorizer(tokens, repo.Users(), cfg).WithLogger(newLogger("accounts:authz")),
		),
		accounts.WithLifecycleHandlers(
			accounts.NewRegisterUserHandler(repo, verification, mailer),
			accounts.NewVerifyAccountHandler(repo, verification).WithLogger(newLogger("accounts:verify")),
		),
	)

	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			logger.Error("listen: %s", err)
			os.Exit(1)
		}
	}()

	logger.Info("accountsd listening on %s", cfg.Addr())

	sig := waitExitSignal()
	logger.Info("received %s, shutting down", sig)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown: %s", err)
	}
}

func setupPersistence(ctx context.Context, cfg *accounts.Config, logger accounts.Logger) (accounts.RepositoryManager, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.GetDSN())
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*accounts.User)(nil))

	client, err := persistence.New(cfg, db, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	client.SetLogger(logger)

	migrations, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return accounts.NewRepositoryManager(client.DB()), nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

// slogAdapter exposes slog through the accounts printf-style logger.
type slogAdapter struct {
	log *slog.Logger
}

func newLogger(name string) *slogAdapter {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return &slogAdapter{log: slog.New(handler).With("component", name)}
}

func (s *slogAdapter) Debug(format string, args ...any) { s.log.Debug(sprintf(format, args...)) }
func (s *slogAdapter) Info(format string, args ...any)  { s.log.Info(sprintf(format, args...)) }
func (s *slogAdapter) Warn(format string, args ...any)  { s.log.Warn(sprintf(format, args...)) }
func (s *slogAdapter) Error(format string, args ...any) { s.log.Error(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
