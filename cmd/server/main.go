// Command server runs the revenue tracker API.
//
//	@title						Revenue Tracker API
//	@version					1.0
//	@description				Session and access endpoints of the revenue/assessment tracker.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/revtrack/revenue-tracker/internal/api"
	"github.com/revtrack/revenue-tracker/internal/api/handler"
	"github.com/revtrack/revenue-tracker/internal/core/service"
	mongodb "github.com/revtrack/revenue-tracker/internal/infrastructure/db/mongo"
	redisdb "github.com/revtrack/revenue-tracker/internal/infrastructure/db/redis"
	"github.com/revtrack/revenue-tracker/internal/infrastructure/queue"
	"github.com/revtrack/revenue-tracker/internal/pkg/config"
	"github.com/revtrack/revenue-tracker/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet; fall back to a bare one.
		l := logger.Init(logger.Options{Service: "revenue-tracker"})
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "revenue-tracker",
	})

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server exited")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	accounts := mongodb.NewAccountRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	if err := mongodb.EnsureIndexes(ctx, accounts, auditRepo); err != nil {
		return err
	}

	codec, err := service.NewTokenCodec([]byte(cfg.Session.Secret), cfg.Session.TTL, service.WithLeeway(cfg.Session.Leeway))
	if err != nil {
		return err
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	audit := queue.NewAuditDispatcher(cfg.AuditWorkers, auditRepo, logger.For("audit"))
	audit.Start(workerCtx)

	authService := service.NewAuthService(accounts, codec, logger.For("auth"),
		service.WithLoginLimiter(redisdb.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)),
		service.WithAuditRecorder(audit),
	)

	e := api.NewRouter(api.Deps{
		DB:          db,
		Redis:       rdb,
		AuthService: authService,
		Guard:       service.NewAccessGuard(codec, accounts),
		Audit:       audit,
		Cookie: handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.TTL,
		},
		Logger: logger.For("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		errCh <- e.Start(":" + cfg.Port)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	stopWorkers()
	audit.Wait()
	log.Info().Msg("server stopped")
	return serveErr
}
