// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/academy-backend/internal/admin"
	"github.com/carterperez-dev/academy-backend/internal/auth"
	"github.com/carterperez-dev/academy-backend/internal/config"
	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/health"
	"github.com/carterperez-dev/academy-backend/internal/middleware"
	"github.com/carterperez-dev/academy-backend/internal/notify"
	"github.com/carterperez-dev/academy-backend/internal/payment"
	"github.com/carterperez-dev/academy-backend/internal/server"
	"github.com/carterperez-dev/academy-backend/internal/storage"
	"github.com/carterperez-dev/academy-backend/internal/user"
	"github.com/carterperez-dev/academy-backend/internal/verification"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.Migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	tokenManager, err := auth.NewTokenManager(cfg.Session)
	if err != nil {
		return err
	}
	logger.Info("session token manager initialized",
		"algorithm", "ES256",
		"key_id", tokenManager.GetKeyID(),
	)

	var verificationMailer verification.Mailer
	var paymentMailer payment.Mailer
	if cfg.Mail.Enabled {
		mailer, mailErr := notify.NewMailer(cfg.Mail)
		if mailErr != nil {
			return mailErr
		}
		verificationMailer, paymentMailer = mailer, mailer
		logger.Info("mail client initialized", "host", cfg.Mail.Host)
	} else {
		nop := notify.NewNopMailer(logger)
		verificationMailer, paymentMailer = nop, nop
		logger.Info("mail disabled")
	}

	proofStore, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("proof storage initialized", "bucket", cfg.Storage.Bucket)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	verificationRepo := verification.NewRepository(db.DB)
	verificationSvc := verification.NewService(
		verificationRepo,
		userRepo,
		verificationMailer,
		cfg.Verification.CodeTTL,
		logger,
	)
	verificationHandler := verification.NewHandler(verificationSvc)

	authSvc := auth.NewService(tokenManager, userSvc, verificationSvc, logger)
	authHandler := auth.NewHandler(authSvc, cfg.Session)

	paymentRepo := payment.NewRepository(db.DB)
	paymentSvc := payment.NewService(
		paymentRepo,
		proofStore,
		paymentMailer,
		logger,
	)
	paymentHandler := payment.NewHandler(paymentSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(cfg.Server, logger)
	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", tokenManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc, cfg.Session.CookieName)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			verificationHandler.RegisterRoutes(r)
			authHandler.RegisterRoutes(r, authenticator)
		})

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		paymentHandler.RegisterRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go verificationSvc.RunSweeper(sweepCtx, cfg.Verification.SweepInterval)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
