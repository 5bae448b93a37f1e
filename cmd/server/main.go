package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/showcase/api"
	dbfs "github.com/garnizeh/showcase/db"
	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/internal/config"
	"github.com/garnizeh/showcase/internal/db"
	"github.com/garnizeh/showcase/internal/jobs"
	"github.com/garnizeh/showcase/internal/payload"
	"github.com/garnizeh/showcase/internal/repository/sqlite"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("starting showcase server", slog.String("version", version), slog.String("build_time", buildTime))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database connection
	conn, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open DB", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("error closing DB", slog.Any("err", err))
		}
	}()
	if err := db.Migrate(ctx, conn, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		logger.Error("failed to migrate DB", slog.Any("err", err))
		os.Exit(1)
	}

	repo := sqlite.New(conn, logger)

	authenticator := auth.NewAuthenticator(
		repo,
		auth.NewHasher(cfg.BcryptCost),
		auth.LockoutPolicy{MaxAttempts: cfg.Lockout.MaxAttempts, Duration: cfg.Lockout.Duration},
		auth.NewIssuer(cfg.JWTSecret, cfg.TokenDuration),
		logger,
	)
	if _, err := authenticator.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.Email, cfg.Bootstrap.Name, cfg.Bootstrap.Password); err != nil {
		logger.Error("failed to create bootstrap admin", slog.Any("err", err))
		os.Exit(1)
	}

	payloads, err := payload.NewLoader(dbfs.Schemas)
	if err != nil {
		logger.Error("failed to load request schemas", slog.Any("err", err))
		os.Exit(1)
	}

	// Background jobs
	jobRepo := jobs.NewRepository(conn)
	handlers := &jobs.Handlers{
		Contacts:  repo,
		Company:   repo,
		Analytics: repo,
		Jobs:      jobRepo,
		Retention: cfg.Analytics.Retention,
		Logger:    logger,
	}
	pool := jobs.NewWorkerPool(jobRepo, handlers.Map(), logger, cfg.Workers)
	pool.Start(ctx)
	go schedulePrune(ctx, pool, cfg.Analytics.PruneInterval, logger)

	router := api.SetupRoutes(cfg, version, buildTime, api.Deps{
		Store:    repo,
		Auth:     authenticator,
		Payloads: payloads,
		Jobs:     pool,
		System:   &api.SystemHandler{DB: conn.GetConn(), Jobs: jobRepo},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      http.TimeoutHandler(router, cfg.APITimeout, `{"error":"request timed out"}`),
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}
	cancel()
	pool.Stop()

	logger.Info("server exited")
}

// schedulePrune enqueues an analytics.prune job every interval until ctx
// is done.
func schedulePrune(ctx context.Context, pool *jobs.WorkerPool, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := pool.Enqueue(ctx, jobs.TypeAnalyticsPrune, struct{}{}, 200, 1); err != nil {
				logger.Error("enqueue analytics prune", slog.Any("err", err))
			}
		}
	}
}
