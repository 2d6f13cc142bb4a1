package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apotek-pos/apotek-pos/internal/app"
	"github.com/apotek-pos/apotek-pos/internal/observability"
	"github.com/apotek-pos/apotek-pos/internal/platform/db"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbPath, err := db.DefaultPath(cfg.DBPath)
	if err != nil {
		logger.Error("resolve database path", slog.Any("error", err))
		os.Exit(1)
	}
	conn, err := db.Open(dbPath)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warn("close database", slog.Any("error", err))
		}
	}()

	if err := db.Migrate(ctx, conn); err != nil {
		logger.Error("migrate schema", slog.Any("error", err))
		os.Exit(1)
	}
	if err := app.SeedAdmin(ctx, conn, logger, cfg.SeedAdminPassword); err != nil {
		logger.Error("seed admin", slog.Any("error", err))
		os.Exit(1)
	}
	if err := shared.NewIdempotencyStore(conn).Cleanup(ctx, cfg.IdempotencyRetention); err != nil {
		logger.Warn("idempotency cleanup", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Conn:    conn,
		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
