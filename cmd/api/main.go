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

	"go.uber.org/zap"

	"cardroom-server/internal/config"
	"cardroom-server/internal/deck"
	"cardroom-server/internal/logging"
	"cardroom-server/internal/server"
	"cardroom-server/internal/session"
	"cardroom-server/internal/storage"
	"cardroom-server/internal/storage/file"
	"cardroom-server/internal/storage/postgres"
	"cardroom-server/internal/storage/sqlite"
)

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLitePath)
	default:
		return file.Open(cfg.RoomsDir())
	}
}

func gracefulShutdown(customServer *server.Server, httpServer *http.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutdown signal received, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Save rooms and close sockets before the listener goes away.
	if err := customServer.Shutdown(ctx); err != nil {
		logger.Error("Error during custom shutdown", zap.Error(err))
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	done <- true
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer store.Close()

	decks := deck.NewFileLoader(cfg.DecksDir())
	registry := session.NewRegistry(store, decks, session.Options{
		OpeningHand: cfg.OpeningHand,
		SendTimeout: cfg.SendTimeout,
	}, logger)

	customServer := server.NewServer(cfg, registry, decks, logger)
	httpServer := customServer.HTTPServer()
	customServer.RunBackground(ctx)

	done := make(chan bool, 1)
	go gracefulShutdown(customServer, httpServer, logger, done)

	logger.Info("Listening",
		zap.String("addr", httpServer.Addr),
		zap.String("store", cfg.StoreBackend),
		zap.String("data_dir", cfg.DataDir),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
