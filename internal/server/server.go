package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"cardroom-server/internal/config"
	"cardroom-server/internal/deck"
	"cardroom-server/internal/session"
)

type Server struct {
	cfg               config.Config
	logger            *zap.Logger
	registry          *session.Registry
	decks             deck.Loader
	connectionManager *ConnectionManager
	rateLimiter       *RateLimiter
}

func NewServer(cfg config.Config, registry *session.Registry, decks deck.Loader, logger *zap.Logger) *Server {
	return &Server{
		cfg:               cfg,
		logger:            logger,
		registry:          registry,
		decks:             decks,
		connectionManager: NewConnectionManager(),
		rateLimiter:       NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
	}
}

// HTTPServer returns the listener configuration. No read or write timeouts
// are set because sockets are long lived.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// RunBackground runs the periodic tasks until ctx is done.
func (s *Server) RunBackground(ctx context.Context) {
	go s.cleanupTask(ctx)
	if s.cfg.AutosaveInterval > 0 {
		go s.periodicSaveTask(ctx, s.cfg.AutosaveInterval)
	}
}

// periodicSaveTask persists every live room on each tick. Snapshots are
// taken under each room's lock; the writes happen outside it.
func (s *Server) periodicSaveTask(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saved, err := s.registry.SaveAll(ctx)
			if err != nil {
				s.logger.Warn("Periodic save had failures", zap.Int("saved", saved), zap.Error(err))
				continue
			}
			s.logger.Debug("Periodic save completed", zap.Int("saved", saved))
		}
	}
}

func (s *Server) cleanupTask(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rateLimiter.Cleanup()
		}
	}
}

// Shutdown saves every live room, then closes all sockets.
func (s *Server) Shutdown(ctx context.Context) error {
	saved, err := s.registry.SaveAll(ctx)
	s.logger.Info("Saved rooms on shutdown", zap.Int("saved", saved))

	closed := s.connectionManager.CloseAll(websocket.StatusGoingAway, "Server shutting down")
	s.logger.Info("Closed connections", zap.Int("count", closed))

	if err != nil {
		return fmt.Errorf("failed to save rooms: %w", err)
	}
	return nil
}
