package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/scriba-app/scriba/internal/server/config"
	"github.com/scriba-app/scriba/internal/server/handlers"
	"github.com/scriba-app/scriba/internal/server/hub"
	"github.com/scriba-app/scriba/internal/server/middleware"
	"github.com/scriba-app/scriba/internal/server/storage"
	"github.com/scriba-app/scriba/internal/server/storage/postgres"
	"github.com/scriba-app/scriba/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	// authRateLimit bounds credential attempts per client IP.
	authRateLimit  = 10
	authRateWindow = time.Minute

	shutdownTimeout = 10 * time.Second

	// tokenSweepInterval paces the expired refresh token cleanup.
	tokenSweepInterval = time.Hour
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(cfg.JWTSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}

	authHandler := handlers.NewAuthHandler(logger, store, store, jwtConfig)
	notesHandler := handlers.NewNotesHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger, store, Version)

	h := hub.New(logger, cfg.HeartbeatTimeout)
	go h.Run(ctx)

	go sweepExpiredTokens(ctx, logger, store)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: buildRoutes(logger, jwtConfig, authHandler, notesHandler, healthHandler, h),
		// No global read/write timeouts: the websocket endpoint holds
		// connections open; the hub enforces its own deadlines.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Scriba server listening", "addr", cfg.Addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// The hub closes its websockets on ctx cancellation; Shutdown only
	// waits for plain HTTP requests.
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func buildRoutes(
	logger *slog.Logger,
	jwtConfig handlers.JWTConfig,
	authHandler *handlers.AuthHandler,
	notesHandler *handlers.NotesHandler,
	healthHandler *handlers.HealthHandler,
	h *hub.Hub,
) http.Handler {
	mux := http.NewServeMux()

	authLimiter := middleware.RateLimitMiddleware(authRateLimit, authRateWindow, logger)
	requireAuth := middleware.AuthMiddleware(logger, jwtConfig)

	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)

	mux.Handle("POST /api/v1/auth/register", authLimiter(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", authLimiter(http.HandlerFunc(authHandler.Login)))
	// Refresh and Logout validate the presented token themselves.
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)

	mux.Handle("POST /api/v1/notes", requireAuth(http.HandlerFunc(notesHandler.Create)))
	mux.Handle("GET /api/v1/notes", requireAuth(http.HandlerFunc(notesHandler.List)))
	mux.Handle("GET /api/v1/notes/{id}", requireAuth(http.HandlerFunc(notesHandler.Get)))
	mux.Handle("PATCH /api/v1/notes/{id}", requireAuth(http.HandlerFunc(notesHandler.Update)))
	mux.Handle("DELETE /api/v1/notes/{id}", requireAuth(http.HandlerFunc(notesHandler.Delete)))

	mux.Handle("GET /api/v1/ws", requireAuth(h))

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)
	return handler
}

// openStorage picks the backend by DSN scheme: postgres URLs open the
// shared-database backend, anything else is treated as a sqlite file
// path.
func openStorage(ctx context.Context, dsn string) (storage.Storage, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.New(ctx, dsn)
	}
	return sqlite.New(ctx, dsn)
}

// sweepExpiredTokens periodically deletes expired refresh tokens, so
// abandoned sessions do not accumulate forever.
func sweepExpiredTokens(ctx context.Context, logger *slog.Logger, store storage.TokenStorage) {
	ticker := time.NewTicker(tokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpiredTokens(ctx)
			if err != nil {
				logger.Warn("expired token sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired refresh tokens deleted", "count", deleted)
			}
		}
	}
}

func printVersion() {
	fmt.Printf("Scriba Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
