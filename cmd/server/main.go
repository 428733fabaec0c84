package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopcast/shopcast/internal/auth"
	"github.com/shopcast/shopcast/internal/config"
	"github.com/shopcast/shopcast/internal/hub"
	"github.com/shopcast/shopcast/internal/middleware"
	"github.com/shopcast/shopcast/internal/service"
	"github.com/shopcast/shopcast/internal/session"
	"github.com/shopcast/shopcast/internal/storage"
	memorystore "github.com/shopcast/shopcast/internal/storage/memory"
	redisstore "github.com/shopcast/shopcast/internal/storage/redis"
	"github.com/shopcast/shopcast/internal/storage/sqlite"
	"github.com/shopcast/shopcast/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
	logger := slog.Default()

	// Credential + catalog store (SQLite).
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database initialized", "path", cfg.DBPath)

	// Message log: Redis when configured, in-memory otherwise.
	var messages storage.MessageStore
	if cfg.RedisAddr != "" {
		rs, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		messages = rs
		logger.Info("message log on redis", "addr", cfg.RedisAddr)
	} else {
		messages = memorystore.NewMessageStore()
		logger.Warn("no REDIS_ADDR configured, message log is in-memory")
	}

	// Session store follows the same split.
	var sessionStore session.Store
	if cfg.RedisAddr != "" {
		sessionStore, err = session.NewRedisStore(session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Error("failed to connect session store", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
	} else {
		sessionStore = session.NewMemoryStore()
	}
	defer sessionStore.Close()

	authenticator := auth.NewPasswordAuthenticator(db, cfg.BcryptCost)
	tokens := auth.NewJWTManager(cfg.SessionSecret, cfg.SessionTTL)
	sessions := session.NewManager(sessionStore, db, cfg.SessionTTL)
	gate := middleware.NewSessionGate(sessions, tokens)

	// Realtime layer.
	h := hub.New(logger)
	go h.Run()
	coordinator := hub.NewCoordinator(messages, db, h, logger)
	ws := hub.NewHandler(h, coordinator, func(r *http.Request) (string, error) {
		username, _, err := gate.Identify(r)
		return username, err
	}, logger)

	authService := service.NewAuthService(authenticator, sessions, tokens, logger)
	storeService := service.NewStoreService(messages, db, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", authService.Register)
	mux.HandleFunc("/api/login", authService.Login)
	mux.Handle("/api/logout", gate.Require("", http.HandlerFunc(authService.Logout)))
	mux.Handle("/api/me", gate.Require("", http.HandlerFunc(authService.Me)))
	mux.Handle("/api/products", gate.Require("/api/login", http.HandlerFunc(storeService.Products)))
	mux.Handle("/api/messages", gate.Require("/api/login", http.HandlerFunc(storeService.Messages)))
	mux.Handle("/info", gate.Require("/api/login", http.HandlerFunc(storeService.Info)))
	mux.Handle("/ws", ws)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: middleware.Logging(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := h.Shutdown(shutdownTimeout / 2); err != nil {
		logger.Warn("hub shutdown incomplete", "error", err)
	}
	logger.Info("server stopped")
}
