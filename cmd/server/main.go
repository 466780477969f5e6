package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vjnishad/mescon/internal/api"
	"github.com/Vjnishad/mescon/internal/auth"
	"github.com/Vjnishad/mescon/internal/config"
	"github.com/Vjnishad/mescon/internal/handlers"
	"github.com/Vjnishad/mescon/internal/history"
	"github.com/Vjnishad/mescon/internal/otp"
	"github.com/Vjnishad/mescon/internal/relay"
	"github.com/Vjnishad/mescon/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the durable store: Postgres when configured, SQLite otherwise
	var db store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		db = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		db = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	}
	defer db.Close()

	// Initialize Redis; the OTP cache falls back to process memory without it
	var redisStore *store.RedisStore
	var otpCache otp.Cache
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		otpCache = redisStore
		logger.Info().Msg("connected to Redis")
	} else {
		otpCache = otp.NewMemoryCache()
		logger.Warn().Msg("REDIS_URL not set, login codes held in process memory")
	}

	// Core services
	tokens := auth.NewTokens(cfg.TokenSecret, cfg.TokenTTL)
	issuer := otp.NewIssuer(otpCache, cfg.OTPTTL)
	registry := relay.NewRegistry()
	engine := relay.NewEngine(registry, db, logger)
	historySvc := history.NewService(db)

	// HTTP surface
	h := handlers.NewHandler(db, redisStore, tokens, issuer, historySvc, registry, logger)
	wsHandler := relay.NewHandler(engine, tokens, logger, api.CheckOrigin(cfg.AllowedOrigins))
	router := api.NewRouter(logger, h, wsHandler, tokens, redisStore, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting mescon server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
