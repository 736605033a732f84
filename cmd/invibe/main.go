package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/invibe/internal/auth"
	"github.com/dukerupert/invibe/internal/authclient"
	"github.com/dukerupert/invibe/internal/background"
	"github.com/dukerupert/invibe/internal/cleanup"
	"github.com/dukerupert/invibe/internal/config"
	"github.com/dukerupert/invibe/internal/database"
	"github.com/dukerupert/invibe/internal/imagestore"
	"github.com/dukerupert/invibe/internal/logging"
	"github.com/dukerupert/invibe/internal/server"
	"github.com/dukerupert/invibe/internal/weather"
)

// devSecret signs markers when no secret is configured in dev.
const devSecret = "invibe-dev-secret"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	catalog, err := background.LoadCatalog()
	if err != nil {
		logger.Error("failed to load background catalog", "error", err)
		os.Exit(1)
	}

	var generator background.Generator
	switch cfg.Generator {
	case config.GeneratorHTTP:
		generator = background.NewHTTPGenerator(cfg.GeneratorURL, cfg.GenerationTimeout)
	default:
		generator = background.NewSimulatedGenerator(catalog, cfg.GeneratorDelay)
	}

	opts := server.Options{
		Catalog:           catalog,
		Generator:         generator,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		GenerationTimeout: cfg.GenerationTimeout,
		SessionTTL:        cfg.SessionTTL,
		SecureCookies:     cfg.SecureCookies,
		LoginRateLimit:    cfg.LoginRateLimit,
		GenerateRateLimit: cfg.GenerateRateLimit,
		PublicURL:         cfg.PublicURL,
	}

	if images := imagestore.New(cfg.S3); images != nil {
		opts.Images = images
		logger.Info("uploads go to object storage", "bucket", cfg.S3.Bucket)
	}

	if forecasts := weather.NewService(cfg.Weather); forecasts.Configured() {
		opts.Forecaster = forecasts
		logger.Info("weather forecasts enabled", "lat", cfg.Weather.Latitude, "lon", cfg.Weather.Longitude)
	}

	if cfg.AuthURL != "" {
		opts.Authenticator = authclient.NewClient(authclient.Config{
			BaseURL: cfg.AuthURL,
			Timeout: cfg.AuthTimeout,
		})
	} else {
		logger.Warn("no auth service configured, login disabled")
	}

	secret := cfg.Secret
	if secret == "" {
		logger.Warn("using development marker secret")
		secret = devSecret
	}
	opts.Signer = auth.NewSigner(secret, cfg.SecretSalt, cfg.SessionTTL)

	srv := server.New(db, opts, logger)

	sched, err := cleanup.New(cleanup.Config{
		Schedule:   cfg.CleanupSchedule,
		SessionTTL: cfg.SessionTTL,
	}, srv.SessionStorage(), srv.Flows(), srv.RateLimiter(), logger)
	if err != nil {
		logger.Error("failed to schedule cleanup", "error", err)
		os.Exit(1)
	}
	sched.Start()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("invibe listening", "addr", "http://localhost:"+cfg.Port, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	sched.Stop()
	srv.Close()
}
