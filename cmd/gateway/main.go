package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/omnidev/gateway/internal/auth"
	"github.com/omnidev/gateway/internal/config"
	"github.com/omnidev/gateway/internal/geo"
	"github.com/omnidev/gateway/internal/inventory"
	"github.com/omnidev/gateway/internal/metrics"
	"github.com/omnidev/gateway/internal/openai"
	"github.com/omnidev/gateway/internal/ratelimit"
	"github.com/omnidev/gateway/internal/scraper"
	"github.com/omnidev/gateway/internal/server"
	"github.com/omnidev/gateway/internal/storage/analytics"
	"github.com/omnidev/gateway/internal/telemetry"
)

const (
	serviceName    = "omnidev-gateway"
	serviceVersion = "1.0.0"
)

func main() {
	// .env is optional; real deployments configure via environment.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracer(serviceName, logger)
	if err != nil {
		logger.Error("failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := analytics.Open(cfg.Analytics.DBPath)
	if err != nil {
		logger.Error("failed to open analytics store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// Core gate collaborators
	var keySet *auth.KeySet
	if cfg.Auth.JWKSURL != "" {
		keySet = auth.NewKeySet(auth.HTTPFetch(cfg.Auth.JWKSURL, nil))
	}
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, keySet, cfg.Auth.Issuer)
	deriver := auth.NewKeyDeriver(cfg.Auth.APIKeySalt)
	limiter := ratelimit.New(ratelimit.Config{
		Limit:  cfg.RateLimit.PerMinute,
		Window: time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		Block:  time.Duration(cfg.RateLimit.BlockSeconds) * time.Second,
	})
	recorder := metrics.NewRecorder()

	gate := &server.Gate{
		Verifier: verifier,
		Keys:     deriver,
		Limiter:  limiter,
		Metrics:  recorder,
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	limiter.StartJanitor(ctx, 5*time.Minute)

	// Outbound collaborators
	chatClient := openai.NewClient(cfg.OpenAI.APIKey, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	agent := inventory.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.Region, nil)
	scrapeClient := scraper.NewClient(cfg.Scraper.BaseURL, nil)
	geoClient := geo.NewClient(cfg.Geocode.APIKey, geo.WithBaseURL(cfg.Geocode.BaseURL))

	srv := server.New(cfg.Server.Port, cfg.Server.FrontendURL, logger, gate)
	mountRoutes(srv, gate, routeDeps{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		recorder: recorder,
		deriver:  deriver,
		chat:     chatClient,
		agent:    agent,
		scrape:   scrapeClient,
		geocoder: geoClient,
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", slog.String("error", err.Error()))
		}
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
