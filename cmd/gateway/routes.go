package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/omnidev/gateway/internal/auth"
	"github.com/omnidev/gateway/internal/config"
	"github.com/omnidev/gateway/internal/geo"
	"github.com/omnidev/gateway/internal/handlers"
	"github.com/omnidev/gateway/internal/inventory"
	"github.com/omnidev/gateway/internal/metrics"
	"github.com/omnidev/gateway/internal/openai"
	"github.com/omnidev/gateway/internal/scraper"
	"github.com/omnidev/gateway/internal/server"
	"github.com/omnidev/gateway/internal/storage/analytics"
)

type routeDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *analytics.Store
	recorder *metrics.Recorder
	deriver  *auth.KeyDeriver
	chat     *openai.Client
	agent    *inventory.Client
	scrape   *scraper.Client
	geocoder *geo.Client
}

func mountRoutes(srv *server.Server, gate *server.Gate, deps routeDeps) {
	health := &handlers.Health{
		Name:    "OmniDev",
		Version: serviceVersion,
		Env:     "production",
		Services: map[string]string{
			"openai":    configured(deps.chat.Configured()),
			"inventory": configured(deps.agent.Configured()),
			"scraper":   configured(deps.scrape.Configured()),
			"geocode":   configured(deps.geocoder.Configured()),
		},
	}
	analyticsHandler := &handlers.Analytics{Store: deps.store, Logger: deps.logger}
	authHandler := &handlers.Auth{Keys: deps.deriver}
	monitoring := &handlers.Monitoring{Metrics: deps.recorder}
	ai := &handlers.AI{Client: deps.chat, Model: deps.cfg.OpenAI.Model, Gate: gate, Logger: deps.logger}
	vision := &handlers.Vision{Client: deps.chat, Model: deps.cfg.OpenAI.Model, Logger: deps.logger}
	devops := &handlers.DevOps{Agent: deps.agent, Gate: gate, Logger: deps.logger}
	scraperHandler := &handlers.Scraper{Client: deps.scrape, Logger: deps.logger}
	location := &handlers.Location{Client: deps.geocoder}
	storage := &handlers.Storage{Agent: deps.agent, Logger: deps.logger}

	r := srv.Router

	// Public surface
	r.Get("/", health.HandleRoot)
	r.Get("/health", health.HandleHealth)
	r.Route("/analytics", func(r chi.Router) {
		r.Post("/event", analyticsHandler.HandleTrack)
		r.Get("/recent", analyticsHandler.HandleRecent)
	})

	// Protected surface
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/me", authHandler.HandleMe)
			r.Post("/api-key", authHandler.HandleCreateAPIKey)
		})
		r.Get("/monitoring/summary", monitoring.HandleSummary)

		r.Route("/ai", func(r chi.Router) {
			r.Get("/status", ai.HandleStatus)
			r.Post("/chat", ai.HandleChat)
			r.Get("/chat/stream", ai.HandleChatStream)
		})
		r.Route("/vision", func(r chi.Router) {
			r.Post("/analyze", vision.HandleAnalyze)
			r.Post("/describe", vision.HandleDescribe)
		})
		r.Route("/devops", func(r chi.Router) {
			r.Get("/capabilities", devops.HandleCapabilities)
			r.Post("/command", devops.HandleCommand)
			r.Get("/ec2/instances", devops.HandleListInstances)
			r.Post("/ec2/launch", devops.HandleLaunch)
			r.Post("/ec2/start", devops.HandleStart)
			r.Post("/ec2/stop", devops.HandleStop)
			r.Post("/ec2/terminate", devops.HandleTerminate)
			r.Get("/s3/buckets", devops.HandleListBuckets)
			r.Get("/s3/objects/{bucket}", devops.HandleListObjects)
			r.Get("/agent", devops.HandleAgentWS)
		})
		r.Route("/scraper", func(r chi.Router) {
			r.Post("/scrape", scraperHandler.HandleScrape)
			r.Post("/screenshot", scraperHandler.HandleScreenshot)
			r.Get("/status", scraperHandler.HandleStatus)
		})
		r.Route("/location", func(r chi.Router) {
			r.Get("/geocode", location.HandleGeocode)
			r.Get("/reverse", location.HandleReverse)
			r.Get("/ip", location.HandleIP)
		})
		r.Route("/storage", func(r chi.Router) {
			r.Get("/buckets", storage.HandleListBuckets)
			r.Get("/buckets/{bucket}/objects", storage.HandleListObjects)
			r.Post("/upload", storage.HandleUpload)
			r.Get("/download", storage.HandleDownload)
		})
	})
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
