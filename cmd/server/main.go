package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/conversion-relay/internal/adapter/api"
	"github.com/user/conversion-relay/internal/adapter/capi"
	"github.com/user/conversion-relay/internal/adapter/geo"
	"github.com/user/conversion-relay/internal/adapter/metrics"
	"github.com/user/conversion-relay/internal/adapter/webhook"
	"github.com/user/conversion-relay/internal/pkg/config"
	"github.com/user/conversion-relay/internal/pkg/logger"
	"github.com/user/conversion-relay/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Pipeline Components ---
	enricher := geo.NewEnricher(cfg.GeoBaseURL, cfg.GeoAPIKey, cfg.GeoTimeout, log)
	if cfg.GeoAPIKey == "" {
		log.Info("geo enrichment disabled, no GEO_API_KEY configured")
	}

	dispatcher := capi.NewClient(
		cfg.CAPIBaseURL, cfg.DatasetID, cfg.AccessToken, cfg.TestEventCode,
		cfg.DispatchTimeout, cfg.DispatchRetries, log,
	)

	eventUseCase := usecase.NewDispatchEventUseCase(dispatcher, enricher, log, m)
	webhookUseCase := usecase.NewProcessWebhookUseCase(eventUseCase, log, m)

	adapters := []webhook.Adapter{
		webhook.NewHotmartAdapter(),
		webhook.NewKiwifyAdapter(),
	}

	// --- HTTP Server ---
	router := api.NewRouter(cfg, log, eventUseCase, webhookUseCase, adapters)
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Info("starting conversion relay", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	log.Info("server shut down gracefully")
}
