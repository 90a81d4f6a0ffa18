package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/conversion-relay/internal/adapter/api/handler"
	"github.com/user/conversion-relay/internal/adapter/api/middleware"
	"github.com/user/conversion-relay/internal/adapter/webhook"
	"github.com/user/conversion-relay/internal/domain"
	"github.com/user/conversion-relay/internal/pkg/config"
)

// eventRoutes maps URL slugs to event kinds, one endpoint per kind.
var eventRoutes = map[string]domain.EventName{
	"page-view":         domain.EventPageView,
	"view-content":      domain.EventViewContent,
	"add-to-cart":       domain.EventAddToCart,
	"add-to-wishlist":   domain.EventAddToWishlist,
	"initiate-checkout": domain.EventInitiateCheckout,
	"add-payment-info":  domain.EventAddPaymentInfo,
	"purchase":          domain.EventPurchase,
	"lead":              domain.EventLead,
}

// NewRouter creates and configures the main HTTP router.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	events handler.EventDispatcher,
	webhooks handler.WebhookProcessor,
	adapters []webhook.Adapter,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger))

	r.Route("/events", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{cfg.AllowedOrigin},
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}))
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, logger))

		for slug, kind := range eventRoutes {
			r.Method(http.MethodPost, "/"+slug,
				handler.NewEventHandler(events, kind, logger, cfg.MaxBodySize))
		}
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.WebhookToken(cfg.WebhookToken, logger))
		for _, adapter := range adapters {
			r.Method(http.MethodPost, "/"+adapter.Platform(),
				handler.NewWebhookHandler(webhooks, adapter, logger, cfg.MaxBodySize))
		}
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
