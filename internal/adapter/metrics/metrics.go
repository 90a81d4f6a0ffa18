package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	EventsTotal     *prometheus.CounterVec
	DeliveriesTotal *prometheus.CounterVec
	GeoLookupsTotal *prometheus.CounterVec
	WebhooksTotal   *prometheus.CounterVec
}

// NewMetrics initializes and registers the metrics on the given registerer,
// so tests can use an isolated registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conversion_relay",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Total number of processed events by kind and status.",
		}, []string{"event", "status"}), // status: dispatched, invalid, delivery_failed, unconfirmed, config_error
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conversion_relay",
			Subsystem: "capi",
			Name:      "deliveries_total",
			Help:      "Total number of outbound calls by outcome.",
		}, []string{"outcome"}), // outcome: success, warning, error
		GeoLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conversion_relay",
			Subsystem: "geo",
			Name:      "lookups_total",
			Help:      "Total number of geo enrichment attempts by status.",
		}, []string{"status"}),
		WebhooksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conversion_relay",
			Subsystem: "webhook",
			Name:      "received_total",
			Help:      "Total number of webhook requests by platform and status.",
		}, []string{"platform", "status"}), // status: processed, ignored, invalid, failed
	}
}
