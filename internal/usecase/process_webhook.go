package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/conversion-relay/internal/adapter/identity"
	"github.com/user/conversion-relay/internal/adapter/metrics"
	"github.com/user/conversion-relay/internal/adapter/webhook"
	"github.com/user/conversion-relay/internal/domain"
)

// ProcessWebhookUseCase maps payment-platform purchase confirmations onto
// the same outbound pipeline the storefront events use. Webhook payload
// shape is platform-defined, so the schema validator is bypassed; the
// adapter is the contract.
type ProcessWebhookUseCase struct {
	events  *DispatchEventUseCase
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewProcessWebhookUseCase(events *DispatchEventUseCase, logger *slog.Logger, m *metrics.Metrics) *ProcessWebhookUseCase {
	return &ProcessWebhookUseCase{events: events, logger: logger, metrics: m}
}

// WebhookResult distinguishes an acknowledged no-op from a dispatched event.
type WebhookResult struct {
	Processed bool
	Outcome   domain.DeliveryOutcome
}

// Process parses the payload with the platform adapter and, for purchase
// confirmations, enriches, hashes and transmits a Purchase event keyed by
// the platform order id so webhook redeliveries deduplicate downstream.
func (uc *ProcessWebhookUseCase) Process(ctx context.Context, adapter webhook.Adapter, body []byte) (WebhookResult, error) {
	ev, err := adapter.Parse(body)
	if err != nil {
		uc.metrics.WebhooksTotal.WithLabelValues(adapter.Platform(), "invalid").Inc()
		return WebhookResult{}, fmt.Errorf("webhook %s: %w", adapter.Platform(), err)
	}
	if ev == nil {
		uc.metrics.WebhooksTotal.WithLabelValues(adapter.Platform(), "ignored").Inc()
		uc.logger.Debug("ignoring non-purchase webhook", "platform", adapter.Platform())
		return WebhookResult{Processed: false}, nil
	}

	data := domain.PurchaseData{
		OrderID:     ev.OrderID,
		Value:       ev.Value,
		Currency:    strings.ToUpper(ev.Currency),
		Contents:    []domain.LineItem{ev.Item},
		ContentIDs:  []string{ev.Item.ID},
		ContentName: contentName(ev.Item),
		NumItems:    ev.Item.Quantity,
	}

	custom := data.CustomData()
	for k, v := range ev.Extra {
		if _, taken := custom[k]; !taken {
			custom[k] = v
		}
	}

	block, tracking := identity.Resolve(identity.Input{
		Explicit:      ev.User,
		WebhookParams: ev.WebhookParams,
		URLParams:     ev.TrackingParams,
		ClientIP:      ev.CustomerIP,
	})

	outcome, err := uc.events.finish(ctx, assembly{
		kind:      domain.EventPurchase,
		custom:    custom,
		block:     block,
		tracking:  tracking,
		geoIP:     ev.CustomerIP,
		eventID:   ev.Platform + "-" + ev.OrderID,
		eventTime: ev.EventTime,
		sourceURL: ev.SourceURL,
	})
	if err != nil {
		uc.metrics.WebhooksTotal.WithLabelValues(adapter.Platform(), "failed").Inc()
		return WebhookResult{}, err
	}

	uc.metrics.WebhooksTotal.WithLabelValues(adapter.Platform(), "processed").Inc()
	return WebhookResult{Processed: true, Outcome: outcome}, nil
}

func contentName(item domain.LineItem) string {
	if item.Title != "" {
		return item.Title
	}
	return "Product " + item.ID
}
