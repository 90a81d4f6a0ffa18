package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/user/conversion-relay/internal/adapter/geo"
	"github.com/user/conversion-relay/internal/adapter/metrics"
	"github.com/user/conversion-relay/internal/adapter/webhook"
	"github.com/user/conversion-relay/internal/domain"
)

// MockAdapter is a function-field webhook adapter.
type MockAdapter struct {
	ParseFunc func(body []byte) (*webhook.PurchaseEvent, error)
}

func (m *MockAdapter) Platform() string { return "mock" }

func (m *MockAdapter) Parse(body []byte) (*webhook.PurchaseEvent, error) {
	return m.ParseFunc(body)
}

func newWebhookUseCase(d *MockDispatcher, e *MockEnricher) *ProcessWebhookUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewProcessWebhookUseCase(NewDispatchEventUseCase(d, e, logger, m), logger, m)
}

func purchaseEvent() *webhook.PurchaseEvent {
	return &webhook.PurchaseEvent{
		Platform:  "mock",
		OrderID:   "HP12345",
		Value:     97.5,
		Currency:  "brl",
		Item:      domain.LineItem{ID: "4242", Quantity: 1, ItemPrice: 97.5, Title: "Curso"},
		EventTime: 1700000000,
		SourceURL: "https://pay.example.com/c/1",
		WebhookParams: map[string]string{
			"xid": "cust-7",
			"fbc": "fb.1.1700000000.abc",
		},
		TrackingParams: map[string]string{"utm_source": "ig"},
		CustomerIP:     "198.51.100.20",
		Extra:          map[string]any{"payment_method": "pix"},
	}
}

func TestProcessWebhook(t *testing.T) {
	t.Run("Purchase Confirmation Dispatched", func(t *testing.T) {
		dispatcher := &MockDispatcher{Outcome: domain.DeliveryOutcome{Success: true}}
		enricher := &MockEnricher{Status: geo.StatusFound, Fragment: geo.Fragment{Country: "BR"}}
		uc := newWebhookUseCase(dispatcher, enricher)

		adapter := &MockAdapter{ParseFunc: func([]byte) (*webhook.PurchaseEvent, error) {
			return purchaseEvent(), nil
		}}

		result, err := uc.Process(context.Background(), adapter, []byte(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Processed || !result.Outcome.Success {
			t.Fatalf("expected processed success, got %+v", result)
		}

		sent := dispatcher.Sent[0]
		if sent.EventName != domain.EventPurchase {
			t.Errorf("expected a Purchase event, got %s", sent.EventName)
		}
		if sent.EventID != "mock-HP12345" {
			t.Errorf("event id must be stable across redeliveries, got %q", sent.EventID)
		}
		if sent.EventTime != 1700000000 {
			t.Errorf("authoritative payment timestamp lost: %d", sent.EventTime)
		}
		if sent.UserData.ExternalID[0] != "cust-7" || sent.UserData.FBC != "fb.1.1700000000.abc" {
			t.Errorf("checkout url identity not resolved: %+v", sent.UserData)
		}
		if sent.CustomData["currency"] != "BRL" {
			t.Errorf("currency not uppercased: %v", sent.CustomData["currency"])
		}
		if sent.CustomData["payment_method"] != "pix" {
			t.Error("platform extras must merge into custom data")
		}
		if sent.CustomData["utm_source"] != "ig" {
			t.Error("tracking params must merge into custom data")
		}
		if enricher.LastIP != "198.51.100.20" {
			t.Errorf("geo lookup must use the payload customer ip, got %q", enricher.LastIP)
		}
	})

	t.Run("Non-Purchase Payload Acknowledged Without Dispatch", func(t *testing.T) {
		dispatcher := &MockDispatcher{}
		uc := newWebhookUseCase(dispatcher, &MockEnricher{Status: geo.StatusSkipped})

		adapter := &MockAdapter{ParseFunc: func([]byte) (*webhook.PurchaseEvent, error) {
			return nil, nil
		}}

		result, err := uc.Process(context.Background(), adapter, []byte(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Processed {
			t.Error("ignored payload must not be marked processed")
		}
		if len(dispatcher.Sent) != 0 {
			t.Error("ignored payload must not reach the dispatcher")
		}
	})

	t.Run("Parse Error Propagates", func(t *testing.T) {
		uc := newWebhookUseCase(&MockDispatcher{}, &MockEnricher{Status: geo.StatusSkipped})

		adapter := &MockAdapter{ParseFunc: func([]byte) (*webhook.PurchaseEvent, error) {
			return nil, errors.New("bad payload")
		}}

		if _, err := uc.Process(context.Background(), adapter, []byte(`{`)); err == nil {
			t.Error("expected an error for malformed payload")
		}
	})
}
