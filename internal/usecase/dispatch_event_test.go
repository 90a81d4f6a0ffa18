package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/user/conversion-relay/internal/adapter/capi"
	"github.com/user/conversion-relay/internal/adapter/geo"
	"github.com/user/conversion-relay/internal/adapter/identity"
	"github.com/user/conversion-relay/internal/adapter/metrics"
	"github.com/user/conversion-relay/internal/domain"
)

// MockDispatcher records every event it is asked to send.
type MockDispatcher struct {
	mu      sync.Mutex
	Sent    []domain.CanonicalEvent
	Outcome domain.DeliveryOutcome
	Err     error
}

func (m *MockDispatcher) Send(ctx context.Context, event domain.CanonicalEvent) (domain.DeliveryOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.DeliveryOutcome{}, m.Err
	}
	m.Sent = append(m.Sent, event)
	out := m.Outcome
	out.EventID = event.EventID
	return out, nil
}

// MockEnricher returns a fixed fragment and status.
type MockEnricher struct {
	Fragment geo.Fragment
	Status   geo.Status
	LastIP   string
}

func (m *MockEnricher) Lookup(ctx context.Context, ip string) (geo.Fragment, geo.Status) {
	m.LastIP = ip
	return m.Fragment, m.Status
}

func newUseCase(d *MockDispatcher, e *MockEnricher) *DispatchEventUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatchEventUseCase(d, e, logger, metrics.NewMetrics(prometheus.NewRegistry()))
}

func validPurchase() map[string]any {
	return map[string]any{
		"order_id": "O1",
		"value":    110.0,
		"currency": "usd",
		"contents": []any{
			map[string]any{"id": "P1", "quantity": 2.0, "item_price": 55.0},
		},
	}
}

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestDispatch(t *testing.T) {
	t.Run("Successful Pipeline Run", func(t *testing.T) {
		dispatcher := &MockDispatcher{Outcome: domain.DeliveryOutcome{Success: true, TraceID: "tr_1"}}
		enricher := &MockEnricher{Status: geo.StatusSkipped}
		uc := newUseCase(dispatcher, enricher)

		outcome, err := uc.Dispatch(context.Background(), EventRequest{
			Kind: domain.EventPurchase,
			Identity: identity.Input{
				Explicit:  identity.UserData{Email: identity.StringList{" Foo@Bar.com "}},
				ClientIP:  "203.0.113.9",
				UserAgent: "Mozilla/5.0",
			},
			CustomData: validPurchase(),
			URLParams:  map[string]string{"utm_source": "newsletter"},
			RequestURL: "https://shop.example.com/checkout",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !outcome.Success || outcome.TraceID != "tr_1" {
			t.Errorf("unexpected outcome: %+v", outcome)
		}
		if len(dispatcher.Sent) != 1 {
			t.Fatalf("expected 1 dispatched event, got %d", len(dispatcher.Sent))
		}

		sent := dispatcher.Sent[0]
		if sent.EventID == "" {
			t.Error("expected a generated event id")
		}
		if sent.EventTime == 0 {
			t.Error("expected event time to default to now")
		}
		if sent.EventSourceURL != "https://shop.example.com/checkout" {
			t.Errorf("source url not defaulted to request url: %q", sent.EventSourceURL)
		}
		if sent.UserData.Email[0] != sha("foo@bar.com") {
			t.Error("email not canonicalized and hashed before transmission")
		}
		if sent.UserData.ClientIPAddress != "203.0.113.9" {
			t.Error("client ip must pass through unhashed")
		}
		if sent.CustomData["currency"] != "USD" {
			t.Errorf("custom data not sanitized: %v", sent.CustomData["currency"])
		}
		if sent.CustomData["utm_source"] != "newsletter" {
			t.Error("tracking params must merge into custom data")
		}
	})

	t.Run("Validation Failure Makes No Outbound Call", func(t *testing.T) {
		dispatcher := &MockDispatcher{}
		uc := newUseCase(dispatcher, &MockEnricher{Status: geo.StatusSkipped})

		_, err := uc.Dispatch(context.Background(), EventRequest{
			Kind: domain.EventAddToCart,
			CustomData: map[string]any{
				"value":     100.0,
				"currency":  "USD",
				"num_items": 3.0,
				"contents": []any{
					map[string]any{"id": "A", "quantity": 3.0, "item_price": 30.0},
				},
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(dispatcher.Sent) != 0 {
			t.Errorf("expected zero outbound calls, got %d", len(dispatcher.Sent))
		}
	})

	t.Run("Missing Geo Credential Never Blocks Dispatch", func(t *testing.T) {
		dispatcher := &MockDispatcher{Outcome: domain.DeliveryOutcome{Success: true}}
		uc := newUseCase(dispatcher, &MockEnricher{Status: geo.StatusSkipped})

		outcome, err := uc.Dispatch(context.Background(), EventRequest{
			Kind:       domain.EventPurchase,
			CustomData: validPurchase(),
		})
		if err != nil || !outcome.Success {
			t.Fatalf("pipeline must complete without geo: outcome=%+v err=%v", outcome, err)
		}
		sent := dispatcher.Sent[0]
		if len(sent.UserData.City) != 0 || len(sent.UserData.Country) != 0 {
			t.Error("skipped enrichment must leave geo fields empty")
		}
	})

	t.Run("Geo Fragment Fills Absent Fields Only", func(t *testing.T) {
		dispatcher := &MockDispatcher{Outcome: domain.DeliveryOutcome{Success: true}}
		enricher := &MockEnricher{
			Fragment: geo.Fragment{City: "Lisbon", Country: "PT"},
			Status:   geo.StatusFound,
		}
		uc := newUseCase(dispatcher, enricher)

		_, err := uc.Dispatch(context.Background(), EventRequest{
			Kind: domain.EventPurchase,
			Identity: identity.Input{
				Explicit: identity.UserData{City: identity.StringList{"Porto"}},
			},
			CustomData: validPurchase(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sent := dispatcher.Sent[0]
		if sent.UserData.City[0] != sha("porto") {
			t.Error("explicit city must beat the lookup")
		}
		if len(sent.UserData.Country) != 1 || sent.UserData.Country[0] != sha("pt") {
			t.Error("lookup must fill the absent country field")
		}
	})

	t.Run("Configuration Error Propagates", func(t *testing.T) {
		dispatcher := &MockDispatcher{Err: capi.ErrNotConfigured}
		uc := newUseCase(dispatcher, &MockEnricher{Status: geo.StatusSkipped})

		_, err := uc.Dispatch(context.Background(), EventRequest{
			Kind:       domain.EventPurchase,
			CustomData: validPurchase(),
		})
		if !errors.Is(err, capi.ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}
	})

	t.Run("Caller Supplied Event ID Is Preserved", func(t *testing.T) {
		dispatcher := &MockDispatcher{Outcome: domain.DeliveryOutcome{Success: true}}
		uc := newUseCase(dispatcher, &MockEnricher{Status: geo.StatusSkipped})

		_, err := uc.Dispatch(context.Background(), EventRequest{
			Kind:       domain.EventPurchase,
			CustomData: validPurchase(),
			EventID:    "client-evt-9",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dispatcher.Sent[0].EventID != "client-evt-9" {
			t.Errorf("expected stable caller event id, got %q", dispatcher.Sent[0].EventID)
		}
	})

	t.Run("Fallback Click ID Stripped From Custom Data", func(t *testing.T) {
		dispatcher := &MockDispatcher{Outcome: domain.DeliveryOutcome{Success: true}}
		uc := newUseCase(dispatcher, &MockEnricher{Status: geo.StatusSkipped})

		custom := validPurchase()
		custom["fbc"] = "fb.1.1700000000.abc"

		_, err := uc.Dispatch(context.Background(), EventRequest{
			Kind:       domain.EventPurchase,
			CustomData: custom,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sent := dispatcher.Sent[0]
		if sent.UserData.FBC != "fb.1.1700000000.abc" {
			t.Error("fallback click id not promoted into identity")
		}
		if _, leaked := sent.CustomData["fbc"]; leaked {
			t.Error("click id must not leak into outbound custom data")
		}
	})
}
