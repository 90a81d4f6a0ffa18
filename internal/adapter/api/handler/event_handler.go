package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/conversion-relay/internal/adapter/capi"
	"github.com/user/conversion-relay/internal/adapter/identity"
	"github.com/user/conversion-relay/internal/domain"
	"github.com/user/conversion-relay/internal/usecase"
)

// EventDispatcher is the pipeline entry point the handler depends on.
type EventDispatcher interface {
	Dispatch(ctx context.Context, req usecase.EventRequest) (domain.DeliveryOutcome, error)
}

// eventSubmission is the inbound JSON body shared by all event endpoints.
type eventSubmission struct {
	UserData       identity.UserData `json:"userData"`
	CustomData     map[string]any    `json:"customData"`
	EventID        string            `json:"event_id"`
	EventSourceURL string            `json:"eventSourceUrl"`
	URLParameters  map[string]string `json:"urlParameters"`
}

// EventHandler serves one event kind's submission endpoint.
type EventHandler struct {
	useCase     EventDispatcher
	kind        domain.EventName
	logger      *slog.Logger
	maxBodySize int64
}

func NewEventHandler(uc EventDispatcher, kind domain.EventName, logger *slog.Logger, maxBodySize int64) *EventHandler {
	return &EventHandler{
		useCase:     uc,
		kind:        kind,
		logger:      logger.With("event", string(kind)),
		maxBodySize: maxBodySize,
	}
}

func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var sub eventSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, h.logger, http.StatusRequestEntityTooLarge, map[string]any{
				"success": false, "error": "payload too large",
			})
			return
		}
		writeJSON(w, h.logger, http.StatusBadRequest, map[string]any{
			"success": false, "error": "invalid JSON body",
		})
		return
	}

	in := identity.FromRequest(r)
	in.Explicit = sub.UserData

	outcome, err := h.useCase.Dispatch(r.Context(), usecase.EventRequest{
		Kind:           h.kind,
		Identity:       in,
		CustomData:     sub.CustomData,
		URLParams:      sub.URLParameters,
		EventID:        sub.EventID,
		EventSourceURL: sub.EventSourceURL,
		RequestURL:     requestURL(r),
	})

	switch {
	case err != nil:
		var vErr *usecase.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, h.logger, http.StatusBadRequest, map[string]any{
				"success":  false,
				"errors":   vErr.Errors,
				"event_id": sub.EventID,
			})
			return
		}
		if errors.Is(err, capi.ErrNotConfigured) {
			h.logger.Error("dispatch refused, destination not configured")
			writeJSON(w, h.logger, http.StatusInternalServerError, map[string]any{
				"success": false, "error": err.Error(), "event_id": sub.EventID,
			})
			return
		}
		h.logger.Error("event processing failed", "error", err)
		writeJSON(w, h.logger, http.StatusInternalServerError, map[string]any{
			"success": false, "error": "internal error", "event_id": sub.EventID,
		})

	case outcome.Success:
		writeJSON(w, h.logger, http.StatusOK, map[string]any{
			"success":    true,
			"event_id":   outcome.EventID,
			"fbtrace_id": outcome.TraceID,
			"event":      string(h.kind),
		})

	default:
		// Unconfirmed warnings and hard failures both surface as 502; the
		// body keeps them distinguishable.
		body := map[string]any{"success": false, "event_id": outcome.EventID}
		if outcome.Warning != nil {
			body["warning"] = outcome.Warning
		} else {
			body["error"] = outcome.Error
		}
		writeJSON(w, h.logger, http.StatusBadGateway, body)
	}
}

// requestURL reconstructs the URL the client called, honoring proxy headers.
func requestURL(r *http.Request) string {
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
