package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/user/conversion-relay/internal/adapter/capi"
	"github.com/user/conversion-relay/internal/adapter/webhook"
	"github.com/user/conversion-relay/internal/usecase"
)

// WebhookProcessor runs the webhook half of the pipeline.
type WebhookProcessor interface {
	Process(ctx context.Context, adapter webhook.Adapter, body []byte) (usecase.WebhookResult, error)
}

// WebhookHandler serves one payment platform's webhook endpoint. Platforms
// retry on non-2xx, so unrecognized event types are acknowledged with 200;
// only parse and configuration failures return 500.
type WebhookHandler struct {
	processor   WebhookProcessor
	adapter     webhook.Adapter
	logger      *slog.Logger
	maxBodySize int64
}

func NewWebhookHandler(processor WebhookProcessor, adapter webhook.Adapter, logger *slog.Logger, maxBodySize int64) *WebhookHandler {
	return &WebhookHandler{
		processor:   processor,
		adapter:     adapter,
		logger:      logger.With("platform", adapter.Platform()),
		maxBodySize: maxBodySize,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, h.logger, http.StatusRequestEntityTooLarge, map[string]any{
				"success": false, "error": "payload too large",
			})
			return
		}
		writeJSON(w, h.logger, http.StatusBadRequest, map[string]any{
			"success": false, "error": "unreadable body",
		})
		return
	}

	result, err := h.processor.Process(r.Context(), h.adapter, body)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, capi.ErrNotConfigured) {
			h.logger.Error("webhook dispatch refused, destination not configured")
		} else {
			h.logger.Error("webhook processing failed", "error", err)
		}
		writeJSON(w, h.logger, status, map[string]any{
			"success": false, "error": err.Error(),
		})
		return
	}

	if !result.Processed {
		writeJSON(w, h.logger, http.StatusOK, map[string]any{
			"success": true, "processed": false,
		})
		return
	}

	resp := map[string]any{
		"success":    result.Outcome.Success,
		"processed":  true,
		"event_id":   result.Outcome.EventID,
		"fbtrace_id": result.Outcome.TraceID,
	}
	if result.Outcome.Error != nil {
		resp["error"] = result.Outcome.Error
	}
	if result.Outcome.Warning != nil {
		resp["warning"] = result.Outcome.Warning
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
