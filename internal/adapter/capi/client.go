// Package capi transmits assembled events to the advertising-conversion
// ingestion API and interprets its acknowledgment into a tri-state outcome.
package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/user/conversion-relay/internal/domain"
)

// ErrNotConfigured is returned when the destination dataset or access token
// is missing. No network call is attempted in that case.
var ErrNotConfigured = errors.New("conversions api destination is not configured")

const retryBackoff = 500 * time.Millisecond

// Client posts one event per call in a batch wrapper. Retries are off by
// default and apply to transport errors only: an HTTP response, good or bad,
// is a final answer the caller must handle.
type Client struct {
	baseURL       string
	datasetID     string
	accessToken   string
	testEventCode string
	retries       int
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewClient(baseURL, datasetID, accessToken, testEventCode string, timeout time.Duration, retries int, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       baseURL,
		datasetID:     datasetID,
		accessToken:   accessToken,
		testEventCode: testEventCode,
		retries:       retries,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger.With("component", "capi_client"),
	}
}

type batchRequest struct {
	Data          []domain.CanonicalEvent `json:"data"`
	TestEventCode string                  `json:"test_event_code,omitempty"`
}

type batchResponse struct {
	EventsReceived int    `json:"events_received"`
	FbtraceID      string `json:"fbtrace_id"`
}

// Send transmits the event and maps the acknowledgment:
// non-2xx -> failure with the response body as error; 2xx with a received
// count of one or a trace id -> confirmed success; 2xx without either
// confirmation signal -> unconfirmed, reported as a warning. Transport
// errors never propagate as faults.
func (c *Client) Send(ctx context.Context, event domain.CanonicalEvent) (domain.DeliveryOutcome, error) {
	if c.datasetID == "" || c.accessToken == "" {
		return domain.DeliveryOutcome{}, ErrNotConfigured
	}

	body, err := json.Marshal(batchRequest{
		Data:          []domain.CanonicalEvent{event},
		TestEventCode: c.testEventCode,
	})
	if err != nil {
		return failure(event.EventID, err.Error()), nil
	}

	endpoint := c.baseURL + "/" + c.datasetID + "/events?access_token=" + url.QueryEscape(c.accessToken)

	resp, err := c.postWithRetry(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("conversions api call failed", "error", err, "event_id", event.EventID)
		return failure(event.EventID, err.Error()), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(event.EventID, err.Error()), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("conversions api rejected event",
			"status", resp.StatusCode, "event_id", event.EventID)
		return failure(event.EventID, decodeBody(raw)), nil
	}

	var ack batchResponse
	_ = json.Unmarshal(raw, &ack)

	if ack.EventsReceived == 1 || ack.FbtraceID != "" {
		return domain.DeliveryOutcome{
			Success: true,
			EventID: event.EventID,
			TraceID: ack.FbtraceID,
		}, nil
	}

	// The call itself succeeded but nothing confirmed receipt; surfaced
	// distinctly so callers can tell this from a transport failure.
	c.logger.Warn("conversions api returned 2xx without confirmation",
		"event_id", event.EventID)
	return domain.DeliveryOutcome{
		Success: false,
		EventID: event.EventID,
		Warning: decodeBody(raw),
	}, nil
}

func (c *Client) postWithRetry(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying conversions api call", "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func failure(eventID string, detail any) domain.DeliveryOutcome {
	return domain.DeliveryOutcome{
		Success: false,
		EventID: eventID,
		Error:   detail,
	}
}

// decodeBody keeps JSON bodies structured in the outcome, raw text otherwise.
func decodeBody(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
