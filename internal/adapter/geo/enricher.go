// Package geo performs a best-effort IP-to-location lookup. Enrichment is
// advisory: every failure mode degrades to an empty fragment with a typed
// status, and nothing here ever fails the pipeline.
package geo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Status classifies one lookup attempt so callers and tests can tell
// "didn't attempt" apart from "attempted, found nothing".
type Status string

const (
	StatusFound   Status = "found"   // lookup returned at least one location field
	StatusNoData  Status = "no_data" // lookup succeeded but carried no usable fields
	StatusSkipped Status = "skipped" // no IP or no credential configured
	StatusFailed  Status = "failed"  // transport error or non-2xx response
)

// Fragment is the partial identity contribution of a successful lookup.
type Fragment struct {
	City       string
	State      string
	PostalCode string
	Country    string
}

// IsEmpty reports whether the lookup produced nothing usable.
func (f Fragment) IsEmpty() bool {
	return f.City == "" && f.State == "" && f.PostalCode == "" && f.Country == ""
}

// Enricher queries an ipgeolocation-style REST endpoint.
type Enricher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewEnricher builds an Enricher. An empty apiKey disables lookups entirely.
func NewEnricher(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Enricher {
	return &Enricher{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("component", "geo_enricher"),
	}
}

type lookupResponse struct {
	City        string `json:"city"`
	StateProv   string `json:"state_prov"`
	Zipcode     string `json:"zipcode"`
	CountryCode string `json:"country_code2"`
}

// Lookup resolves an IP to a location fragment. It never returns an error:
// degradations are reported through the status and logged at warn level.
func (e *Enricher) Lookup(ctx context.Context, ip string) (Fragment, Status) {
	if ip == "" || e.apiKey == "" {
		return Fragment{}, StatusSkipped
	}

	u := e.baseURL + "?apiKey=" + url.QueryEscape(e.apiKey) + "&ip=" + url.QueryEscape(ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		e.logger.Warn("failed to build geo lookup request", "error", err)
		return Fragment{}, StatusFailed
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("geo lookup call failed", "error", err)
		return Fragment{}, StatusFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.logger.Warn("geo lookup returned non-2xx status", "status", resp.StatusCode)
		return Fragment{}, StatusFailed
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		e.logger.Warn("failed to decode geo lookup response", "error", err)
		return Fragment{}, StatusFailed
	}

	frag := Fragment{
		City:       body.City,
		State:      body.StateProv,
		PostalCode: body.Zipcode,
		Country:    body.CountryCode,
	}
	if frag.IsEmpty() {
		return Fragment{}, StatusNoData
	}
	return frag, StatusFound
}
