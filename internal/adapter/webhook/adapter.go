// Package webhook translates payment-platform purchase confirmations into
// the canonical identity and custom-data shape the dispatcher consumes.
// Webhook payloads are platform-defined, so they bypass the schema
// validator; each adapter owns its platform's quirks.
package webhook

import (
	"net/url"
	"strings"

	"github.com/user/conversion-relay/internal/adapter/identity"
	"github.com/user/conversion-relay/internal/domain"
)

// Adapter parses one platform's webhook payload. Parse returns (nil, nil)
// for recognized payloads that are not purchase confirmations; those are
// acknowledged without dispatching.
type Adapter interface {
	Platform() string
	Parse(body []byte) (*PurchaseEvent, error)
}

// PurchaseEvent is the canonical result of parsing a purchase confirmation.
type PurchaseEvent struct {
	Platform  string
	OrderID   string
	Value     float64
	Currency  string
	Item      domain.LineItem
	EventTime int64 // authoritative payment timestamp, Unix seconds
	SourceURL string

	User identity.UserData

	// WebhookParams carry the platform-defined identity keys found in the
	// checkout URL (or their top-level fallbacks); TrackingParams the rest
	// of the query string.
	WebhookParams  map[string]string
	TrackingParams map[string]string

	// CustomerIP is the buyer's address as recorded by the platform. The
	// webhook itself arrives from the platform's servers, so the HTTP
	// request's own address is useless for geo enrichment.
	CustomerIP string

	// Extra holds platform-specific custom-data fields, already pruned of
	// null and empty values.
	Extra map[string]any
}

// splitFullName splits on the first whitespace run: everything before it is
// the first name, everything after the last name.
func splitFullName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// parseCheckoutURL pulls the platform identity keys (xid, fbp, fbc) out of
// an embedded checkout URL's query string; every other key is a generic
// tracking parameter.
func parseCheckoutURL(raw string) (identityParams, tracking map[string]string) {
	identityParams = map[string]string{}
	tracking = map[string]string{}
	if raw == "" {
		return identityParams, tracking
	}
	u, err := url.Parse(raw)
	if err != nil {
		return identityParams, tracking
	}
	for key, vals := range u.Query() {
		if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			continue
		}
		switch key {
		case "xid", "fbp", "fbc":
			identityParams[key] = strings.TrimSpace(vals[0])
		default:
			tracking[key] = strings.TrimSpace(vals[0])
		}
	}
	return identityParams, tracking
}

// pruneEmpty drops keys whose value is nil or an empty string. Platform
// payloads are inconsistent about omission vs null.
func pruneEmpty(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func single(v string) identity.StringList {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return identity.StringList{strings.TrimSpace(v)}
}
