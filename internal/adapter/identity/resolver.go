// Package identity reconciles user-identifying signals arriving from up to
// three untrusted sources (request body, first-party cookies, webhook
// parameters) into a single block, applying a fixed per-field precedence.
package identity

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/user/conversion-relay/internal/domain"
)

// Cookie names set by the browser pixel.
const (
	CookieFBC = "_fbc"
	CookieFBP = "_fbp"
)

// Webhook checkout URLs embed identity under these platform-defined keys.
const (
	paramExternalID = "xid"
	paramFBP        = "fbp"
	paramFBC        = "fbc"
)

// fallbackKeys are identity-bearing keys that sometimes leak into custom
// data or generic URL parameters. They are always stripped from those maps,
// used or not, so identity material never rides along as tracking params.
var fallbackKeys = []string{"fbc", "fbp", "external_id"}

// StringList unmarshals either a JSON string or an array of strings, since
// tracker payloads are inconsistent about single vs multi-valued fields.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) != "" {
			*l = StringList{strings.TrimSpace(single)}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	out := make(StringList, 0, len(many))
	for _, v := range many {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	*l = out
	return nil
}

// UserData is the identity portion of an inbound event submission.
type UserData struct {
	Email      StringList `json:"email"`
	Phone      StringList `json:"phone"`
	FirstName  StringList `json:"firstName"`
	LastName   StringList `json:"lastName"`
	Gender     StringList `json:"gender"`
	BirthDate  StringList `json:"dateOfBirth"`
	City       StringList `json:"city"`
	State      StringList `json:"state"`
	PostalCode StringList `json:"zipCode"`
	Country    StringList `json:"country"`
	ExternalID StringList `json:"externalId"`
	FBC        string     `json:"fbc"`
	FBP        string     `json:"fbp"`
}

// Input carries every identity source for one event. CustomData and
// URLParams are mutated: consumed fallback keys are deleted from both.
type Input struct {
	Explicit UserData

	// WebhookParams are the platform-defined keys parsed out of an embedded
	// checkout URL. Highest precedence; consumed keys are deleted.
	WebhookParams map[string]string

	// CustomData and URLParams may carry identity keys by mistake; they are
	// the second-priority source and are always stripped.
	CustomData map[string]any
	URLParams  map[string]string

	CookieFBC string
	CookieFBP string

	ClientIP  string
	UserAgent string
}

// Resolve merges all sources into one identity block and returns it together
// with the surviving tracking parameters (URLParams minus identity keys).
func Resolve(in Input) (domain.IdentityBlock, map[string]string) {
	block := domain.IdentityBlock{
		Email:      cleaned(in.Explicit.Email),
		Phone:      cleaned(in.Explicit.Phone),
		FirstName:  cleaned(in.Explicit.FirstName),
		LastName:   cleaned(in.Explicit.LastName),
		Gender:     cleaned(in.Explicit.Gender),
		BirthDate:  cleaned(in.Explicit.BirthDate),
		City:       cleaned(in.Explicit.City),
		State:      cleaned(in.Explicit.State),
		PostalCode: cleaned(in.Explicit.PostalCode),
		Country:    cleaned(in.Explicit.Country),
		ExternalID: cleaned(in.Explicit.ExternalID),
		FBC:        strings.TrimSpace(in.Explicit.FBC),
		FBP:        strings.TrimSpace(in.Explicit.FBP),
	}

	// Fallback sources beat the explicit payload only where it is silent...
	fbc, fbp, xid := consumeFallbacks(in.CustomData, in.URLParams)
	if fbc != "" {
		block.FBC = fbc
	} else if block.FBC == "" {
		block.FBC = strings.TrimSpace(in.CookieFBC)
	}
	if fbp != "" {
		block.FBP = fbp
	} else if block.FBP == "" {
		block.FBP = strings.TrimSpace(in.CookieFBP)
	}
	if xid != "" {
		block.ExternalID = []string{xid}
	}

	// ...while webhook-URL parameters override everything, per field.
	if v := takeParam(in.WebhookParams, paramFBC); v != "" {
		block.FBC = v
	}
	if v := takeParam(in.WebhookParams, paramFBP); v != "" {
		block.FBP = v
	}
	if v := takeParam(in.WebhookParams, paramExternalID); v != "" {
		block.ExternalID = []string{v}
	}

	// Network context is never trusted from the body.
	block.ClientIPAddress = strings.TrimSpace(in.ClientIP)
	block.ClientUserAgent = strings.TrimSpace(in.UserAgent)

	tracking := make(map[string]string, len(in.URLParams)+len(in.WebhookParams))
	for k, v := range in.URLParams {
		tracking[k] = v
	}
	for k, v := range in.WebhookParams {
		tracking[k] = v
	}
	return block, tracking
}

// consumeFallbacks pulls identity keys out of custom data and URL params,
// deleting them from both maps regardless of whether they win.
func consumeFallbacks(customData map[string]any, urlParams map[string]string) (fbc, fbp, xid string) {
	take := func(key string) string {
		var found string
		if v, ok := urlParams[key]; ok {
			if s := strings.TrimSpace(v); s != "" {
				found = s
			}
			delete(urlParams, key)
		}
		if v, ok := customData[key]; ok {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) != "" && found == "" {
				found = strings.TrimSpace(s)
			}
			delete(customData, key)
		}
		return found
	}
	fbc = take(fallbackKeys[0])
	fbp = take(fallbackKeys[1])
	xid = take(fallbackKeys[2])
	return fbc, fbp, xid
}

func takeParam(params map[string]string, key string) string {
	v, ok := params[key]
	if !ok {
		return ""
	}
	delete(params, key)
	return strings.TrimSpace(v)
}

func cleaned(values StringList) []string {
	if len(values) == 0 {
		return nil
	}
	return []string(values)
}

// ClientIP extracts the end-user address from proxy headers: the first
// x-forwarded-for entry, then x-real-ip, then the socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

// FromRequest builds an Input from the inbound HTTP request: cookies and
// network context. Body-derived sources are filled in by the caller.
func FromRequest(r *http.Request) Input {
	in := Input{
		ClientIP:  ClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}
	if c, err := r.Cookie(CookieFBC); err == nil {
		in.CookieFBC = c.Value
	}
	if c, err := r.Cookie(CookieFBP); err == nil {
		in.CookieFBP = c.Value
	}
	return in
}
