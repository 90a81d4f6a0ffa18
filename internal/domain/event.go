package domain

// EventName identifies the kind of interaction being reported.
type EventName string

const (
	EventPageView         EventName = "PageView"
	EventViewContent      EventName = "ViewContent"
	EventAddToCart        EventName = "AddToCart"
	EventAddToWishlist    EventName = "AddToWishlist"
	EventInitiateCheckout EventName = "InitiateCheckout"
	EventAddPaymentInfo   EventName = "AddPaymentInfo"
	EventPurchase         EventName = "Purchase"
	EventLead             EventName = "Lead"
)

// KnownEventNames lists every event kind the pipeline accepts.
var KnownEventNames = []EventName{
	EventPageView,
	EventViewContent,
	EventAddToCart,
	EventAddToWishlist,
	EventInitiateCheckout,
	EventAddPaymentInfo,
	EventPurchase,
	EventLead,
}

// CanonicalEvent is the unit of work flowing through the pipeline: one
// validated interaction plus the identity and metadata it ships with.
type CanonicalEvent struct {
	EventName      EventName      `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	ActionSource   string         `json:"action_source"`
	UserData       IdentityBlock  `json:"user_data"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
}

// DeliveryOutcome is the tri-state result of one outbound call attempt.
// Exactly one of Error and Warning is set when Success is false; on a
// confirmed delivery both are nil.
type DeliveryOutcome struct {
	Success bool   `json:"success"`
	EventID string `json:"event_id"`
	TraceID string `json:"fbtrace_id,omitempty"`
	Error   any    `json:"error,omitempty"`
	Warning any    `json:"warning,omitempty"`
}
