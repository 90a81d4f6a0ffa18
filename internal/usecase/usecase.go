package usecase

import (
	"context"
	"strings"

	"github.com/user/conversion-relay/internal/adapter/geo"
	"github.com/user/conversion-relay/internal/domain"
)

// Dispatcher transmits one assembled event to the advertising API.
type Dispatcher interface {
	Send(ctx context.Context, event domain.CanonicalEvent) (domain.DeliveryOutcome, error)
}

// GeoEnricher resolves a client IP into a partial location fragment.
type GeoEnricher interface {
	Lookup(ctx context.Context, ip string) (geo.Fragment, geo.Status)
}

// ValidationError carries the itemized findings of a failed schema check.
// It is detected before any side effect; no outbound call follows it.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
