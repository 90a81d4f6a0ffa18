package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/user/conversion-relay/internal/adapter/geo"
	"github.com/user/conversion-relay/internal/adapter/identity"
	"github.com/user/conversion-relay/internal/adapter/metrics"
	"github.com/user/conversion-relay/internal/adapter/pii"
	"github.com/user/conversion-relay/internal/adapter/validate"
	"github.com/user/conversion-relay/internal/domain"
)

// DispatchEventUseCase runs the full pipeline for one inbound event:
// validate, resolve identity, enrich, hash, transmit. The stages are
// strictly ordered; hashing consumes enrichment output, so enrichment always
// completes (or is skipped) first.
type DispatchEventUseCase struct {
	dispatcher Dispatcher
	enricher   GeoEnricher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewDispatchEventUseCase(dispatcher Dispatcher, enricher GeoEnricher, logger *slog.Logger, m *metrics.Metrics) *DispatchEventUseCase {
	return &DispatchEventUseCase{
		dispatcher: dispatcher,
		enricher:   enricher,
		logger:     logger,
		metrics:    m,
	}
}

// EventRequest is one inbound submission, already split into its sources.
type EventRequest struct {
	Kind domain.EventName

	// Identity carries the explicit user data plus the request-derived
	// cookie and network context. CustomData and URLParams are attached
	// here before resolution so fallback keys get consumed and stripped.
	Identity   identity.Input
	CustomData map[string]any
	URLParams  map[string]string

	EventID        string
	EventTime      int64 // explicit override; 0 means "now"
	EventSourceURL string
	RequestURL     string // fallback source url: the request's own URL

	// GeoIP overrides the lookup address (webhook-relayed events carry the
	// customer IP in the payload, not on the wire).
	GeoIP string
}

// Dispatch validates and transmits one event. A *ValidationError means the
// payload never left the building; capi.ErrNotConfigured means the relay
// itself is missing its destination credentials.
func (uc *DispatchEventUseCase) Dispatch(ctx context.Context, req EventRequest) (domain.DeliveryOutcome, error) {
	in := req.Identity
	in.CustomData = req.CustomData
	in.URLParams = req.URLParams

	// Resolution strips identity-bearing keys from custom data and URL
	// params before anything else sees them.
	block, tracking := identity.Resolve(in)

	payload, errs := validate.Sanitize(req.Kind, req.CustomData)
	if len(errs) > 0 {
		uc.metrics.EventsTotal.WithLabelValues(string(req.Kind), "invalid").Inc()
		return domain.DeliveryOutcome{}, &ValidationError{Errors: errs}
	}

	return uc.finish(ctx, assembly{
		kind:      req.Kind,
		custom:    payload.CustomData(),
		block:     block,
		tracking:  tracking,
		geoIP:     req.GeoIP,
		eventID:   req.EventID,
		eventTime: req.EventTime,
		sourceURL: firstNonEmpty(req.EventSourceURL, req.RequestURL),
	})
}

// assembly is everything needed to enrich, hash and transmit one event.
type assembly struct {
	kind      domain.EventName
	custom    map[string]any
	block     domain.IdentityBlock
	tracking  map[string]string
	geoIP     string
	eventID   string
	eventTime int64
	sourceURL string
}

func (uc *DispatchEventUseCase) finish(ctx context.Context, a assembly) (domain.DeliveryOutcome, error) {
	ip := firstNonEmpty(a.geoIP, a.block.ClientIPAddress)
	frag, status := uc.enricher.Lookup(ctx, ip)
	uc.metrics.GeoLookupsTotal.WithLabelValues(string(status)).Inc()
	mergeGeo(&a.block, frag)

	// Hashing is the last touch on identity before transmission.
	hashed := pii.HashIdentity(a.block)

	// Surviving tracking parameters ride along verbatim, without clobbering
	// validated fields.
	for k, v := range a.tracking {
		if _, taken := a.custom[k]; !taken {
			a.custom[k] = v
		}
	}

	eventID := a.eventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	eventTime := a.eventTime
	if eventTime == 0 {
		eventTime = time.Now().Unix()
	}

	event := domain.CanonicalEvent{
		EventName:      a.kind,
		EventTime:      eventTime,
		EventID:        eventID,
		EventSourceURL: a.sourceURL,
		ActionSource:   "website",
		UserData:       hashed,
		CustomData:     a.custom,
	}

	outcome, err := uc.dispatcher.Send(ctx, event)
	if err != nil {
		uc.metrics.EventsTotal.WithLabelValues(string(a.kind), "config_error").Inc()
		return outcome, err
	}

	switch {
	case outcome.Success:
		uc.metrics.EventsTotal.WithLabelValues(string(a.kind), "dispatched").Inc()
		uc.metrics.DeliveriesTotal.WithLabelValues("success").Inc()
	case outcome.Warning != nil:
		uc.metrics.EventsTotal.WithLabelValues(string(a.kind), "unconfirmed").Inc()
		uc.metrics.DeliveriesTotal.WithLabelValues("warning").Inc()
	default:
		uc.metrics.EventsTotal.WithLabelValues(string(a.kind), "delivery_failed").Inc()
		uc.metrics.DeliveriesTotal.WithLabelValues("error").Inc()
	}

	return outcome, nil
}

// mergeGeo fills location fields the caller did not supply; explicit values
// always beat the lookup.
func mergeGeo(block *domain.IdentityBlock, frag geo.Fragment) {
	if len(block.City) == 0 && frag.City != "" {
		block.City = []string{frag.City}
	}
	if len(block.State) == 0 && frag.State != "" {
		block.State = []string{frag.State}
	}
	if len(block.PostalCode) == 0 && frag.PostalCode != "" {
		block.PostalCode = []string{frag.PostalCode}
	}
	if len(block.Country) == 0 && frag.Country != "" {
		block.Country = []string{frag.Country}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
