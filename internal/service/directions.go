package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/geocoding"
	"github.com/UnknownOlympus/wayfinder/internal/metrics"
	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/presenter"
	"github.com/UnknownOlympus/wayfinder/internal/routing"
)

// User-facing notifications, one per failure class.
const (
	MessageAddressNotFound = "One or both addresses not found"
	MessageNoRoute         = "No route found"
	MessageFetchFailed     = "Failed to fetch directions. Please check your network connection."
)

// Failure classes returned by GetDirections.
var (
	ErrAddressNotFound = errors.New("one or both addresses not found")
	ErrNoRoute         = errors.New("no route found")
	ErrFetchFailed     = errors.New("failed to fetch directions")
)

// ErrSuperseded marks a failure of a run that a newer run has replaced; the
// caller should not notify the user about it.
var ErrSuperseded = errors.New("superseded by a newer request")

// DirectionsService resolves two addresses into a route and publishes it to the presenter.
type DirectionsService struct {
	log          *slog.Logger       // Logger for logging service activities
	provider     geocoding.Provider // Geocoding provider for address lookup
	providerName string             // Name of the geocoding provider for metrics labeling
	router       routing.Router     // Routing client
	routerName   string             // Name of the routing backend for metrics labeling
	store        *presenter.Store   // Store receiving successful routes
	metrics      *metrics.Metrics   // Metrics for tracking service performance
}

// NewDirectionsService creates a new instance of DirectionsService.
func NewDirectionsService(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	router routing.Router,
	routerName string,
	store *presenter.Store,
	metrics *metrics.Metrics,
) *DirectionsService {
	return &DirectionsService{
		log:          log,
		provider:     provider,
		providerName: providerName,
		router:       router,
		routerName:   routerName,
		store:        store,
		metrics:      metrics,
	}
}

// GetDirections geocodes origin and destination, routes between them and
// publishes the result. On failure nothing is published, the store records the
// user-facing notification and the error wraps one of ErrAddressNotFound,
// ErrNoRoute or ErrFetchFailed.
//
// A run superseded by a newer one still returns its own snapshot, but the
// snapshot is not displayed. A superseded run that fails also wraps ErrSuperseded.
func (ds *DirectionsService) GetDirections(
	ctx context.Context,
	origin, destination string,
) (*presenter.Snapshot, error) {
	requestID := ds.store.Begin()
	ds.log.DebugContext(ctx, "Resolving directions",
		"request", requestID, "origin", origin, "destination", destination)

	route, err := ds.resolve(ctx, origin, destination)
	if err != nil {
		ds.metrics.DirectionsRequests.WithLabelValues(outcome(err)).Inc()
		ds.log.ErrorContext(ctx, "Failed to resolve directions", "request", requestID, "error", err)
		if !ds.store.Fail(requestID, Notification(err)) {
			ds.metrics.Superseded.Inc()
			return nil, fmt.Errorf("%w: %w", ErrSuperseded, err)
		}
		return nil, err
	}

	ds.metrics.DirectionsRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()

	snapshot := presenter.Snapshot{
		Origin:      origin,
		Destination: destination,
		Route:       *route,
	}
	published, err := ds.store.Publish(requestID, snapshot)
	if errors.Is(err, presenter.ErrSuperseded) {
		ds.metrics.Superseded.Inc()
		ds.log.InfoContext(ctx, "Route resolved after a newer request, not displayed", "request", requestID)
		snapshot.RequestID = requestID
		return &snapshot, nil
	}

	ds.log.DebugContext(ctx, "Route published",
		"request", requestID, "points", len(route.Path), "instructions", len(route.Instructions))

	return published, err
}

func (ds *DirectionsService) resolve(ctx context.Context, origin, destination string) (*models.Route, error) {
	from, fromErr := ds.geocode(ctx, origin)
	if fromErr != nil && !errors.Is(fromErr, geocoding.ErrAddressNotFound) {
		return nil, fmt.Errorf("%w: origin: %w", ErrFetchFailed, fromErr)
	}

	to, toErr := ds.geocode(ctx, destination)
	if toErr != nil && !errors.Is(toErr, geocoding.ErrAddressNotFound) {
		return nil, fmt.Errorf("%w: destination: %w", ErrFetchFailed, toErr)
	}

	if fromErr != nil || toErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressNotFound, errors.Join(fromErr, toErr))
	}

	startTime := time.Now()
	route, err := ds.router.Route(ctx, *from, *to)
	ds.metrics.RequestSeconds.WithLabelValues(ds.routerName).Observe(time.Since(startTime).Seconds())

	switch {
	case errors.Is(err, routing.ErrNoRoute):
		return nil, fmt.Errorf("%w: %w", ErrNoRoute, err)
	case err != nil:
		ds.metrics.ProviderErrors.WithLabelValues(ds.routerName).Inc()
		return nil, fmt.Errorf("%w: route: %w", ErrFetchFailed, err)
	}

	return route, nil
}

func (ds *DirectionsService) geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	startTime := time.Now()
	coords, err := ds.provider.Geocode(ctx, address)
	ds.metrics.RequestSeconds.WithLabelValues(ds.providerName).Observe(time.Since(startTime).Seconds())

	switch {
	case err != nil && !errors.Is(err, geocoding.ErrAddressNotFound):
		ds.metrics.ProviderErrors.WithLabelValues(ds.providerName).Inc()
	case err == nil && coords == nil:
		return nil, geocoding.ErrAddressNotFound
	}

	return coords, err
}

// Notification maps an error from GetDirections to the message shown to the user.
func Notification(err error) string {
	switch {
	case errors.Is(err, ErrAddressNotFound):
		return MessageAddressNotFound
	case errors.Is(err, ErrNoRoute):
		return MessageNoRoute
	default:
		return MessageFetchFailed
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrAddressNotFound):
		return metrics.OutcomeAddressNotFound
	case errors.Is(err, ErrNoRoute):
		return metrics.OutcomeNoRoute
	default:
		return metrics.OutcomeFailure
	}
}
