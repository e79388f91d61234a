package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for DirectionsRequests.
const (
	OutcomeSuccess         = "success"
	OutcomeAddressNotFound = "address_not_found"
	OutcomeNoRoute         = "no_route"
	OutcomeFailure         = "failure"
)

type Metrics struct {
	DirectionsRequests *prometheus.CounterVec
	ProviderErrors     *prometheus.CounterVec
	RequestSeconds     *prometheus.HistogramVec
	Superseded         prometheus.Counter
	Subscribers        prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DirectionsRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_directions_requests_total",
			Help: "Total number of directions requests by outcome.",
		}, []string{"outcome"}),
		ProviderErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_provider_errors_total",
			Help: "Total number of errors received from geocoding and routing APIs.",
		}, []string{"provider"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wayfinder_provider_request_duration_seconds",
			Help:    "Duration of requests to geocoding and routing APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		Superseded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wayfinder_superseded_responses_total",
			Help: "Routes resolved after a newer request was issued and therefore not displayed.",
		}),
		Subscribers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "wayfinder_view_subscribers",
			Help: "Current number of connected map views.",
		}),
	}
}
