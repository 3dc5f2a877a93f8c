// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for ResolveTotal.
const (
	OutcomeResolved             = "resolved"
	OutcomeNotFound             = "not_found"
	OutcomeInvalidDiscriminator = "invalid_discriminator"
	OutcomeStoreError           = "store_error"
)

var (
	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uuid_resolve_total",
			Help: "Cumulative number of uuid resolutions by kind and outcome.",
		}, []string{"kind", "outcome"})

	ResolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uuid_resolve_duration_seconds",
			Help:    "Wall time of one uuid resolution, by execution mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Cumulative number of HTTP requests by route, status, and client class.",
		}, []string{"route", "status", "client"})
)

func init() {
	prometheus.MustRegister(
		ResolveTotal,
		ResolveDuration,
		HTTPRequestsTotal,
	)
}
