package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the booking API.
type Metrics struct {
	ShipmentsCreated prometheus.Counter
	StatusUpdates    *prometheus.CounterVec // by target status
	TrackingLookups  *prometheus.CounterVec // by outcome (found/not_found)
	ShipmentsDeleted prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ShipmentsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cargo_shipments_created_total",
				Help: "Total number of shipments registered",
			},
		),
		StatusUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cargo_status_updates_total",
				Help: "Total number of status updates by target status",
			},
			[]string{"status"},
		),
		TrackingLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cargo_tracking_lookups_total",
				Help: "Total number of tracking lookups by outcome",
			},
			[]string{"outcome"},
		),
		ShipmentsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cargo_shipments_deleted_total",
				Help: "Total number of shipments deleted",
			},
		),
	}
}
