// Package metrics exposes Prometheus collectors for the realtime and auth
// subsystems. Collectors are registered on the default registry; mount
// promhttp.Handler() to scrape them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks currently attached realtime clients.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "shopcast",
		Subsystem: "realtime",
		Name:      "active_connections",
		Help:      "Number of currently connected realtime clients.",
	})

	// Broadcasts counts full-snapshot fan-outs by collection.
	Broadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopcast",
		Subsystem: "realtime",
		Name:      "broadcasts_total",
		Help:      "Snapshot broadcasts sent to all clients, by collection.",
	}, []string{"collection"})

	// AuthFailures counts rejected register/login attempts by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopcast",
		Subsystem: "auth",
		Name:      "failures_total",
		Help:      "Rejected authentication attempts, by reason.",
	}, []string{"reason"})

	// StorageErrors counts persistence failures surfaced to callers.
	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopcast",
		Subsystem: "storage",
		Name:      "errors_total",
		Help:      "Storage operation failures, by store.",
	}, []string{"store"})
)
