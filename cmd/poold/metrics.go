// metrics.go - Prometheus metrics for the pool daemon
package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shieldedpool/internal/merkle"
	"shieldedpool/internal/rpc"
)

const metricsNamespace = "shieldedpool"

// Metrics implements rpc.Observer on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	transactions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "rpc",
				Name:      "transactions_total",
				Help:      "Transactions handled, by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "rpc",
				Name:      "transaction_duration_seconds",
				Help:      "Time from decode to settlement or rejection",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
	}
}

func (m *Metrics) ObserveTransaction(kind, outcome string, d time.Duration) {
	m.transactions.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}

// TrackTree exports the tree fill level.
func (m *Metrics) TrackTree(tree *merkle.Tree) {
	factory := promauto.With(m.registry)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "tree",
		Name:      "next_index",
		Help:      "Index of the next commitment leaf",
	}, func() float64 { return float64(tree.NextIndex()) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "tree",
		Name:      "capacity",
		Help:      "Number of leaves the tree can hold",
	}, func() float64 { return float64(tree.Capacity()) })
}

func (m *Metrics) TrackHub(hub *rpc.Hub) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "events",
		Name:      "subscribers",
		Help:      "Connected websocket subscribers",
	}, func() float64 { return float64(hub.Subscribers()) })
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
