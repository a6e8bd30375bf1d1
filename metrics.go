package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the Prometheus collectors updated alongside the routing
// state they mirror. packetsReceived and bestCost are updated while the
// routing lock is held, the same discipline as the fields they track;
// neighborFailures is incremented by the failure detector after it has
// released the lock.
type metrics struct {
	packetsReceived  prometheus.Counter
	neighborFailures prometheus.Counter
	bestCost         *prometheus.GaugeVec
}

func newMetrics(namespace string) *metrics {
	return &metrics{
		packetsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Well-formed inbound messages consumed by the dispatcher.",
		}),
		neighborFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neighbor_failures_total",
			Help:      "Neighbors marked failed by the failure detector.",
		}),
		bestCost: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_cost",
			Help:      "Current best known cost to each destination.",
		}, []string{"self", "dest"}),
	}
}

// observeBest publishes the latest best[] snapshot for node self. Called
// from recompute() while the routing lock is held.
func (m *metrics) observeBest(self NodeID, best map[NodeID]int) {
	for dest, cost := range best {
		if cost >= infCap {
			m.bestCost.WithLabelValues(self.String(), dest.String()).Set(-1)
			continue
		}
		m.bestCost.WithLabelValues(self.String(), dest.String()).Set(float64(cost))
	}
}

// serveMetrics starts a background HTTP server exposing /metrics. It is
// only started when Config.MetricsAddr is non-empty.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
