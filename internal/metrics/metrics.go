// Package metrics exposes record store activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics implements store.Observer. Each instance owns its registry so
// tests and multiple stores never collide on registration.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	records    prometheus.Gauge
}

// New creates and registers the collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "students",
			Name:      "store_operations_total",
			Help:      "Record store operations by name and result.",
		}, []string{"op", "result"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "students",
			Name:      "store_records",
			Help:      "Number of records currently held by the store.",
		}),
	}
	m.registry.MustRegister(
		m.operations,
		m.records,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation counts one finished operation.
func (m *Metrics) ObserveOperation(op string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// SetRecordCount records the current store size.
func (m *Metrics) SetRecordCount(n int) {
	m.records.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
