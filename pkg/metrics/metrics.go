// Package metrics exposes Prometheus counters for extraction and delivery.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediapresso"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	extractions *prometheus.CounterVec
	hosted      *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	inFlight    prometheus.Gauge
	bytes       *prometheus.CounterVec
}

// New registers the collectors plus Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extraction attempts by platform, strategy and result.",
		}, []string{"platform", "strategy", "result"}),
		hosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hosted_overrides_total",
			Help:      "Hosted resolution override attempts by result.",
		}, []string{"result"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Deliveries by path and result.",
		}, []string{"path", "result"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deliveries_in_flight",
			Help:      "Deliveries currently streaming.",
		}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivered_bytes_total",
			Help:      "Bytes written to clients by delivery path.",
		}, []string{"path"}),
	}
	m.registry.MustRegister(
		m.extractions, m.hosted, m.deliveries, m.inFlight, m.bytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Extraction(platform, strategy, result string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(platform, strategy, result).Inc()
}

func (m *Metrics) Hosted(result string) {
	if m == nil {
		return
	}
	m.hosted.WithLabelValues(result).Inc()
}

// DeliveryStarted bumps the in-flight gauge. The returned func records the
// result and must be called once.
func (m *Metrics) DeliveryStarted(path string) func(result string) {
	if m == nil {
		return func(string) {}
	}
	m.inFlight.Inc()
	return func(result string) {
		m.inFlight.Dec()
		m.deliveries.WithLabelValues(path, result).Inc()
	}
}

func (m *Metrics) Bytes(path string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.WithLabelValues(path).Add(float64(n))
}
