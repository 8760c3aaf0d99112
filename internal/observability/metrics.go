package observability

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the session's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	callLatency *prometheus.HistogramVec
	reconciled  *prometheus.CounterVec
	storeSize   prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		callLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eis_classifier_call_latency_ms",
				Help:    "Classification service call latency in milliseconds",
				Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
			},
			[]string{"endpoint", "status"},
		),
		reconciled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eis_reconciled_tasks_total",
				Help: "Tasks processed by reconciliation, by outcome",
			},
			[]string{"outcome"},
		),
		storeSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "eis_store_tasks",
			Help: "Number of tasks currently in the session store",
		}),
	}
}

// ObserveCall records one classification service round trip.
func (m *Metrics) ObserveCall(endpoint, status string, latency time.Duration) {
	m.callLatency.WithLabelValues(endpoint, status).Observe(float64(latency.Milliseconds()))
}

// AddReconciled counts n tasks with the given outcome.
func (m *Metrics) AddReconciled(outcome string, n int) {
	if n <= 0 {
		return
	}
	m.reconciled.WithLabelValues(outcome).Add(float64(n))
}

// SetStoreSize records the current number of stored tasks.
func (m *Metrics) SetStoreSize(n int) {
	m.storeSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Summary flattens the registry into "name{label=value,...}" keys. Histograms
// contribute _count and _sum entries.
func (m *Metrics) Summary() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	out := make(map[string]float64)
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			key := fam.GetName() + formatLabels(metric.GetLabel())
			switch fam.GetType() {
			case dto.MetricType_COUNTER:
				out[key] = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				out[key] = metric.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				out[fam.GetName()+"_count"+formatLabels(metric.GetLabel())] = float64(h.GetSampleCount())
				out[fam.GetName()+"_sum"+formatLabels(metric.GetLabel())] = h.GetSampleSum()
			}
		}
	}
	return out, nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.GetName()+"="+l.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
