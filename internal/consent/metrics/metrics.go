package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for consent operations.
type Metrics struct {
	DecisionsRecorded       *prometheus.CounterVec
	ConsentsCleared         prometheus.Counter
	BannerImpressions       prometheus.Counter
	CorruptRecordsRecovered prometheus.Counter
	ActiveConsents          prometheus.Gauge
	DecisionLatency         prometheus.Histogram
	StoreOperationLatency   *prometheus.HistogramVec
}

// New registers and returns consent metrics collectors.
func New() *Metrics {
	return &Metrics{
		DecisionsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "physioflow_consent_decisions_total",
			Help: "Total number of consent decisions recorded, labeled by action",
		}, []string{"action"}),
		ConsentsCleared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "physioflow_consents_cleared_total",
			Help: "Total number of consent records cleared via manage-cookies",
		}),
		BannerImpressions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "physioflow_consent_banner_impressions_total",
			Help: "Total number of times the consent banner became visible",
		}),
		CorruptRecordsRecovered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "physioflow_consent_corrupt_records_recovered_total",
			Help: "Total number of corrupt stored records discarded on load",
		}),
		ActiveConsents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "physioflow_active_consents",
			Help: "Current number of clients with a stored consent record",
		}),
		DecisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "physioflow_consent_decision_latency_seconds",
			Help:    "Latency of consent decision commits in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		StoreOperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "physioflow_consent_store_operation_latency_seconds",
			Help:    "Latency of consent store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementDecisionsRecorded(action string) {
	m.DecisionsRecorded.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementConsentsCleared() {
	m.ConsentsCleared.Inc()
}

func (m *Metrics) IncrementBannerImpressions() {
	m.BannerImpressions.Inc()
}

func (m *Metrics) IncrementCorruptRecordsRecovered() {
	m.CorruptRecordsRecovered.Inc()
}

func (m *Metrics) IncrementActiveConsents() {
	m.ActiveConsents.Inc()
}

func (m *Metrics) DecrementActiveConsents() {
	m.ActiveConsents.Dec()
}

func (m *Metrics) ObserveDecisionLatency(durationSeconds float64) {
	m.DecisionLatency.Observe(durationSeconds)
}

// ObserveStoreOperationLatency records the latency of a store operation.
func (m *Metrics) ObserveStoreOperationLatency(operation string, durationSeconds float64) {
	m.StoreOperationLatency.WithLabelValues(operation).Observe(durationSeconds)
}
