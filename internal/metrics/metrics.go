// Package metrics exposes Prometheus instruments for reconciliation and
// geo-correlation. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reconciliation core.
type Metrics struct {
	// Reconciliations by resulting status (Verified, Rejected) or "error"
	Reconciliations *prometheus.CounterVec

	// Distribution of stored risk scores
	RiskScore prometheus.Histogram

	// End-to-end reconciliation latency
	ReconcileLatency prometheus.Histogram

	// Geo resolutions by outcome
	GeoResolutions *prometheus.CounterVec
}

// New registers all instruments on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_reconciliations_total",
			Help: "Total reconciliation runs by resulting status",
		}, []string{"status"}),

		RiskScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconcile_risk_score",
			Help:    "Risk score (0-100) of completed reconciliations",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		ReconcileLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconcile_duration_seconds",
			Help:    "Duration of a reconciliation including canonical lookups and the result write",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		GeoResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_geo_resolutions_total",
			Help: "Geo resolutions by outcome",
		}, []string{"outcome"}), // resolved, not_found, incomplete_input, no_coordinates, error
	}
}

// ObserveReconciliation records one finished reconciliation.
func (m *Metrics) ObserveReconciliation(status string, riskScore float64, d time.Duration) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(status).Inc()
	m.RiskScore.Observe(riskScore)
	m.ReconcileLatency.Observe(d.Seconds())
}

// IncrementReconcileError records a reconciliation that did not produce a result.
func (m *Metrics) IncrementReconcileError() {
	if m != nil {
		m.Reconciliations.WithLabelValues("error").Inc()
	}
}

// IncrementGeo records a geo resolution outcome.
func (m *Metrics) IncrementGeo(outcome string) {
	if m != nil {
		m.GeoResolutions.WithLabelValues(outcome).Inc()
	}
}
