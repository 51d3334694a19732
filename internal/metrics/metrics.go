// Package metrics exposes Prometheus instrumentation for reconciliation and
// the mutation paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconcile pass results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Guard rejection reasons.
const (
	ReasonPermission  = "permission"
	ReasonPolicy      = "policy"
	ReasonNotEligible = "not_eligible"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ReconcilePasses   *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
	ReconciledMembers prometheus.Gauge
	GuardRejections   *prometheus.CounterVec
	SurveyUpdates     *prometheus.CounterVec
	DeletionRequests  *prometheus.CounterVec
	DocumentsDeleted  prometheus.Counter
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReconcilePasses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_reconcile_passes_total",
			Help: "Total number of reconciliation passes by result",
		}, []string{"result"}),
		ReconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dossier_reconcile_duration_seconds",
			Help:    "Duration of reconciliation passes",
			Buckets: prometheus.DefBuckets,
		}),
		ReconciledMembers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dossier_reconciled_members",
			Help: "Number of member views in the published snapshot",
		}),
		GuardRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_guard_rejections_total",
			Help: "Total number of rejected mutations by reason",
		}, []string{"reason"}),
		SurveyUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_survey_updates_total",
			Help: "Total number of survey state updates by mode",
		}, []string{"mode"}),
		DeletionRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dossier_deletion_requests_total",
			Help: "Total number of deletion requests by resulting status",
		}, []string{"status"}),
		DocumentsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "dossier_documents_deleted_total",
			Help: "Total number of documents deleted",
		}),
	}
}

// ObserveReconcile records one pass. Safe on a nil receiver.
func (m *Metrics) ObserveReconcile(d time.Duration, members int, err error) {
	if m == nil {
		return
	}
	m.ReconcileDuration.Observe(d.Seconds())
	if err != nil {
		m.ReconcilePasses.WithLabelValues(ResultFailure).Inc()
		return
	}
	m.ReconcilePasses.WithLabelValues(ResultSuccess).Inc()
	m.ReconciledMembers.Set(float64(members))
}

func (m *Metrics) IncrementGuardRejection(reason string) {
	if m == nil {
		return
	}
	m.GuardRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementSurveyUpdates(mode string, n int) {
	if m == nil {
		return
	}
	m.SurveyUpdates.WithLabelValues(mode).Add(float64(n))
}

func (m *Metrics) IncrementDeletionRequests(status string) {
	if m == nil {
		return
	}
	m.DeletionRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementDocumentsDeleted() {
	if m == nil {
		return
	}
	m.DocumentsDeleted.Inc()
}
