package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DraftRecoveryOffered   = "offered"
	DraftRecoveryEmpty     = "empty"
	DraftRecoveryCorrupt   = "corrupt"
	DraftRecoveryDiscarded = "discarded"
	DraftRecoveryReadError = "read_error"
)

const (
	CommitResultOK         = "ok"
	CommitResultValidation = "validation"
	CommitResultStore      = "store_error"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// EditorMetrics records invoice editor autosave, recovery, commit and export signals.
type EditorMetrics struct {
	draftWrites    *prometheus.CounterVec
	draftRecovery  *prometheus.CounterVec
	commits        *prometheus.CounterVec
	exportJobs     *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	exportsActive  prometheus.Gauge
}

func NewEditorMetrics(registerer prometheus.Registerer, cfg Config) *EditorMetrics {
	return newEditorMetrics(registerer, cfg)
}

func newEditorMetrics(registerer prometheus.Registerer, cfg Config) *EditorMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	return &EditorMetrics{
		draftWrites: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flowdesk_draft_writes_total",
			Help:        "Draft autosave writes by result.",
			ConstLabels: labels,
		}, []string{"result"})),
		draftRecovery: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flowdesk_draft_recovery_total",
			Help:        "Editor session initializations by recovery outcome.",
			ConstLabels: labels,
		}, []string{"outcome"})),
		commits: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flowdesk_draft_commits_total",
			Help:        "Draft commit attempts by result.",
			ConstLabels: labels,
		}, []string{"result"})),
		exportJobs: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flowdesk_export_jobs_total",
			Help:        "Finished PDF export jobs by terminal status.",
			ConstLabels: labels,
		}, []string{"status"})),
		exportDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "flowdesk_export_duration_seconds",
			Help:        "Wall time from export start to terminal status.",
			Buckets:     []float64{0.5, 1, 1.5, 2, 3, 5, 10, 30},
			ConstLabels: labels,
		}, []string{"status"})),
		exportsActive: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "flowdesk_exports_in_flight",
			Help:        "Export jobs that have not reached a terminal status.",
			ConstLabels: labels,
		})),
	}
}

func (m *EditorMetrics) DraftWrite(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.draftWrites.WithLabelValues(result).Inc()
}

func (m *EditorMetrics) DraftRecovery(outcome string) {
	if m == nil {
		return
	}
	m.draftRecovery.WithLabelValues(outcome).Inc()
}

func (m *EditorMetrics) Commit(result string) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(result).Inc()
}

func (m *EditorMetrics) ExportStarted() {
	if m == nil {
		return
	}
	m.exportsActive.Inc()
}

func (m *EditorMetrics) ExportFinished(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exportsActive.Dec()
	m.exportJobs.WithLabelValues(status).Inc()
	m.exportDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}
