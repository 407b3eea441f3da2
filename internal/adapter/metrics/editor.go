package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/valo/internal/domain"
)

// EditorMetrics observes edit sessions. It satisfies editor.Observer.
type EditorMetrics struct {
	ActiveSessions   prometheus.Gauge
	PreviewRequests  *prometheus.CounterVec
	PreviewDuration  prometheus.Histogram
	RemoveBgRequests *prometheus.CounterVec
	RemoveBgDuration prometheus.Histogram
	Commits          *prometheus.CounterVec
	Traversals       *prometheus.CounterVec
	Rejections       *prometheus.CounterVec
}

// NewEditorMetrics creates and registers edit-session metrics on the given registry.
func NewEditorMetrics(reg prometheus.Registerer) *EditorMetrics {
	m := &EditorMetrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "active_sessions",
			Help:      "Number of edit sessions held in memory.",
		}),
		PreviewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "preview_requests_total",
			Help:      "Total number of preview renders, by outcome.",
		}, []string{"outcome"}),
		PreviewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "preview_duration_seconds",
			Help:      "Duration of preview renders in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RemoveBgRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "removebg_requests_total",
			Help:      "Total number of background removals, by outcome.",
		}, []string{"outcome"}),
		RemoveBgDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "removebg_duration_seconds",
			Help:      "Duration of background removals in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "commits_total",
			Help:      "Total number of commits, by kind.",
		}, []string{"kind"}),
		Traversals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "history_traversals_total",
			Help:      "Total number of undo and redo steps.",
		}, []string{"direction"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "rejections_total",
			Help:      "Total number of rejected session actions, by operation and reason.",
		}, []string{"op", "reason"}),
	}

	reg.MustRegister(m.ActiveSessions, m.PreviewRequests, m.PreviewDuration, m.RemoveBgRequests,
		m.RemoveBgDuration, m.Commits, m.Traversals, m.Rejections)
	return m
}

func (m *EditorMetrics) PreviewFinished(outcome domain.Outcome, elapsed time.Duration) {
	m.PreviewRequests.WithLabelValues(outcome.String()).Inc()
	if outcome != domain.OutcomeCancelled {
		m.PreviewDuration.Observe(elapsed.Seconds())
	}
}

func (m *EditorMetrics) RemoveBgFinished(outcome domain.Outcome, elapsed time.Duration) {
	m.RemoveBgRequests.WithLabelValues(outcome.String()).Inc()
	if outcome != domain.OutcomeCancelled {
		m.RemoveBgDuration.Observe(elapsed.Seconds())
	}
}

func (m *EditorMetrics) Committed(kind string) {
	m.Commits.WithLabelValues(kind).Inc()
}

func (m *EditorMetrics) Traversed(direction string) {
	m.Traversals.WithLabelValues(direction).Inc()
}

func (m *EditorMetrics) Rejected(op string, err error) {
	m.Rejections.WithLabelValues(op, rejectReason(err)).Inc()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrBlocked):
		return "blocked"
	case errors.Is(err, domain.ErrNoop):
		return "noop"
	case errors.Is(err, domain.ErrCancelled):
		return "cancelled"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	case errors.Is(err, domain.ErrSessionClosed):
		return "closed"
	default:
		return "other"
	}
}
