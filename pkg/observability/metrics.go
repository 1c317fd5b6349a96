package observability

import (
	"context"
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeRedirected = "redirected"
	OutcomeUnhandled  = "unhandled"
	OutcomeOK         = "ok"
	OutcomeError      = "error"
)

// Metrics holds the runtime collectors.
type Metrics struct {
	Initializations     *prometheus.CounterVec
	PageInitializations prometheus.Counter
	Reports             *prometheus.CounterVec
	Failures            *prometheus.CounterVec
	RenderDuration      *prometheus.HistogramVec
	Restarts            prometheus.Counter
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Initializations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_node_initializations_total",
				Help: "Total number of node initializations",
			},
			[]string{"kind"},
		),
		PageInitializations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_page_initializations_total",
			Help: "Total number of page initializations",
		}),
		Reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_feedback_reports_total",
				Help: "Total number of feedback messages reported",
			},
			[]string{"level"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_failure_dispatches_total",
				Help: "Total number of failures dispatched to behaviors",
			},
			[]string{"outcome"},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbor_render_duration_seconds",
				Help:    "Duration of page renders, restarts included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_render_restarts_total",
			Help: "Total number of render restarts caused by redirects",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Initializations,
		m.PageInitializations,
		m.Reports,
		m.Failures,
		m.RenderDuration,
		m.Restarts,
	}
}

// Register adds every collector to reg. Collectors that are already
// registered are skipped.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInitialize: func(_ context.Context, e *domain.NodeEvent) {
			m.Initializations.WithLabelValues(e.Kind).Inc()
		},
		OnPageInitialize: func(context.Context, *domain.NodeEvent) {
			m.PageInitializations.Inc()
		},
		OnReport: func(_ context.Context, e *domain.ReportEvent) {
			m.Reports.WithLabelValues(e.Level.String()).Inc()
		},
		OnFailure: func(_ context.Context, e *domain.FailureEvent) {
			outcome := OutcomeUnhandled
			if e.Redirected {
				outcome = OutcomeRedirected
			}
			m.Failures.WithLabelValues(outcome).Inc()
		},
		OnPageRender: func(_ context.Context, e *domain.RenderEvent) {
			outcome := OutcomeOK
			if e.Err != nil {
				outcome = OutcomeError
			}
			m.RenderDuration.WithLabelValues(outcome).Observe(e.Duration.Seconds())
			m.Restarts.Add(float64(e.Restarts))
		},
	}
}
