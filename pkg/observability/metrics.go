package observability

import (
	"context"
	"errors"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "tabi"

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	Runs            *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Workflow runs by terminal stage.",
			},
			[]string{"outcome"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each workflow stage.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage", "status"},
		),
		ProviderCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "provider_calls_total",
				Help:      "Search provider calls by result.",
			},
			[]string{"provider", "status"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "provider_duration_seconds",
				Help:      "Search provider latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.StageDuration, m.ProviderCalls, m.ProviderLatency)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			if e.Stage.Terminal() {
				m.Runs.WithLabelValues(string(e.Stage)).Inc()
			}
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			m.StageDuration.WithLabelValues(string(e.Stage), status(e.Err)).Observe(e.Elapsed.Seconds())
		},
		OnProviderReturn: func(_ context.Context, e *domain.ProviderEvent) {
			m.ProviderCalls.WithLabelValues(e.Provider, status(e.Err)).Inc()
			m.ProviderLatency.WithLabelValues(e.Provider).Observe(e.Elapsed.Seconds())
		},
	}
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
