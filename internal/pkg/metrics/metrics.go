// Package metrics exposes the service's Prometheus collectors. Metrics
// implements the observer hooks of the funnel, the orchestrator and checkout.
package metrics

import (
	"net/http"
	"time"

	"desirefinder-be/pkg/agent/orchestrator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "desirefinder"

type Metrics struct {
	registry *prometheus.Registry

	turns         *prometheus.CounterVec
	turnDuration  *prometheus.HistogramVec
	funnelStages  *prometheus.CounterVec
	visionVerdict *prometheus.CounterVec
	sourceErrors  *prometheus.CounterVec
	revalidations *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Chat turns by final state and the state a failed turn stopped in.",
		}, []string{"outcome", "failed_in"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time from classification to the terminal event.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"outcome"}),
		funnelStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "funnel_candidates_total",
			Help:      "Candidates surviving each vetting stage.",
		}, []string{"stage"}),
		visionVerdict: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_verdicts_total",
			Help:      "Image judge verdicts.",
		}, []string{"verdict"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplier_errors_total",
			Help:      "Supplier searches that failed after retries.",
		}, []string{"source"}),
		revalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revalidations_total",
			Help:      "Purchase-time price checks by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.turns,
		m.turnDuration,
		m.funnelStages,
		m.visionVerdict,
		m.sourceErrors,
		m.revalidations,
	)
	return m
}

// TrackLiveSessions samples fn on every scrape.
func (m *Metrics) TrackLiveSessions(fn func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sessions",
		Help:      "Sessions currently held by the registry.",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) TurnFinished(final orchestrator.State, failedIn orchestrator.State, elapsed time.Duration) {
	stage := string(failedIn)
	if stage == "" {
		stage = "none"
	}
	m.turns.WithLabelValues(string(final), stage).Inc()
	m.turnDuration.WithLabelValues(string(final)).Observe(elapsed.Seconds())
}

func (m *Metrics) StageCount(stage string, n int) {
	m.funnelStages.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) VisionVerdict(verdict string) {
	m.visionVerdict.WithLabelValues(verdict).Inc()
}

func (m *Metrics) SourceError(source string) {
	m.sourceErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) RevalidationOutcome(outcome string) {
	m.revalidations.WithLabelValues(outcome).Inc()
}
