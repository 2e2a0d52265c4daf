package exec

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/flowpipe/metric"
)

// execMetrics holds Prometheus metrics for pipeline orchestration. All
// methods are nil-safe so an orchestrator without a registry pays nothing.
type execMetrics struct {
	started       prometheus.Counter
	stages        prometheus.Counter
	setupFailures *prometheus.CounterVec
}

// WithMetrics registers orchestration metrics with the framework registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(o *Orchestrator) {
		if registry == nil {
			return
		}
		m, err := newExecMetrics(registry)
		if err != nil {
			o.logger.Error("failed to initialize exec metrics", "error", err)
			return
		}
		o.metrics = m
	}
}

func newExecMetrics(registry *metric.MetricsRegistry) (*execMetrics, error) {
	started := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exec_pipelines_started_total",
		Help: "Total pipelines successfully started",
	})
	stages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exec_stages_started_total",
		Help: "Total stages across successfully started pipelines",
	})
	setupFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exec_setup_failures_total",
		Help: "Total exec calls aborted during setup",
	}, []string{"step"})

	serviceName := "exec"
	if err := registry.RegisterCounter(serviceName, "exec_pipelines_started_total", started); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(serviceName, "exec_stages_started_total", stages); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(serviceName, "exec_setup_failures_total", setupFailures); err != nil {
		return nil, err
	}

	return &execMetrics{
		started:       started,
		stages:        stages,
		setupFailures: setupFailures,
	}, nil
}

func (m *execMetrics) recordStarted(stageCount int) {
	if m == nil {
		return
	}
	m.started.Inc()
	m.stages.Add(float64(stageCount))
}

func (m *execMetrics) recordSetupFailure(step string) {
	if m == nil {
		return
	}
	m.setupFailures.WithLabelValues(step).Inc()
}
