package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not behavior-specific)
type Metrics struct {
	// Pipeline metrics
	PipelineStatus     *prometheus.GaugeVec
	ItemsReceived      *prometheus.CounterVec
	ResultsDelivered   *prometheus.CounterVec
	LogsDelivered      *prometheus.CounterVec
	EOISignals         prometheus.Counter
	ReceiveTimeouts    prometheus.Counter
	ProcessingDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec

	// NATS metrics
	NATSConnected      prometheus.Gauge
	NATSRTT            prometheus.Gauge
	NATSReconnects     prometheus.Counter
	NATSCircuitBreaker prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PipelineStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "flowpipe",
				Subsystem: "pipeline",
				Name:      "status",
				Help:      "Pipeline status (0=stopped, 1=starting, 2=running, 3=draining, 4=failed)",
			},
			[]string{"pipeline"},
		),

		ItemsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowpipe",
				Subsystem: "stage",
				Name:      "items_received_total",
				Help:      "Total number of input items received by a stage",
			},
			[]string{"pipeline", "stage"},
		),

		ResultsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowpipe",
				Subsystem: "sink",
				Name:      "results_delivered_total",
				Help:      "Total number of results delivered to sinks",
			},
			[]string{"pipeline", "stage"},
		),

		LogsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowpipe",
				Subsystem: "sink",
				Name:      "logs_delivered_total",
				Help:      "Total number of log entries delivered to sinks",
			},
			[]string{"pipeline", "stage"},
		),

		EOISignals: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "flowpipe",
				Subsystem: "sink",
				Name:      "eoi_signals_total",
				Help:      "Total number of end-of-input signals delivered to sinks",
			},
		),

		ReceiveTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "flowpipe",
				Subsystem: "sink",
				Name:      "receive_timeouts_total",
				Help:      "Total number of bounded waits that elapsed with no matching traffic",
			},
		),

		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowpipe",
				Subsystem: "stage",
				Name:      "processing_duration_seconds",
				Help:      "Item processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "stage"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowpipe",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"pipeline", "type"},
		),

		// NATS metrics
		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "flowpipe",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "flowpipe",
				Subsystem: "nats",
				Name:      "rtt_milliseconds",
				Help:      "NATS round-trip time in milliseconds",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "flowpipe",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),

		NATSCircuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "flowpipe",
				Subsystem: "nats",
				Name:      "circuit_breaker_open",
				Help:      "NATS circuit breaker status (0=closed, 1=open)",
			},
		),
	}
}

// RecordPipelineStatus records the status of a pipeline
func (m *Metrics) RecordPipelineStatus(pipeline string, status float64) {
	m.PipelineStatus.WithLabelValues(pipeline).Set(status)
}

// RecordItemsReceived increments the count of items received by a stage
func (m *Metrics) RecordItemsReceived(pipeline, stage string, count float64) {
	m.ItemsReceived.WithLabelValues(pipeline, stage).Add(count)
}

// RecordResultDelivered increments the count of results delivered to sinks
func (m *Metrics) RecordResultDelivered(pipeline, stage string) {
	m.ResultsDelivered.WithLabelValues(pipeline, stage).Inc()
}

// RecordLogDelivered increments the count of log entries delivered to sinks
func (m *Metrics) RecordLogDelivered(pipeline, stage string) {
	m.LogsDelivered.WithLabelValues(pipeline, stage).Inc()
}

// RecordEOISignal increments the count of end-of-input signals
func (m *Metrics) RecordEOISignal() {
	m.EOISignals.Inc()
}

// RecordReceiveTimeout increments the count of elapsed bounded waits
func (m *Metrics) RecordReceiveTimeout() {
	m.ReceiveTimeouts.Inc()
}

// ObserveProcessingDuration records item processing time for a stage
func (m *Metrics) ObserveProcessingDuration(pipeline, stage string, seconds float64) {
	m.ProcessingDuration.WithLabelValues(pipeline, stage).Observe(seconds)
}

// RecordError increments the error count for a pipeline and error type
func (m *Metrics) RecordError(pipeline, errorType string) {
	m.ErrorsTotal.WithLabelValues(pipeline, errorType).Inc()
}

// RecordNATSHealth records the NATS connection health status
func (m *Metrics) RecordNATSHealth(status float64) {
	m.NATSConnected.Set(status)
}

// RecordNATSRTT records the NATS round-trip time in milliseconds
func (m *Metrics) RecordNATSRTT(ms float64) {
	m.NATSRTT.Set(ms)
}

// RecordNATSReconnect increments the NATS reconnection count
func (m *Metrics) RecordNATSReconnect() {
	m.NATSReconnects.Inc()
}

// RecordCircuitBreakerState records whether the NATS circuit breaker is open
func (m *Metrics) RecordCircuitBreakerState(open bool) {
	if open {
		m.NATSCircuitBreaker.Set(1)
	} else {
		m.NATSCircuitBreaker.Set(0)
	}
}
