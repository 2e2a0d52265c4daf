package metric

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	err := registry.RegisterCounter("test-component", "test_counter", counter)
	require.NoError(t, err)

	counter.Inc()

	// Verify the counter is registered in the underlying Prometheus registry
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_counter" {
			found = true
			break
		}
	}
	assert.True(t, found, "Counter should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterGauge(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "A test gauge",
	})

	err := registry.RegisterGauge("test-component", "test_gauge", gauge)
	require.NoError(t, err)

	gauge.Set(42.0)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_gauge" {
			found = true
			break
		}
	}
	assert.True(t, found, "Gauge should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterHistogram(t *testing.T) {
	registry := NewMetricsRegistry()

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_histogram",
		Help:    "A test histogram",
		Buckets: prometheus.DefBuckets,
	})

	err := registry.RegisterHistogram("test-component", "test_histogram", histogram)
	require.NoError(t, err)

	histogram.Observe(1.5)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_histogram" {
			found = true
			break
		}
	}
	assert.True(t, found, "Histogram should be registered in Prometheus registry")
}

func TestMetricsRegistry_PreventDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	counter1 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter",
	})

	counter2 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter", // Same help to avoid Prometheus validation error
	})

	// First registration should succeed
	err := registry.RegisterCounter("component1", "duplicate_counter", counter1)
	require.NoError(t, err)

	// Second registration with same name should fail
	err = registry.RegisterCounter("component2", "duplicate_counter", counter2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus conflict")
}

func TestMetricsRegistry_UnregisterMetric(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unregister_counter",
		Help: "A counter to unregister",
	})

	err := registry.RegisterCounter("test-component", "unregister_counter", counter)
	require.NoError(t, err)

	success := registry.Unregister("test-component", "unregister_counter")
	assert.True(t, success)

	// Verify it's no longer registered
	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "unregister_counter" {
			found = true
			break
		}
	}
	assert.False(t, found)

	// Unregistering again reports false
	assert.False(t, registry.Unregister("test-component", "unregister_counter"))
}

func TestMetricsRegistry_ThreadSafety(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: fmt.Sprintf("concurrent_counter_%d", id),
				Help: "A concurrent counter",
			})

			err := registry.RegisterCounter("concurrent-component",
				fmt.Sprintf("concurrent_counter_%d", id), counter)
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	counterCount := 0
	for _, mf := range metricFamilies {
		if hasPrefix(mf.GetName(), "concurrent_counter_") {
			counterCount++
		}
	}

	assert.Equal(t, numGoroutines, counterCount,
		"All concurrent counters should be registered")
}

func TestMetricsRegistrar_Interface(t *testing.T) {
	registry := NewMetricsRegistry()

	var registrar MetricsRegistrar = registry
	assert.NotNil(t, registrar)

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interface_counter",
		Help: "Counter registered through interface",
	})

	err := registrar.RegisterCounter("interface-component", "interface_counter", counter)
	require.NoError(t, err)
}

func TestMetricsRegistry_CoreMetricsInitialization(t *testing.T) {
	registry := NewMetricsRegistry()

	// Vector metrics don't appear in Gather() until they have at least one
	// value set, so record through the core metrics first.
	coreMetrics := registry.CoreMetrics()

	coreMetrics.RecordPipelineStatus("word-count", 2)
	coreMetrics.RecordItemsReceived("word-count", "tokenize", 100)
	coreMetrics.RecordResultDelivered("word-count", "count")
	coreMetrics.RecordLogDelivered("word-count", "count")
	coreMetrics.RecordEOISignal()
	coreMetrics.RecordReceiveTimeout()
	coreMetrics.ObserveProcessingDuration("word-count", "tokenize", 0.005)
	coreMetrics.RecordError("word-count", "validation")
	coreMetrics.RecordNATSHealth(1.0)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	expectedCoreMetrics := []string{
		"flowpipe_pipeline_status",
		"flowpipe_stage_items_received_total",
		"flowpipe_sink_results_delivered_total",
		"flowpipe_sink_logs_delivered_total",
		"flowpipe_sink_eoi_signals_total",
		"flowpipe_sink_receive_timeouts_total",
		"flowpipe_stage_processing_duration_seconds",
		"flowpipe_errors_total",
		"flowpipe_nats_connected",
		"flowpipe_nats_rtt_milliseconds",
		"flowpipe_nats_reconnects_total",
		"flowpipe_nats_circuit_breaker_open",
	}

	foundMetrics := make(map[string]bool)
	for _, mf := range metricFamilies {
		foundMetrics[mf.GetName()] = true
	}

	for _, expectedMetric := range expectedCoreMetrics {
		assert.True(t, foundMetrics[expectedMetric],
			"core metric %s should be initialized", expectedMetric)
	}
}

func TestMetricsRegistry_GetCoreMetrics(t *testing.T) {
	registry := NewMetricsRegistry()

	coreMetrics := registry.CoreMetrics()
	assert.NotNil(t, coreMetrics)

	assert.NotNil(t, coreMetrics.PipelineStatus)
	assert.NotNil(t, coreMetrics.ItemsReceived)
	assert.NotNil(t, coreMetrics.ResultsDelivered)
	assert.NotNil(t, coreMetrics.LogsDelivered)
	assert.NotNil(t, coreMetrics.EOISignals)
	assert.NotNil(t, coreMetrics.ReceiveTimeouts)
	assert.NotNil(t, coreMetrics.ProcessingDuration)
	assert.NotNil(t, coreMetrics.ErrorsTotal)
	assert.NotNil(t, coreMetrics.NATSConnected)
	assert.NotNil(t, coreMetrics.NATSRTT)
	assert.NotNil(t, coreMetrics.NATSReconnects)
	assert.NotNil(t, coreMetrics.NATSCircuitBreaker)
}

func TestCoreMetrics_RecordMethods(t *testing.T) {
	registry := NewMetricsRegistry()
	coreMetrics := registry.CoreMetrics()

	coreMetrics.RecordPipelineStatus("test-pipeline", 2)
	coreMetrics.RecordItemsReceived("test-pipeline", "map", 10)
	coreMetrics.RecordResultDelivered("test-pipeline", "reduce")
	coreMetrics.RecordLogDelivered("test-pipeline", "reduce")
	coreMetrics.RecordEOISignal()
	coreMetrics.RecordReceiveTimeout()
	coreMetrics.ObserveProcessingDuration("test-pipeline", "map", 0.1)
	coreMetrics.RecordError("test-pipeline", "connection")
	coreMetrics.RecordNATSHealth(1)
	coreMetrics.RecordNATSRTT(50)
	coreMetrics.RecordNATSReconnect()
	coreMetrics.RecordCircuitBreakerState(false)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	assert.Greater(t, len(metricFamilies), 0, "Should have recorded metrics")
}

// Helper function to check if a string starts with a prefix
func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
