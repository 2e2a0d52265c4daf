// Package metric provides Prometheus-based metrics collection and HTTP server
// for pipeline monitoring and observability.
//
// The package offers a centralized metrics registry managing both core platform
// metrics (pipeline status, stage throughput, sink delivery, NATS health) and
// custom component-specific metrics. It includes an HTTP server exposing
// metrics in Prometheus format for monitoring system integration.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Platform-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && err != http.ErrServerClosed {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core platform metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordPipelineStatus("word-count", 2)
//	coreMetrics.RecordItemsReceived("word-count", "tokenize", 1500)
//	coreMetrics.RecordNATSHealth(1.0)
//
// # Core Metrics
//
// The package automatically registers core platform metrics tracking:
//
//   - Pipeline lifecycle: pipeline_status (0=stopped, 1=starting, 2=running, 3=draining, 4=failed)
//   - Stage throughput: stage_items_received_total, stage_processing_duration_seconds
//   - Sink delivery: sink_results_delivered_total, sink_logs_delivered_total,
//     sink_eoi_signals_total, sink_receive_timeouts_total
//   - NATS connectivity: nats_connected, nats_rtt_milliseconds, nats_reconnects_total
//   - Error tracking: errors_total
//
// # Component-Specific Metrics
//
// Components can register custom metrics through the registry:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "builds_total",
//	    Help: "Total number of pipeline builds",
//	})
//	if err := registry.RegisterCounter("exec", "builds_total", counter); err != nil {
//	    return err
//	}
//
// Registration is keyed by (component, metric) pairs; duplicate registrations
// return a classified Invalid error rather than panicking. The MetricsRegistrar
// interface allows components to accept any registry implementation, which
// simplifies testing with registry doubles.
package metric
