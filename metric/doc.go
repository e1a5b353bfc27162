// Package metric provides Prometheus-based metrics collection and an HTTP
// server for observing the classification and binding pipeline.
//
// The package offers a centralized metrics registry managing both core
// pipeline metrics (probes, handle creation, bound operation calls, channel
// health) and custom component-specific metrics. It includes an HTTP server
// exposing metrics in Prometheus format for monitoring system integration.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Pipeline-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// This separates infrastructure concerns (core metrics) from component
// concerns (component-specific metrics) while providing a unified metrics
// endpoint for monitoring systems.
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
//	// Record core pipeline metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordProbe("ok", 12*time.Millisecond)
//	coreMetrics.RecordHandleCreated("ok")
//	coreMetrics.RecordOperationCall("Product", "ok", 3*time.Millisecond)
//
// The metrics server exposes Prometheus-formatted metrics at
// http://localhost:9090/metrics and a health check at
// http://localhost:9090/health.
//
// # Core Metrics
//
// The package automatically registers core pipeline metrics tracking:
//
//   - Classification: probe_total, probe_duration_seconds, probe_cache_hits_total,
//     probe_cache_misses_total, handle_created_total
//   - Operations: operation_calls_total, operation_duration_seconds,
//     operation_unimplemented_total
//   - Transports: channel_connected, channel_reconnects_total,
//     channel_rtt_milliseconds, channel_circuit_breaker
//
// All metrics live under the "semalign" namespace.
//
// # Component-Specific Metrics
//
// Components can register custom metrics through the registry:
//
//	hits := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "alignment_documents_loaded_total",
//	    Help: "Total number of alignment documents loaded",
//	})
//	err := registry.RegisterCounter("alignment", "documents_loaded_total", hits)
//
// Registration is keyed by (component, metric name): a second registration
// under the same key fails with an invalid-classified error, as does a
// Prometheus-level name conflict. Vector variants (RegisterCounterVec,
// RegisterGaugeVec, RegisterHistogramVec) follow the same rules.
//
// # Thread Safety
//
// All registry operations are safe for concurrent use. Recording methods on
// Metrics delegate to Prometheus collectors, which are themselves
// goroutine-safe.
package metric
