package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all pipeline-level metrics (not component-specific)
type Metrics struct {
	// Classification metrics
	ProbesTotal      *prometheus.CounterVec
	ProbeDuration    prometheus.Histogram
	ProbeCacheHits   prometheus.Counter
	ProbeCacheMisses prometheus.Counter
	HandlesCreated   *prometheus.CounterVec

	// Operation metrics
	OperationCalls     *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	UnimplementedCalls *prometheus.CounterVec

	// Transport metrics
	ChannelConnected      *prometheus.GaugeVec
	ChannelReconnects     *prometheus.CounterVec
	ChannelRTT            *prometheus.GaugeVec
	ChannelCircuitBreaker *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Classification metrics
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semalign",
				Subsystem: "probe",
				Name:      "total",
				Help:      "Total number of property probes issued",
			},
			[]string{"status"},
		),

		ProbeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "semalign",
				Subsystem: "probe",
				Name:      "duration_seconds",
				Help:      "Property probe duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		ProbeCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "semalign",
				Subsystem: "probe",
				Name:      "cache_hits_total",
				Help:      "Total number of probe results served from cache",
			},
		),

		ProbeCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "semalign",
				Subsystem: "probe",
				Name:      "cache_misses_total",
				Help:      "Total number of probe cache misses",
			},
		),

		HandlesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semalign",
				Subsystem: "handle",
				Name:      "created_total",
				Help:      "Total number of handle creations by outcome",
			},
			[]string{"status"},
		),

		// Operation metrics
		OperationCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semalign",
				Subsystem: "operation",
				Name:      "calls_total",
				Help:      "Total number of bound operation calls",
			},
			[]string{"operation", "status"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "semalign",
				Subsystem: "operation",
				Name:      "duration_seconds",
				Help:      "Bound operation call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		UnimplementedCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semalign",
				Subsystem: "operation",
				Name:      "unimplemented_total",
				Help:      "Total number of calls to operations with no external binding",
			},
			[]string{"operation", "category"},
		),

		// Transport metrics
		ChannelConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "semalign",
				Subsystem: "channel",
				Name:      "connected",
				Help:      "Channel connection status (0=disconnected, 1=connected)",
			},
			[]string{"transport"},
		),

		ChannelReconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semalign",
				Subsystem: "channel",
				Name:      "reconnects_total",
				Help:      "Total number of channel reconnections",
			},
			[]string{"transport"},
		),

		ChannelRTT: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "semalign",
				Subsystem: "channel",
				Name:      "rtt_milliseconds",
				Help:      "Channel round-trip time in milliseconds",
			},
			[]string{"transport"},
		),

		ChannelCircuitBreaker: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "semalign",
				Subsystem: "channel",
				Name:      "circuit_breaker",
				Help:      "Channel circuit breaker status (0=closed, 1=open, 2=half-open)",
			},
			[]string{"transport"},
		),
	}
}

// RecordProbe records one probe outcome and its duration
func (c *Metrics) RecordProbe(status string, duration time.Duration) {
	c.ProbesTotal.WithLabelValues(status).Inc()
	c.ProbeDuration.Observe(duration.Seconds())
}

// RecordProbeCacheHit increments the probe cache hit counter
func (c *Metrics) RecordProbeCacheHit() {
	c.ProbeCacheHits.Inc()
}

// RecordProbeCacheMiss increments the probe cache miss counter
func (c *Metrics) RecordProbeCacheMiss() {
	c.ProbeCacheMisses.Inc()
}

// RecordHandleCreated increments the handle creation counter
func (c *Metrics) RecordHandleCreated(status string) {
	c.HandlesCreated.WithLabelValues(status).Inc()
}

// RecordOperationCall records one bound operation call
func (c *Metrics) RecordOperationCall(operation, status string, duration time.Duration) {
	c.OperationCalls.WithLabelValues(operation, status).Inc()
	c.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordUnimplementedCall increments the unimplemented operation counter
func (c *Metrics) RecordUnimplementedCall(operation, category string) {
	c.UnimplementedCalls.WithLabelValues(operation, category).Inc()
}

// RecordChannelStatus updates channel connection status
func (c *Metrics) RecordChannelStatus(transport string, connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.ChannelConnected.WithLabelValues(transport).Set(value)
}

// RecordChannelReconnect increments the reconnection counter
func (c *Metrics) RecordChannelReconnect(transport string) {
	c.ChannelReconnects.WithLabelValues(transport).Inc()
}

// RecordChannelRTT updates channel round-trip time
func (c *Metrics) RecordChannelRTT(transport string, rtt time.Duration) {
	c.ChannelRTT.WithLabelValues(transport).Set(float64(rtt.Milliseconds()))
}

// RecordCircuitBreakerState updates circuit breaker status
func (c *Metrics) RecordCircuitBreakerState(transport string, state int) {
	c.ChannelCircuitBreaker.WithLabelValues(transport).Set(float64(state))
}
