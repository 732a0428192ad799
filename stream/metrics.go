package stream

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics about parsing.
//
// Metrics exposed (all namespaced with "langgraph_stream_"):
//
//  1. chunks_total (counter): raw chunks handed to a mode handler.
//     Labels: mode (updates, messages).
//  2. events_total (counter): events yielded to the consumer.
//     Labels: type (content, tool_call_start, ..., error).
//  3. skipped_chunks_total (counter): chunks ignored by a handler.
//     Labels: reason (not_envelope, unknown_mode, not_mapping, not_ai_chunk).
//  4. dropped_tool_ends_total (counter): tool results with no pending start.
//  5. extraction_failures_total (counter): extractor panics, swallowed.
//     Labels: tool.
//  6. tool_duration_ms (histogram): time between a tool call's start and end.
//     Labels: tool, status (success, error).
//  7. pending_tool_calls (gauge): started tool calls awaiting their result.
//  8. stream_errors_total (counter): parses that ended with an Error event.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := stream.NewMetrics(registry)
//	parser, err := stream.New(stream.WithMetrics(metrics))
//
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	chunks       *prometheus.CounterVec
	events       *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	droppedEnds  prometheus.Counter
	extractFails *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	pendingCalls prometheus.Gauge
	streamErrors prometheus.Counter

	mu      sync.RWMutex
	enabled bool
}

// NewMetrics creates the parser metrics and registers them with registry. A
// nil registry means prometheus.DefaultRegisterer. Registering twice with the
// same registry panics, as with any promauto collector.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)
	const ns = "langgraph_stream"

	return &Metrics{
		enabled: true,

		chunks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "chunks_total",
			Help:      "Raw chunks processed, by stream mode",
		}, []string{"mode"}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "events_total",
			Help:      "Events yielded to consumers, by event type",
		}, []string{"type"}),

		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "skipped_chunks_total",
			Help:      "Chunks ignored because of their shape",
		}, []string{"reason"}),

		droppedEnds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "dropped_tool_ends_total",
			Help:      "Tool results dropped because no matching tool call start was pending",
		}),

		extractFails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "extraction_failures_total",
			Help:      "Extractor panics recovered and treated as no match",
		}, []string{"tool"}),

		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "tool_duration_ms",
			Help:      "Time between a tool call start and its result in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		}, []string{"tool", "status"}),

		pendingCalls: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "pending_tool_calls",
			Help:      "Tool calls started but not yet ended",
		}),

		streamErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "stream_errors_total",
			Help:      "Parses that ended with an error event",
		}),
	}
}

func (m *Metrics) on() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

func (m *Metrics) chunk(mode Mode) {
	if m.on() {
		m.chunks.WithLabelValues(string(mode)).Inc()
	}
}

func (m *Metrics) event(typ string) {
	if m.on() {
		m.events.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) skip(reason string) {
	if m.on() {
		m.skipped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) droppedEnd() {
	if m.on() {
		m.droppedEnds.Inc()
	}
}

func (m *Metrics) extractionFailure(tool string) {
	if m.on() {
		m.extractFails.WithLabelValues(tool).Inc()
	}
}

func (m *Metrics) toolEnded(tool, status string, ms float64) {
	if m.on() {
		m.toolDuration.WithLabelValues(tool, status).Observe(ms)
	}
}

func (m *Metrics) pending(n int) {
	if m.on() {
		m.pendingCalls.Set(float64(n))
	}
}

func (m *Metrics) streamError() {
	if m.on() {
		m.streamErrors.Inc()
	}
}

// Disable temporarily disables metric recording (useful for testing).
func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enable re-enables metric recording after Disable().
func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}
