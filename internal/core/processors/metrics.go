package processors

import (
	"strconv"
	"time"

	"textpilot/internal/core"
	"textpilot/internal/metrics"
)

// MetricsRecorder feeds call pipeline events into Prometheus collectors
type MetricsRecorder struct {
	collectors *metrics.Collectors
}

// NewMetricsRecorder creates a metrics processor
func NewMetricsRecorder(collectors *metrics.Collectors) *MetricsRecorder {
	return &MetricsRecorder{collectors: collectors}
}

// Name returns the processor name
func (m *MetricsRecorder) Name() string {
	return "metrics"
}

// Priority runs after logging
func (m *MetricsRecorder) Priority() int {
	return 100
}

// OnRequest counts the attempt
func (m *MetricsRecorder) OnRequest(ctx *core.CallContext, call *core.Call) error {
	m.collectors.Attempts.WithLabelValues(string(ctx.Backend)).Inc()
	return nil
}

// OnResponse counts the attempt's status; transport failures are recorded as "0"
func (m *MetricsRecorder) OnResponse(ctx *core.CallContext, call *core.Call) error {
	m.collectors.Responses.WithLabelValues(string(ctx.Backend), strconv.Itoa(call.StatusCode)).Inc()
	return nil
}

// OnComplete records the outcome and end-to-end latency
func (m *MetricsRecorder) OnComplete(ctx *core.CallContext, outcome core.Outcome) {
	m.collectors.Outcomes.WithLabelValues(string(ctx.Backend), outcome.Kind.String()).Inc()
	m.collectors.Latency.WithLabelValues(string(ctx.Backend)).Observe(time.Since(ctx.StartTime).Seconds())
}
