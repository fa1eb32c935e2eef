package todoist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the task-store client metrics
type Metrics struct {
	Requests   *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	QueueDepth prometheus.Gauge
}

// NewMetrics registers the client metrics on reg. A nil registerer creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todochat",
				Subsystem: "todoist",
				Name:      "requests_total",
				Help:      "Task-store requests by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "todochat",
				Subsystem: "todoist",
				Name:      "request_duration_seconds",
				Help:      "Task-store request latency in seconds, excluding queue wait",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "todochat",
				Subsystem: "todoist",
				Name:      "queue_depth",
				Help:      "Requests waiting in the FIFO queue",
			},
		),
	}
}

// Outcome labels
const (
	outcomeSuccess     = "success"
	outcomeRateLimited = "rate_limited"
	outcomeInvalid     = "invalid_response"
	outcomeError       = "error"
	outcomeSkipped     = "skipped" // cancelled before dispatch
)
