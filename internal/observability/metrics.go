package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	clientCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "respkit",
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Total commands sent.",
		},
		[]string{"command", "status"},
	)
	clientCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "respkit",
			Subsystem: "client",
			Name:      "command_duration_seconds",
			Help:      "Command round trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command", "status"},
	)
	clientPipelines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "respkit",
			Subsystem: "client",
			Name:      "pipelines_total",
			Help:      "Total pipeline flushes.",
		},
		[]string{"status"},
	)
	clientPipelineSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "respkit",
			Subsystem: "client",
			Name:      "pipeline_batch_size",
			Help:      "Commands per pipeline flush.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	serverConnections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "respkit",
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total accepted connections.",
		},
	)
	serverCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "respkit",
			Subsystem: "server",
			Name:      "commands_total",
			Help:      "Total commands dispatched.",
		},
		[]string{"command", "status"},
	)
)

// Metric status labels shared by client and server recorders.
const (
	StatusOK             = "ok"
	StatusServerError    = "server_error"
	StatusTransportError = "transport_error"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			clientCommands,
			clientCommandDuration,
			clientPipelines,
			clientPipelineSize,
			serverConnections,
			serverCommands,
		)
	})
}

func RecordCommand(command, status string, duration time.Duration) {
	RegisterMetrics()
	clientCommands.WithLabelValues(command, status).Inc()
	clientCommandDuration.WithLabelValues(command, status).Observe(duration.Seconds())
}

func RecordPipeline(status string, size int) {
	RegisterMetrics()
	clientPipelines.WithLabelValues(status).Inc()
	clientPipelineSize.Observe(float64(size))
}

func RecordConnection() {
	RegisterMetrics()
	serverConnections.Inc()
}

func RecordServerCommand(command, status string) {
	RegisterMetrics()
	serverCommands.WithLabelValues(command, status).Inc()
}
