package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters for one invocation of the tool.
type Metrics struct {
	registry *prometheus.Registry

	Deliveries      *prometheus.CounterVec
	CommandRuns     *prometheus.CounterVec
	CommandDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goblin_deliveries_total",
			Help: "Webhook deliveries by result",
		},
		[]string{"result"},
	)

	m.CommandRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goblin_command_runs_total",
			Help: "Monitored commands by final status",
		},
		[]string{"status"},
	)

	m.CommandDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "goblin_command_duration_seconds",
			Help:    "Wall-clock duration of monitored commands",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)

	m.registry.MustRegister(m.Deliveries, m.CommandRuns, m.CommandDuration)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDelivery counts one webhook call.
func (m *Metrics) ObserveDelivery(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.Deliveries.WithLabelValues(result).Inc()
}

// ObserveCommand records a finished subprocess.
func (m *Metrics) ObserveCommand(exitCode int, d time.Duration) {
	status := "success"
	if exitCode != 0 {
		status = "failure"
	}
	m.CommandRuns.WithLabelValues(status).Inc()
	m.CommandDuration.Observe(d.Seconds())
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
