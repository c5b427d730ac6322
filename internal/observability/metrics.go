package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects command dispatch and completion measurements. It
// satisfies commands.Recorder.
//
// Usage:
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	core, err := commands.New(def, commands.WithRecorder(metrics))
type Metrics struct {
	// DispatchCounter counts dispatches.
	// Labels: root, sub, outcome (executed|usage|help|no_permission|...)
	DispatchCounter *prometheus.CounterVec

	// DispatchDuration measures dispatch latency in seconds.
	// Labels: root
	// Buckets: 0.0001s .. 1s
	DispatchDuration *prometheus.HistogramVec

	// CompletionCounter counts tab-completion requests.
	// Labels: root
	CompletionCounter *prometheus.CounterVec

	// CompletionSuggestions measures how many suggestions were returned.
	// Labels: root
	CompletionSuggestions *prometheus.HistogramVec

	// ConfigErrorCounter counts sub-commands that could not be built.
	// Labels: root, sub
	ConfigErrorCounter *prometheus.CounterVec

	// UnknownCommandCounter counts lines whose root label is not registered.
	UnknownCommandCounter prometheus.Counter

	// RegisteredCommands tracks registered root commands.
	RegisteredCommands prometheus.Gauge
}

// NewMetrics creates and registers all metrics with reg. A nil reg uses the
// Prometheus default registerer. Call it once per registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DispatchCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmdtree_dispatch_total",
				Help: "Total number of command dispatches by root, sub-command and outcome",
			},
			[]string{"root", "sub", "outcome"},
		),

		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cmdtree_dispatch_duration_seconds",
				Help:    "Duration of command dispatches in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"root"},
		),

		CompletionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmdtree_completions_total",
				Help: "Total number of tab-completion requests by root",
			},
			[]string{"root"},
		),

		CompletionSuggestions: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cmdtree_completion_suggestions",
				Help:    "Number of suggestions returned per tab-completion request",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"root"},
		),

		ConfigErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmdtree_config_errors_total",
				Help: "Total number of sub-commands that could not be instantiated",
			},
			[]string{"root", "sub"},
		),

		UnknownCommandCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cmdtree_unknown_commands_total",
				Help: "Total number of command lines with an unregistered root label",
			},
		),

		RegisteredCommands: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cmdtree_registered_commands",
				Help: "Number of registered root commands",
			},
		),
	}
}

// RecordDispatch records one dispatch.
func (m *Metrics) RecordDispatch(root, sub, outcome string, elapsed time.Duration) {
	m.DispatchCounter.WithLabelValues(root, sub, outcome).Inc()
	m.DispatchDuration.WithLabelValues(root).Observe(elapsed.Seconds())
}

// RecordCompletion records one tab-completion request.
func (m *Metrics) RecordCompletion(root string, suggestions int) {
	m.CompletionCounter.WithLabelValues(root).Inc()
	m.CompletionSuggestions.WithLabelValues(root).Observe(float64(suggestions))
}

// RecordConfigError records a sub-command that could not be built.
func (m *Metrics) RecordConfigError(root, sub string) {
	m.ConfigErrorCounter.WithLabelValues(root, sub).Inc()
}

// RecordUnknownCommand records a line with an unregistered root label.
func (m *Metrics) RecordUnknownCommand() {
	m.UnknownCommandCounter.Inc()
}

// SetRegisteredCommands sets the registered root command gauge.
func (m *Metrics) SetRegisteredCommands(n int) {
	m.RegisteredCommands.Set(float64(n))
}
