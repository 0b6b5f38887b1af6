package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prefix = "job_ledger_"

const (
	OutcomeOK = "ok"
)

// Metrics holds the ledger collectors. Each instance owns its registry so
// tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	queries         *prometheus.CounterVec
	asyncCommands   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "commands_total",
				Help: "Ledger commands by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "command_duration_seconds",
				Help:    "Time spent applying a ledger command, store commit included",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"command"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "queries_total",
				Help: "Ledger queries by query and outcome",
			},
			[]string{"query", "outcome"},
		),
		asyncCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "async_commands_total",
				Help: "Queued commands finished by the worker, by final status",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		m.commands,
		m.commandDuration,
		m.queries,
		m.asyncCommands,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Outcome maps an error kind to a label value; "" means success.
func Outcome(kind string) string {
	if kind == "" {
		return OutcomeOK
	}
	return kind
}

func (m *Metrics) RecordCommand(command, outcome string, d time.Duration) {
	m.commands.WithLabelValues(command, outcome).Inc()
	m.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *Metrics) RecordQuery(query, outcome string) {
	m.queries.WithLabelValues(query, outcome).Inc()
}

func (m *Metrics) RecordAsyncCommand(status string) {
	m.asyncCommands.WithLabelValues(status).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
