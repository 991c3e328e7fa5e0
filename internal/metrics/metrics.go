// Package metrics exposes the bot's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	nameLookups     *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerbot_commands_total",
			Help: "Chat commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledgerbot_command_duration_seconds",
			Help:    "Time spent handling a chat command.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		nameLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerbot_name_lookups_total",
			Help: "Display name lookups, by result (hit, lookup, fallback).",
		}, []string{"result"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerbot_webhook_events_total",
			Help: "Webhook events received, by platform and event type.",
		}, []string{"platform", "type"}),
	}
	reg.MustRegister(
		m.commands,
		m.commandDuration,
		m.nameLookups,
		m.webhookEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCommand records one handled command. A nil Metrics is a no-op.
func (m *Metrics) ObserveCommand(command, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
	m.commandDuration.WithLabelValues(command).Observe(took.Seconds())
}

func (m *Metrics) ObserveNameLookup(result string) {
	if m == nil {
		return
	}
	m.nameLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveWebhookEvent(platform, eventType string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(platform, eventType).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
