// Package metrics exposes prometheus counters for the bot's externally
// visible activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the registry and the collectors the rest of the code
// increments. Construct once in main and pass where needed.
type Metrics struct {
	registry *prometheus.Registry

	WebhookEvents   *prometheus.CounterVec
	MessagesSent    prometheus.Counter
	CommandsHandled *prometheus.CounterVec
	APIRequests     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digamber_webhook_events_total",
			Help: "Stripe webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "digamber_messages_sent_total",
			Help: "Template messages dispatched to Discord.",
		}),
		CommandsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digamber_commands_handled_total",
			Help: "Slash commands handled by name.",
		}, []string{"command"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digamber_api_requests_total",
			Help: "Dashboard API requests by route and status class.",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		m.WebhookEvents,
		m.MessagesSent,
		m.CommandsHandled,
		m.APIRequests,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
