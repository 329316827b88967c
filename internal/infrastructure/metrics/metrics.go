// Package metrics exposes billing counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadsyncpro/billing/internal/application/billing/usecases"
	"github.com/leadsyncpro/billing/internal/domain/billing"
	vo "github.com/leadsyncpro/billing/internal/domain/billing/valueobjects"
)

const namespace = "billing"

// BillingMetrics holds the billing collectors. It observes state machine
// transitions, dunning attempts and webhook outcomes.
type BillingMetrics struct {
	registry *prometheus.Registry

	SubscriptionStateChanges *prometheus.CounterVec
	DunningAttempts          *prometheus.CounterVec
	WebhookEvents            *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	_ billing.TransitionObserver = (*BillingMetrics)(nil)
	_ usecases.DunningMetrics    = (*BillingMetrics)(nil)
	_ usecases.WebhookMetrics    = (*BillingMetrics)(nil)
)

// NewBillingMetrics creates the collectors and registers them on registry
// together with the Go runtime and process collectors.
func NewBillingMetrics(registry *prometheus.Registry) *BillingMetrics {
	m := &BillingMetrics{
		registry: registry,
		SubscriptionStateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscription_state_change_total",
				Help:      "Subscription status transitions",
			},
			[]string{"from", "to"},
		),
		DunningAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dunning_attempts_total",
				Help:      "Dunning payment retry outcomes",
			},
			[]string{"result"},
		),
		WebhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Gateway webhook events by type and outcome",
			},
			[]string{"type", "result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	registry.MustRegister(
		m.SubscriptionStateChanges,
		m.DunningAttempts,
		m.WebhookEvents,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *BillingMetrics) ObserveTransition(from, to vo.SubscriptionStatus) {
	m.SubscriptionStateChanges.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *BillingMetrics) RecordDunningAttempt(result string) {
	m.DunningAttempts.WithLabelValues(result).Inc()
}

func (m *BillingMetrics) RecordWebhookEvent(eventType, result string) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.WebhookEvents.WithLabelValues(eventType, result).Inc()
}

// ObserveHTTPRequest records one served request. path should be the route
// template, not the raw URL, to bound label cardinality.
func (m *BillingMetrics) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *BillingMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
