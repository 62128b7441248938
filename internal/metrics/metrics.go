// Package metrics registers the service's Prometheus collectors.
//
// All collectors use the default registry and are served on GET /metrics.
// HTTP metrics are labelled by echo's route template (c.Path()), never the raw
// URL, so ticket ids do not blow up label cardinality.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketdesk_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketdesk_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// RequestTimeoutsTotal counts requests answered with 504 by the timeout guard.
	RequestTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketdesk_request_timeouts_total",
			Help: "Total number of requests that exceeded the configured request timeout.",
		},
		[]string{"path"},
	)

	// AuditWriteFailuresTotal counts audit entries that could not be persisted.
	AuditWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketdesk_audit_write_failures_total",
			Help: "Total number of audit log entries that failed to persist, by action.",
		},
		[]string{"action"},
	)

	// TicketOperationsTotal counts ticket mutations by operation and outcome.
	TicketOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketdesk_ticket_operations_total",
			Help: "Total number of ticket operations, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// LoginRateLimitedTotal counts login attempts rejected by the throttle.
	LoginRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketdesk_login_rate_limited_total",
			Help: "Total number of login attempts rejected by the rate limiter.",
		},
	)
)
