// Package metrics defines and registers all custom Prometheus metrics for
// the storefront BFF. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry at package load via
// promauto; the /metrics route is wired in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Upstream request metrics ──────────────────────────────────────────────────

// UpstreamRequestsTotal counts requests issued through the authenticated
// gateway, by final outcome.
// Labels:
//   - method: HTTP method of the outbound request
//   - status: final HTTP status returned to the caller (after any retry)
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of upstream requests issued through the gateway.",
	},
	[]string{"method", "status"},
)

// UpstreamRequestDuration measures wall time of one gateway call end-to-end,
// including a transparent refresh-and-retry when one happens.
var UpstreamRequestDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of upstream requests from dispatch to final response.",
		Buckets:   prometheus.DefBuckets,
	},
)

// TokenRefreshTotal counts access-token refresh attempts.
// Label:
//   - result: "success", "failure", or "no_refresh_token"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of access-token refresh attempts, by result.",
	},
	[]string{"result"},
)

// ── Cart metrics ──────────────────────────────────────────────────────────────

// CartOperationsTotal counts cart mirror operations that reached the server.
// Label:
//   - operation: "load", "add", "remove", "update", "clear"
var CartOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Total number of server-touching cart operations.",
	},
	[]string{"operation"},
)

// CheckoutTotal counts checkout submissions.
// Label:
//   - result: "created", "rejected", "nothing_selected", "duplicate"
var CheckoutTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Total number of checkout submissions, by result.",
	},
	[]string{"result"},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// PaymentVerifyTotal counts payment verification polls.
// Label:
//   - result: "paid", "pending", "error"
var PaymentVerifyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verify_total",
		Help:      "Total number of payment verification polls, by result.",
	},
	[]string{"result"},
)
