// Package metrics registers the Prometheus collectors exposed on
// /metrics. Collectors are package-level vars created with promauto so
// they register against the default registry at init time.
package metrics

import (
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "booking_api"

var (
    // HTTPRequestsTotal counts every handled HTTP request by method,
    // route template and status code.
    HTTPRequestsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "http_requests_total",
            Help:      "Total number of HTTP requests",
        },
        []string{"method", "path", "status"},
    )

    // HTTPRequestDuration observes request latency in seconds.
    HTTPRequestDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: namespace,
            Name:      "http_request_duration_seconds",
            Help:      "Duration of HTTP requests in seconds",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"method", "path", "status"},
    )

    // PaymentsApprovedTotal counts payments confirmed by the gateway.
    PaymentsApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: namespace,
        Name:      "payments_approved_total",
        Help:      "Total number of payments confirmed as approved",
    })

    // WebhookEventsTotal counts webhook notifications by outcome
    // (processed, duplicate, ignored, error).
    WebhookEventsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "webhook_events_total",
            Help:      "Total number of gateway webhook notifications by outcome",
        },
        []string{"outcome"},
    )

    // CommissionAttributionFailures counts approved payments for which
    // no owner could be resolved. Each one needs operator follow up.
    CommissionAttributionFailures = promauto.NewCounter(prometheus.CounterOpts{
        Namespace: namespace,
        Name:      "commission_attribution_failures_total",
        Help:      "Approved payments whose commission could not be attributed to an owner",
    })
)

// Handler returns the echo handler serving the Prometheus scrape endpoint.
func Handler() echo.HandlerFunc {
    return echo.WrapHandler(promhttp.Handler())
}
