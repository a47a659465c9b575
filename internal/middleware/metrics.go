package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/arriendoya/booking-api/internal/metrics"
)

// Metrics records the request counter and latency histogram for every
// handled request.  The path label uses the route template, not the raw
// URL, to keep cardinality bounded.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
    return func(c echo.Context) error {
        start := time.Now()

        err := next(c)

        duration := time.Since(start).Seconds()
        method := c.Request().Method
        path := c.Path()
        status := strconv.Itoa(c.Response().Status)

        metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
        metrics.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)

        return err
    }
}
