package middleware

import (
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/arriendoya/booking-api/internal/logger"
)

// HeaderRequestID is the response header carrying the request id.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns each request a UUID (honoring an inbound
// X-Request-ID), echoes it on the response and stores a child logger
// with the id attached under "logger" for handlers that want correlated
// log lines.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(HeaderRequestID)
            if id == "" {
                id = uuid.NewString()
            }
            c.Response().Header().Set(HeaderRequestID, id)
            c.Set("request_id", id)
            c.Set("logger", logger.L().With(zap.String("request_id", id)))
            return next(c)
        }
    }
}

// Logger returns the request-scoped logger set by RequestID, falling
// back to the global logger.
func Logger(c echo.Context) *zap.Logger {
    if l, ok := c.Get("logger").(*zap.Logger); ok {
        return l
    }
    return logger.L()
}
