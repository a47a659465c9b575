package handler

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}

// pageParams reads offset/limit query parameters with sane bounds.
// Limit defaults to 50 and is capped at 100.
func pageParams(c echo.Context) (offset, limit int) {
    limit = 50
    if v := c.QueryParam("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            limit = n
        }
    }
    if limit > 100 {
        limit = 100
    }
    if v := c.QueryParam("offset"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n >= 0 {
            offset = n
        }
    }
    return offset, limit
}
