package middleware // middleware contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/arriendoya/booking-api/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's user id and role into the request context.
// Refresh tokens are rejected here; they are only accepted by the
// dedicated refresh endpoint.  Protected routes wrapped by this
// middleware can read the authenticated identity via `c.Get("user_id")`
// (uint64) and `c.Get("role")` (string).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header is "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // ParseAccessToken validates signature, expiry and the type
            // claim, so a refresh token presented here fails closed.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set("user_id", claims.UserID)
            c.Set("role", claims.Role)
            return next(c)
        }
    }
}

// UserID extracts the authenticated user id placed in the context by
// JWTAuth. The second return is false when the request is unauthenticated.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get("user_id").(uint64)
    return id, ok
}

// Role extracts the authenticated role placed in the context by JWTAuth.
func Role(c echo.Context) string {
    role, _ := c.Get("role").(string)
    return role
}
