package middleware

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
)

// BlockChecker reports whether a user is in good standing, i.e. has no
// block window covering the current time.  Satisfied by the block
// repository.
type BlockChecker interface {
    IsActive(ctx context.Context, userID uint64) (bool, error)
}

// ActiveAccount refuses requests from blocked users.  It runs after
// JWTAuth so the identity is already in the context; tokens issued
// before the block keep failing here until the block lapses.
func ActiveAccount(blocks BlockChecker) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid, ok := UserID(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            active, err := blocks.IsActive(c.Request().Context(), uid)
            if err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block check failed"})
            }
            if !active {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "account blocked"})
            }
            return next(c)
        }
    }
}
