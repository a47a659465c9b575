package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
)

type stubBlocks struct {
    blocked map[uint64]bool
}

func (s stubBlocks) IsActive(_ context.Context, userID uint64) (bool, error) {
    return !s.blocked[userID], nil
}

func TestActiveAccount(t *testing.T) {
    e := echo.New()
    blocks := stubBlocks{blocked: map[uint64]bool{9: true}}
    next := func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
    }
    h := ActiveAccount(blocks)(next)

    run := func(t *testing.T, uid uint64, withIdentity bool) *httptest.ResponseRecorder {
        t.Helper()
        req := httptest.NewRequest(http.MethodGet, "/v1/reservas", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        if withIdentity {
            c.Set("user_id", uid)
            c.Set("role", "cliente")
        }
        if err := h(c); err != nil {
            t.Fatalf("middleware: %v", err)
        }
        return rec
    }

    t.Run("user in good standing passes through", func(t *testing.T) {
        if rec := run(t, 5, true); rec.Code != http.StatusOK {
            t.Fatalf("status = %d, want 200", rec.Code)
        }
    })

    t.Run("blocked user refused", func(t *testing.T) {
        if rec := run(t, 9, true); rec.Code != http.StatusForbidden {
            t.Fatalf("status = %d, want 403", rec.Code)
        }
    })

    t.Run("missing identity refused", func(t *testing.T) {
        if rec := run(t, 0, false); rec.Code != http.StatusUnauthorized {
            t.Fatalf("status = %d, want 401", rec.Code)
        }
    })
}
