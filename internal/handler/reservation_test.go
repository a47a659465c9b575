package handler

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/arriendoya/booking-api/internal/model"
)

func reservationCtx(e *echo.Echo, uid uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
    req := httptest.NewRequest(http.MethodGet, "/v1/reservas/1", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uid)
    c.Set("role", role)
    return c, rec
}

func TestRequireAccess(t *testing.T) {
    e := echo.New()
    h := &ReservationHandler{}
    res := &model.Reservation{ID: 1, ClientID: 7}

    t.Run("owning client allowed", func(t *testing.T) {
        c, rec := reservationCtx(e, 7, model.RoleClient)
        ok, err := h.requireAccess(c, res)
        if !ok || err != nil {
            t.Fatalf("requireAccess = (%v, %v), want (true, nil)", ok, err)
        }
        if rec.Body.Len() != 0 {
            t.Errorf("unexpected response body: %s", rec.Body.String())
        }
    })

    t.Run("admin allowed", func(t *testing.T) {
        c, _ := reservationCtx(e, 99, model.RoleAdmin)
        if ok, err := h.requireAccess(c, res); !ok || err != nil {
            t.Fatalf("requireAccess = (%v, %v), want (true, nil)", ok, err)
        }
    })

    // The guard must report the refusal, not just write it: a caller
    // that proceeds on ok would execute the forbidden operation.
    t.Run("stranger refused", func(t *testing.T) {
        c, rec := reservationCtx(e, 5, model.RoleClient)
        ok, err := h.requireAccess(c, res)
        if ok {
            t.Fatal("stranger reported as allowed")
        }
        if err != nil {
            t.Fatalf("refusal write failed: %v", err)
        }
        if rec.Code != http.StatusForbidden {
            t.Errorf("status = %d, want 403", rec.Code)
        }
    })
}
