package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/arriendoya/booking-api/internal/middleware"
    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/repository"
)

// CommissionHandler serves the owner payout view and the administrative
// commission workflow.
type CommissionHandler struct {
    Commissions *repository.CommissionRepo
}

func NewCommissionHandler(r *repository.CommissionRepo) *CommissionHandler {
    return &CommissionHandler{Commissions: r}
}

type commissionResp struct {
    ID          uint64     `json:"id"`
    PaymentID   uint64     `json:"pago_id"`
    OwnerID     uint64     `json:"propietario_id"`
    Amount      int64      `json:"monto"`
    Percentage  float64    `json:"porcentaje"`
    Status      string     `json:"estado"`
    Description *string    `json:"descripcion"`
    CreatedAt   time.Time  `json:"fecha_creacion"`
    ProcessedAt *time.Time `json:"fecha_procesamiento"`
}

func toCommissionResp(c *model.Commission) commissionResp {
    return commissionResp{
        ID:          c.ID,
        PaymentID:   c.PaymentID,
        OwnerID:     c.OwnerID,
        Amount:      c.Amount,
        Percentage:  c.Percentage,
        Status:      c.Status,
        Description: c.Description,
        CreatedAt:   c.CreatedAt,
        ProcessedAt: c.ProcessedAt,
    }
}

// MyPayments lists the authenticated owner's commissions, optionally
// filtered by estado.
func (h *CommissionHandler) MyPayments(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    status := c.QueryParam("estado")
    if status != "" && !model.ValidCommissionStatus(status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown estado"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    list, err := h.Commissions.ListByOwner(ctx, uid, status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list commissions failed"})
    }
    out := make([]commissionResp, 0, len(list))
    var totalPending int64
    for i := range list {
        out = append(out, toCommissionResp(&list[i]))
        if list[i].Status == model.CommissionPending {
            totalPending += list[i].Amount
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"comisiones": out, "total_pendiente": totalPending})
}

// MarkProcessed advances a commission pendiente -> procesada (admin).
func (h *CommissionHandler) MarkProcessed(c echo.Context) error {
    return h.transition(c, h.Commissions.MarkProcessed)
}

// MarkCompleted advances a commission procesada -> completada (admin).
func (h *CommissionHandler) MarkCompleted(c echo.Context) error {
    return h.transition(c, h.Commissions.MarkCompleted)
}

func (h *CommissionHandler) transition(c echo.Context, apply func(context.Context, uint64) error) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    switch err := apply(ctx, id); {
    case errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "commission not found"})
    case errors.Is(err, repository.ErrInvalidTransition):
        return c.JSON(http.StatusConflict, echo.Map{"error": "illegal status transition"})
    case err != nil:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update commission failed"})
    }

    out, err := h.Commissions.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get commission failed"})
    }
    return c.JSON(http.StatusOK, toCommissionResp(out))
}

// Payable groups every procesada commission by owner for the payout run
// (admin).
func (h *CommissionHandler) Payable(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    groups, err := h.Commissions.ListPayable(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list payable failed"})
    }
    out := make([]echo.Map, 0, len(groups))
    for _, g := range groups {
        items := make([]commissionResp, 0, len(g.Commissions))
        for i := range g.Commissions {
            items = append(items, toCommissionResp(&g.Commissions[i]))
        }
        out = append(out, echo.Map{
            "propietario_id":     g.OwnerID,
            "propietario_nombre": g.OwnerName,
            "propietario_email":  g.OwnerEmail,
            "comisiones":         items,
            "monto_total":        g.Total,
        })
    }
    return c.JSON(http.StatusOK, out)
}

// Summary aggregates commissions created inside [inicio, fin] (admin).
// Dates are YYYY-MM-DD; the end date is inclusive.
func (h *CommissionHandler) Summary(c echo.Context) error {
    start, err := time.Parse("2006-01-02", c.QueryParam("inicio"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inicio, expected YYYY-MM-DD"})
    }
    end, err := time.Parse("2006-01-02", c.QueryParam("fin"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fin, expected YYYY-MM-DD"})
    }
    if end.Before(start) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "fin before inicio"})
    }
    // Cover the whole final day.
    endOfDay := end.Add(24*time.Hour - time.Second)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    total, count, byStatus, err := h.Commissions.Summarize(ctx, start, endOfDay)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "summarize failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "inicio":      c.QueryParam("inicio"),
        "fin":         c.QueryParam("fin"),
        "monto_total": total,
        "cantidad":    count,
        "por_estado":  byStatus,
    })
}
