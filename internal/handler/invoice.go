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

// InvoiceHandler serves the boletas issued for completed reservations.
type InvoiceHandler struct {
    Invoices *repository.InvoiceRepo
}

func NewInvoiceHandler(r *repository.InvoiceRepo) *InvoiceHandler {
    return &InvoiceHandler{Invoices: r}
}

type invoiceResp struct {
    ID            uint64    `json:"id"`
    ReservationID uint64    `json:"reserva_id"`
    Total         int64     `json:"total"`
    IssuedAt      time.Time `json:"fecha_emision"`
}

func toInvoiceResp(i *model.Invoice) invoiceResp {
    return invoiceResp{ID: i.ID, ReservationID: i.ReservationID, Total: i.Total, IssuedAt: i.IssuedAt}
}

// Get returns one boleta.  Clients only see boletas of their own
// reservations; admins see everything.
func (h *InvoiceHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    inv, err := h.Invoices.GetByID(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get invoice failed"})
    }

    if middleware.Role(c) != model.RoleAdmin {
        uid, ok := middleware.UserID(c)
        if !ok {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        clientID, err := h.Invoices.ReservationClient(ctx, inv.ReservationID)
        if err != nil || clientID != uid {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    return c.JSON(http.StatusOK, toInvoiceResp(inv))
}

// List returns boletas, newest first (admin).
func (h *InvoiceHandler) List(c echo.Context) error {
    offset, limit := pageParams(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    list, err := h.Invoices.List(ctx, offset, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list invoices failed"})
    }
    out := make([]invoiceResp, 0, len(list))
    for i := range list {
        out = append(out, toInvoiceResp(&list[i]))
    }
    return c.JSON(http.StatusOK, out)
}
