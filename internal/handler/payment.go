package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/arriendoya/booking-api/internal/metrics"
    "github.com/arriendoya/booking-api/internal/middleware"
    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/repository"
    "github.com/arriendoya/booking-api/internal/service"
)

// PaymentHandler exposes the payment lifecycle endpoints: intent
// creation, the gateway webhook, and status queries.
type PaymentHandler struct {
    Payments *service.PaymentService
    Store    *repository.PaymentRepo
}

func NewPaymentHandler(s *service.PaymentService, store *repository.PaymentRepo) *PaymentHandler {
    return &PaymentHandler{Payments: s, Store: store}
}

type paymentResp struct {
    ID                uint64     `json:"id"`
    ReservationID     uint64     `json:"reserva_id"`
    TotalAmount       int64      `json:"monto_total"`
    OwnerAmount       int64      `json:"monto_propietario"`
    CommissionAmount  int64      `json:"monto_comision"`
    Currency          string     `json:"moneda"`
    GatewayPaymentID  *string    `json:"mp_payment_id"`
    PreferenceID      *string    `json:"mp_preference_id"`
    ExternalReference string     `json:"mp_external_reference"`
    GatewayStatus     *string    `json:"mp_status"`
    Status            string     `json:"estado"`
    CreatedAt         time.Time  `json:"fecha_creacion"`
    ProcessedAt       *time.Time `json:"fecha_procesamiento"`
}

func toPaymentResp(p *model.Payment) paymentResp {
    return paymentResp{
        ID:                p.ID,
        ReservationID:     p.ReservationID,
        TotalAmount:       p.TotalAmount,
        OwnerAmount:       p.OwnerAmount,
        CommissionAmount:  p.CommissionAmount,
        Currency:          p.Currency,
        GatewayPaymentID:  p.GatewayPaymentID,
        PreferenceID:      p.PreferenceID,
        ExternalReference: p.ExternalReference,
        GatewayStatus:     p.GatewayStatus,
        Status:            p.Status,
        CreatedAt:         p.CreatedAt,
        ProcessedAt:       p.ProcessedAt,
    }
}

// CreatePreference opens a payment intent for a reservation and returns
// the checkout redirect URLs.
func (h *PaymentHandler) CreatePreference(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    reservationID, err := pathID(c, "reserva_id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reserva_id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    out, err := h.Payments.CreateIntent(ctx, reservationID, uid, middleware.Role(c) == model.RoleAdmin)
    switch {
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, service.ErrReservationNotPayable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not payable"})
    case errors.Is(err, repository.ErrOpenIntent):
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already has an open payment"})
    case err != nil:
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "pago":               toPaymentResp(out.Payment),
        "preference_id":      out.PreferenceID,
        "init_point":         out.InitPoint,
        "sandbox_init_point": out.SandboxInitPoint,
    })
}

type webhookReq struct {
    Type string `json:"type"`
    Data struct {
        ID string `json:"id"`
    } `json:"data"`
}

// Webhook receives gateway notifications.  Only type "payment" is
// processed; everything else is acknowledged and dropped so the gateway
// stops retrying.  The notification body is never trusted: processing
// re-reads the payment from the gateway.
func (h *PaymentHandler) Webhook(c echo.Context) error {
    var req webhookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Type != "payment" || req.Data.ID == "" {
        metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
        return c.JSON(http.StatusOK, echo.Map{"message": "ignored"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
    defer cancel()

    outcome, err := h.Payments.ProcessCallback(ctx, req.Data.ID)
    if err != nil {
        metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
        middleware.Logger(c).Error("webhook processing failed",
            zap.String("gateway_payment_id", req.Data.ID), zap.Error(err))
        // Non-2xx makes the gateway redeliver; processing is idempotent
        // so the retry is safe.
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
    }
    metrics.WebhookEventsTotal.WithLabelValues(outcome).Inc()
    return c.JSON(http.StatusOK, echo.Map{"message": outcome})
}

// Status returns a payment, refreshing it against the gateway when it is
// still pending.  Any authenticated caller may query any payment id.
func (h *PaymentHandler) Status(c echo.Context) error {
    id, err := pathID(c, "pago_id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    p, err := h.Payments.GetStatus(ctx, id)
    if errors.Is(err, service.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get payment failed"})
    }
    return c.JSON(http.StatusOK, toPaymentResp(p))
}

// ListByReservation returns the payment lineage of one reservation.
func (h *PaymentHandler) ListByReservation(c echo.Context) error {
    id, err := pathID(c, "reserva_id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    list, err := h.Store.ListByReservation(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list payments failed"})
    }
    out := make([]paymentResp, 0, len(list))
    for i := range list {
        out = append(out, toPaymentResp(&list[i]))
    }
    return c.JSON(http.StatusOK, out)
}
