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

// ReservationHandler serves reservation creation and management.
// Blocked-user refusal happens in the ActiveAccount middleware before
// any of these handlers run.
type ReservationHandler struct {
    Reservations *repository.ReservationRepo
    Properties   *repository.PropertyRepo
}

func NewReservationHandler(r *repository.ReservationRepo, p *repository.PropertyRepo) *ReservationHandler {
    return &ReservationHandler{Reservations: r, Properties: p}
}

const windowLayout = time.RFC3339

type reservationReq struct {
    PropertyID uint64 `json:"propiedad_id"`
    Start      string `json:"inicio"` // RFC 3339
    End        string `json:"fin"`
}

type reservationResp struct {
    ID         uint64    `json:"id"`
    ClientID   uint64    `json:"cliente_id"`
    PropertyID uint64    `json:"propiedad_id"`
    Start      time.Time `json:"inicio"`
    End        time.Time `json:"fin"`
    Hours      int       `json:"cant_horas"`
    TotalCost  int64     `json:"costo_total"`
    PaidCost   int64     `json:"costo_pagado"`
    Status     string    `json:"estado"`
    CreatedAt  time.Time `json:"fecha_creacion"`
}

func toReservationResp(r *model.Reservation) reservationResp {
    return reservationResp{
        ID:         r.ID,
        ClientID:   r.ClientID,
        PropertyID: r.PropertyID,
        Start:      r.Start,
        End:        r.End,
        Hours:      r.Hours,
        TotalCost:  r.TotalCost,
        PaidCost:   r.PaidCost,
        Status:     r.Status,
        CreatedAt:  r.CreatedAt,
    }
}

// Create books a property for a time window.  The price is never taken
// from the client: billed hours are the ceiling of the window duration
// and the total is hours times the property's current hourly price.  A
// blocked user cannot book.
func (h *ReservationHandler) Create(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req reservationReq
    if err := c.Bind(&req); err != nil || req.PropertyID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    start, err := time.Parse(windowLayout, req.Start)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inicio, expected RFC 3339"})
    }
    end, err := time.Parse(windowLayout, req.End)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fin, expected RFC 3339"})
    }
    if err := model.ValidateWindow(start, end); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "fin must be after inicio"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    prop, err := h.Properties.GetByID(ctx, req.PropertyID)
    if errors.Is(err, sql.ErrNoRows) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get property failed"})
    }
    if !prop.Active {
        return c.JSON(http.StatusConflict, echo.Map{"error": "property is not available"})
    }

    hours := model.BilledHours(start, end)
    res := &model.Reservation{
        ClientID:   uid,
        PropertyID: prop.ID,
        Start:      start.UTC(),
        End:        end.UTC(),
        Hours:      hours,
        TotalCost:  int64(hours) * prop.PricePerHour,
    }
    if err := h.Reservations.Create(ctx, res); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
    }
    return c.JSON(http.StatusCreated, toReservationResp(res))
}

// Get returns one reservation.  A client only sees their own; admins see
// everything.
func (h *ReservationHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    res, err := h.Reservations.GetByID(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get reservation failed"})
    }
    if ok, err := h.requireAccess(c, res); !ok {
        return err
    }
    return c.JSON(http.StatusOK, toReservationResp(res))
}

// List returns the caller's reservations; admins get every reservation.
func (h *ReservationHandler) List(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    offset, limit := pageParams(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var (
        list []model.Reservation
        err  error
    )
    if middleware.Role(c) == model.RoleAdmin {
        list, err = h.Reservations.ListAll(ctx, offset, limit)
    } else {
        list, err = h.Reservations.ListByClient(ctx, uid, offset, limit)
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
    }
    out := make([]reservationResp, 0, len(list))
    for i := range list {
        out = append(out, toReservationResp(&list[i]))
    }
    return c.JSON(http.StatusOK, out)
}

type reservationUpdateReq struct {
    Start  *string `json:"inicio"`
    End    *string `json:"fin"`
    Status *string `json:"estado"`
}

// Update patches a pending reservation.  Window changes recompute hours
// and total cost from the property's current price; status changes are
// validated against the lifecycle (pendiente may cancel, nothing leaves
// a terminal state).
func (h *ReservationHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req reservationUpdateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    res, err := h.Reservations.GetByID(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get reservation failed"})
    }
    if ok, err := h.requireAccess(c, res); !ok {
        return err
    }

    var patch repository.ReservationPatch

    if req.Start != nil || req.End != nil {
        if res.Status != model.ReservationPending {
            return c.JSON(http.StatusConflict, echo.Map{"error": "only pending reservations can be rescheduled"})
        }
        start, end := res.Start, res.End
        if req.Start != nil {
            if start, err = time.Parse(windowLayout, *req.Start); err != nil {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid inicio, expected RFC 3339"})
            }
        }
        if req.End != nil {
            if end, err = time.Parse(windowLayout, *req.End); err != nil {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fin, expected RFC 3339"})
            }
        }
        if err := model.ValidateWindow(start, end); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "fin must be after inicio"})
        }
        prop, err := h.Properties.GetByID(ctx, res.PropertyID)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get property failed"})
        }
        hours := model.BilledHours(start, end)
        total := int64(hours) * prop.PricePerHour
        s := start.UTC().Format("2006-01-02 15:04:05")
        e := end.UTC().Format("2006-01-02 15:04:05")
        patch.Start, patch.End = &s, &e
        patch.Hours, patch.TotalCost = &hours, &total
    }

    if req.Status != nil {
        if err := model.CheckReservationTransition(res.Status, *req.Status); err != nil {
            return c.JSON(http.StatusConflict, echo.Map{"error": "illegal status transition"})
        }
        patch.Status = req.Status
    }

    if err := h.Reservations.Update(ctx, id, patch); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update reservation failed"})
    }

    out, err := h.Reservations.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get reservation failed"})
    }
    return c.JSON(http.StatusOK, toReservationResp(out))
}

// Delete removes a reservation that has no payment lineage.  Anything a
// payment ever referenced answers 409 and must be cancelled instead.
func (h *ReservationHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    res, err := h.Reservations.GetByID(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get reservation failed"})
    }
    if ok, err := h.requireAccess(c, res); !ok {
        return err
    }

    switch err := h.Reservations.Delete(ctx, id); {
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation has payments, cancel it instead"})
    case errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    case err != nil:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete reservation failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "reservation deleted"})
}

// requireAccess reports whether the caller may touch the reservation:
// its client or an admin.  When ok is false the refusal has already been
// written and its write error is returned; callers must stop there.
func (h *ReservationHandler) requireAccess(c echo.Context, res *model.Reservation) (bool, error) {
    if middleware.Role(c) == model.RoleAdmin {
        return true, nil
    }
    uid, ok := middleware.UserID(c)
    if !ok || res.ClientID != uid {
        return false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return true, nil
}
