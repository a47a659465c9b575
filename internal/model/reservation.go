package model

import (
    "errors"
    "time"
)

// Reservation status values stored in reserva.estado.  Transitions are
// monotonic: a pending reservation may complete or cancel, and both of
// those states are terminal.
const (
    ReservationPending   = "pendiente"
    ReservationCompleted = "completada"
    ReservationCancelled = "cancelada"
)

// ErrBadWindow is returned when a reservation window does not satisfy
// end > start.
var ErrBadWindow = errors.New("reservation end must be after start")

// ErrBadTransition is returned when a status change violates a lifecycle.
// It is shared by the reservation, payment and commission state machines.
var ErrBadTransition = errors.New("illegal status transition")

// Reservation records a client's booking of a property for a time window,
// stored in the `reserva` table.  Costs are in cents.
//
// Fields:
//  ID         – primary key identifier.
//  ClientID   – user who booked.
//  PropertyID – property being booked.
//  Start      – beginning of the booked window.
//  End        – end of the booked window (strictly after Start).
//  Hours      – billed hours, ceil of the window duration.
//  TotalCost  – total price in cents.
//  PaidCost   – amount already collected in cents.
//  Status     – lifecycle state (pendiente, completada, cancelada).
//  CreatedAt  – creation timestamp.
type Reservation struct {
    ID         uint64    // reserva.id
    ClientID   uint64    // reserva.cliente_id
    PropertyID uint64    // reserva.propiedad_id
    Start      time.Time // reserva.inicio
    End        time.Time // reserva.fin
    Hours      int       // reserva.cant_horas
    TotalCost  int64     // reserva.costo_total
    PaidCost   int64     // reserva.costo_pagado
    Status     string    // reserva.estado
    CreatedAt  time.Time // reserva.fecha_creacion
}

// ValidateWindow enforces the end > start invariant.
func ValidateWindow(start, end time.Time) error {
    if !end.After(start) {
        return ErrBadWindow
    }
    return nil
}

// BilledHours returns the number of whole hours to bill for a window,
// rounding any partial hour up.  Callers must validate the window first.
func BilledHours(start, end time.Time) int {
    d := end.Sub(start)
    h := int(d / time.Hour)
    if d%time.Hour != 0 {
        h++
    }
    return h
}

// ValidReservationStatus reports whether s is a known reservation state.
func ValidReservationStatus(s string) bool {
    return s == ReservationPending || s == ReservationCompleted || s == ReservationCancelled
}

// CheckReservationTransition validates a status change.  Only
// pendiente -> completada and pendiente -> cancelada are allowed; setting
// the current status again is a no-op.
func CheckReservationTransition(from, to string) error {
    if from == to {
        return nil
    }
    if from == ReservationPending && (to == ReservationCompleted || to == ReservationCancelled) {
        return nil
    }
    return ErrBadTransition
}
