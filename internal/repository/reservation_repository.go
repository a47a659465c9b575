package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/arriendoya/booking-api/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  A
// reservation ties a client to a property for a time window with a
// computed cost.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = "id, cliente_id, propiedad_id, inicio, fin, cant_horas, costo_total, costo_pagado, estado, fecha_creacion"

// Create inserts a new reservation in estado pendiente and populates the
// generated ID and creation timestamp on the provided record.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    result, err := r.db.ExecContext(ctx,
        `INSERT INTO reserva (cliente_id, propiedad_id, inicio, fin, cant_horas, costo_total, costo_pagado, estado)
         VALUES (?,?,?,?,?,?,0,?)`,
        res.ClientID, res.PropertyID, res.Start.UTC(), res.End.UTC(), res.Hours, res.TotalCost, model.ReservationPending)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    // Query back the row to populate defaults set by the database.
    return r.db.QueryRowContext(ctx,
        "SELECT "+reservationColumns+" FROM reserva WHERE id = ?", res.ID).Scan(
        &res.ID, &res.ClientID, &res.PropertyID, &res.Start, &res.End,
        &res.Hours, &res.TotalCost, &res.PaidCost, &res.Status, &res.CreatedAt)
}

// GetByID returns a single reservation or sql.ErrNoRows.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    var res model.Reservation
    err := r.db.QueryRowContext(ctx,
        "SELECT "+reservationColumns+" FROM reserva WHERE id = ?", id).Scan(
        &res.ID, &res.ClientID, &res.PropertyID, &res.Start, &res.End,
        &res.Hours, &res.TotalCost, &res.PaidCost, &res.Status, &res.CreatedAt)
    if err != nil {
        return nil, err
    }
    return &res, nil
}

// ListByClient returns a client's reservations, newest first.
func (r *ReservationRepo) ListByClient(ctx context.Context, clientID uint64, offset, limit int) ([]model.Reservation, error) {
    return r.list(ctx,
        "SELECT "+reservationColumns+" FROM reserva WHERE cliente_id = ? ORDER BY fecha_creacion DESC LIMIT ? OFFSET ?",
        clientID, limit, offset)
}

// ListAll returns reservations for administrative listings, newest first.
func (r *ReservationRepo) ListAll(ctx context.Context, offset, limit int) ([]model.Reservation, error) {
    return r.list(ctx,
        "SELECT "+reservationColumns+" FROM reserva ORDER BY fecha_creacion DESC LIMIT ? OFFSET ?",
        limit, offset)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        var res model.Reservation
        if err := rows.Scan(
            &res.ID, &res.ClientID, &res.PropertyID, &res.Start, &res.End,
            &res.Hours, &res.TotalCost, &res.PaidCost, &res.Status, &res.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    return out, rows.Err()
}

// ReservationPatch is the allow-listed set of updatable fields.  Window
// changes recompute hours and cost in the handler before reaching here;
// status changes must already be validated against the lifecycle.
type ReservationPatch struct {
    Start     *string // formatted UTC DATETIME
    End       *string
    Hours     *int
    TotalCost *int64
    PaidCost  *int64
    Status    *string
}

// Update applies the patch.  It returns sql.ErrNoRows when the
// reservation does not exist.
func (r *ReservationRepo) Update(ctx context.Context, id uint64, patch ReservationPatch) error {
    set := make([]string, 0, 6)
    args := make([]interface{}, 0, 7)
    add := func(col string, v interface{}) {
        set = append(set, col+" = ?")
        args = append(args, v)
    }
    if patch.Start != nil {
        add("inicio", *patch.Start)
    }
    if patch.End != nil {
        add("fin", *patch.End)
    }
    if patch.Hours != nil {
        add("cant_horas", *patch.Hours)
    }
    if patch.TotalCost != nil {
        add("costo_total", *patch.TotalCost)
    }
    if patch.PaidCost != nil {
        add("costo_pagado", *patch.PaidCost)
    }
    if patch.Status != nil {
        add("estado", *patch.Status)
    }
    if len(set) == 0 {
        return nil
    }
    args = append(args, id)
    res, err := r.db.ExecContext(ctx, "UPDATE reserva SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// MarkCompleted moves a pending reservation to completada and records the
// collected amount.  The WHERE clause doubles as a compare-and-swap so a
// duplicate webhook cannot complete the row twice.
func (r *ReservationRepo) MarkCompleted(ctx context.Context, id uint64, paid int64) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE reserva SET estado = ?, costo_pagado = ? WHERE id = ? AND estado = ?",
        model.ReservationCompleted, paid, id, model.ReservationPending)
    return err
}

// Delete removes a reservation.  A reservation referenced by any payment
// is never hard-deleted; the attempt returns ErrConflict.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
    var n int
    if err := r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM pago WHERE reserva_id = ?", id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    res, err := r.db.ExecContext(ctx, "DELETE FROM reserva WHERE id = ?", id)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return sql.ErrNoRows
    }
    return nil
}
