package repository

import (
    "context"
    "database/sql"

    "github.com/arriendoya/booking-api/internal/model"
)

// InvoiceRepo provides data access to the boleta table.  An invoice is
// emitted once per reservation, when its payment is approved.
type InvoiceRepo struct {
    db *sql.DB
}

// NewInvoiceRepo returns a new InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// CreateIfMissing emits an invoice for the reservation unless one
// already exists, keeping webhook reprocessing idempotent.
func (r *InvoiceRepo) CreateIfMissing(ctx context.Context, reservationID uint64, total int64) error {
    var n int
    if err := r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM boleta WHERE reserva_id = ?", reservationID).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    _, err := r.db.ExecContext(ctx,
        "INSERT INTO boleta (reserva_id, total, emision) VALUES (?,?,UTC_TIMESTAMP())",
        reservationID, total)
    return err
}

// GetByID returns an invoice or sql.ErrNoRows.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (*model.Invoice, error) {
    var inv model.Invoice
    err := r.db.QueryRowContext(ctx,
        "SELECT id, reserva_id, total, emision FROM boleta WHERE id = ?", id).Scan(
        &inv.ID, &inv.ReservationID, &inv.Total, &inv.IssuedAt)
    if err != nil {
        return nil, err
    }
    return &inv, nil
}

// List returns invoices newest first with offset/limit pagination.
func (r *InvoiceRepo) List(ctx context.Context, offset, limit int) ([]model.Invoice, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT id, reserva_id, total, emision FROM boleta ORDER BY emision DESC LIMIT ? OFFSET ?",
        limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Invoice, 0)
    for rows.Next() {
        var inv model.Invoice
        if err := rows.Scan(&inv.ID, &inv.ReservationID, &inv.Total, &inv.IssuedAt); err != nil {
            return nil, err
        }
        out = append(out, inv)
    }
    return out, rows.Err()
}

// ReservationClient returns the client owning the reservation an invoice
// points at, so handlers can enforce read access.
func (r *InvoiceRepo) ReservationClient(ctx context.Context, reservationID uint64) (uint64, error) {
    var clientID uint64
    err := r.db.QueryRowContext(ctx,
        "SELECT cliente_id FROM reserva WHERE id = ?", reservationID).Scan(&clientID)
    if err == sql.ErrNoRows {
        return 0, sql.ErrNoRows
    }
    return clientID, err
}
