package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/arriendoya/booking-api/internal/model"
)

// CommissionRepo provides data access to the comision table.  Creation
// happens only from payment confirmation; the pago_id unique index plus
// the ExistsForPayment check keep it to exactly one commission per
// approved payment even when webhooks are redelivered.
type CommissionRepo struct {
    db *sql.DB
}

// NewCommissionRepo returns a new CommissionRepo bound to the given database.
func NewCommissionRepo(db *sql.DB) *CommissionRepo { return &CommissionRepo{db: db} }

const commissionColumns = "id, pago_id, propietario_id, monto, porcentaje, estado, descripcion, fecha_creacion, fecha_procesamiento"

// Create inserts a pending commission and populates its generated ID.
func (r *CommissionRepo) Create(ctx context.Context, c *model.Commission) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO comision (pago_id, propietario_id, monto, porcentaje, estado, descripcion)
         VALUES (?,?,?,?,?,?)`,
        c.PaymentID, c.OwnerID, c.Amount, c.Percentage, model.CommissionPending, c.Description)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    c.Status = model.CommissionPending
    return nil
}

// ExistsForPayment reports whether a commission already references the
// payment.  Checked before Create so reprocessing a webhook cannot
// accrue a second payout.
func (r *CommissionRepo) ExistsForPayment(ctx context.Context, paymentID uint64) (bool, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM comision WHERE pago_id = ?", paymentID).Scan(&n)
    return n > 0, err
}

// GetByID returns a commission or sql.ErrNoRows.
func (r *CommissionRepo) GetByID(ctx context.Context, id uint64) (*model.Commission, error) {
    row := r.db.QueryRowContext(ctx,
        "SELECT "+commissionColumns+" FROM comision WHERE id = ?", id)
    return scanCommission(row)
}

// ListByOwner returns an owner's commissions, optionally filtered by
// status, newest first.
func (r *CommissionRepo) ListByOwner(ctx context.Context, ownerID uint64, status string) ([]model.Commission, error) {
    q := "SELECT " + commissionColumns + " FROM comision WHERE propietario_id = ?"
    args := []interface{}{ownerID}
    if status != "" {
        q += " AND estado = ?"
        args = append(args, status)
    }
    q += " ORDER BY fecha_creacion DESC"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectCommissions(rows)
}

// MarkProcessed transitions pendiente -> procesada via compare-and-swap
// and stamps fecha_procesamiento.  A row in any other state yields
// ErrInvalidTransition; a missing row yields sql.ErrNoRows.
func (r *CommissionRepo) MarkProcessed(ctx context.Context, id uint64) error {
    return r.transition(ctx, id, model.CommissionPending, model.CommissionProcessed, true)
}

// MarkCompleted transitions procesada -> completada via compare-and-swap.
func (r *CommissionRepo) MarkCompleted(ctx context.Context, id uint64) error {
    return r.transition(ctx, id, model.CommissionProcessed, model.CommissionCompleted, false)
}

func (r *CommissionRepo) transition(ctx context.Context, id uint64, from, to string, stamp bool) error {
    q := "UPDATE comision SET estado = ? WHERE id = ? AND estado = ?"
    if stamp {
        q = "UPDATE comision SET estado = ?, fecha_procesamiento = UTC_TIMESTAMP() WHERE id = ? AND estado = ?"
    }
    res, err := r.db.ExecContext(ctx, q, to, id, from)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    // Distinguish a missing row from a wrong prior state.
    var exists int
    if err := r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM comision WHERE id = ?", id).Scan(&exists); err != nil {
        return err
    }
    if exists == 0 {
        return sql.ErrNoRows
    }
    return ErrInvalidTransition
}

// StatusSummary aggregates a status bucket of the period summary.
type StatusSummary struct {
    Count  int   `json:"cantidad"`
    Amount int64 `json:"monto_total"`
}

// Summarize aggregates commissions created within [start, end] inclusive:
// total amount, total count, and per-status buckets.
func (r *CommissionRepo) Summarize(ctx context.Context, start, end time.Time) (total int64, count int, byStatus map[string]StatusSummary, err error) {
    byStatus = make(map[string]StatusSummary, len(model.CommissionStatuses))
    for _, s := range model.CommissionStatuses {
        byStatus[s] = StatusSummary{}
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT estado, COUNT(*), COALESCE(SUM(monto), 0)
         FROM comision
         WHERE fecha_creacion >= ? AND fecha_creacion <= ?
         GROUP BY estado`,
        start.UTC(), end.UTC())
    if err != nil {
        return 0, 0, nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var (
            status string
            c      int
            amount int64
        )
        if err := rows.Scan(&status, &c, &amount); err != nil {
            return 0, 0, nil, err
        }
        byStatus[status] = StatusSummary{Count: c, Amount: amount}
        total += amount
        count += c
    }
    return total, count, byStatus, rows.Err()
}

// PayableGroup collects the processed commissions of one owner together
// with the running total owed, for the administrative payout workflow.
type PayableGroup struct {
    OwnerID     uint64             `json:"propietario_id"`
    OwnerName   string             `json:"propietario_nombre"`
    OwnerEmail  string             `json:"propietario_email"`
    Commissions []model.Commission `json:"-"`
    Total       int64              `json:"monto_total"`
}

// ListPayable returns all procesada commissions grouped by owner,
// including owner identity for the payout report.  Groups are ordered by
// owner id for deterministic output.
func (r *CommissionRepo) ListPayable(ctx context.Context) ([]PayableGroup, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT c.id, c.pago_id, c.propietario_id, c.monto, c.porcentaje, c.estado, c.descripcion, c.fecha_creacion, c.fecha_procesamiento,
                u.nombres, u.appaterno, u.email
         FROM comision c
         JOIN usuario u ON u.id = c.propietario_id
         WHERE c.estado = ?
         ORDER BY c.propietario_id ASC, c.fecha_creacion ASC`,
        model.CommissionProcessed)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    groups := make([]PayableGroup, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var (
            c           model.Commission
            desc        sql.NullString
            processedAt sql.NullTime
            names       string
            surname     string
            email       string
        )
        if err := rows.Scan(&c.ID, &c.PaymentID, &c.OwnerID, &c.Amount, &c.Percentage, &c.Status,
            &desc, &c.CreatedAt, &processedAt, &names, &surname, &email); err != nil {
            return nil, err
        }
        if desc.Valid {
            v := desc.String
            c.Description = &v
        }
        if processedAt.Valid {
            t := processedAt.Time
            c.ProcessedAt = &t
        }
        idx, ok := index[c.OwnerID]
        if !ok {
            idx = len(groups)
            index[c.OwnerID] = idx
            groups = append(groups, PayableGroup{
                OwnerID:    c.OwnerID,
                OwnerName:  names + " " + surname,
                OwnerEmail: email,
            })
        }
        groups[idx].Commissions = append(groups[idx].Commissions, c)
        groups[idx].Total += c.Amount
    }
    return groups, rows.Err()
}

type commissionScanner interface {
    Scan(dest ...interface{}) error
}

func scanCommission(row commissionScanner) (*model.Commission, error) {
    var (
        c           model.Commission
        desc        sql.NullString
        processedAt sql.NullTime
    )
    err := row.Scan(&c.ID, &c.PaymentID, &c.OwnerID, &c.Amount, &c.Percentage,
        &c.Status, &desc, &c.CreatedAt, &processedAt)
    if err != nil {
        return nil, err
    }
    if desc.Valid {
        v := desc.String
        c.Description = &v
    }
    if processedAt.Valid {
        t := processedAt.Time
        c.ProcessedAt = &t
    }
    return &c, nil
}

func collectCommissions(rows *sql.Rows) ([]model.Commission, error) {
    out := make([]model.Commission, 0)
    for rows.Next() {
        c, err := scanCommission(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *c)
    }
    return out, rows.Err()
}
