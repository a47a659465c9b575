package repository

import (
    "context"
    "database/sql"
    "strconv"
    "time"

    "github.com/arriendoya/booking-api/internal/model"
)

// PaymentRepo provides data access to the pago table.  Intent creation
// and webhook confirmation are the only writers; both run behind a
// serialization point (a reservation row lock, and a status
// compare-and-swap respectively) so concurrent requests and duplicate
// webhook deliveries cannot corrupt the lifecycle.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id, reserva_id, monto_total, monto_propietario, monto_comision, moneda, mp_payment_id, mp_preference_id, mp_external_reference, mp_status, estado, fecha_creacion, fecha_procesamiento"

// CreateIntent inserts a payment row for a reservation inside a
// transaction.  The reservation row is locked FOR UPDATE and the open
// intent check runs under that lock, guaranteeing at most one pending
// payment per reservation even under concurrent requests.  The external
// reference is set to the generated payment id, not the reservation id,
// so repeated intents over retries stay distinguishable.
func (r *PaymentRepo) CreateIntent(ctx context.Context, p *model.Payment) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    // Serialize all intent creation for this reservation.
    var reservationID uint64
    err = tx.QueryRowContext(ctx,
        "SELECT id FROM reserva WHERE id = ? FOR UPDATE", p.ReservationID).Scan(&reservationID)
    if err != nil {
        return err
    }

    var open int
    err = tx.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM pago WHERE reserva_id = ? AND estado = ?",
        p.ReservationID, model.PaymentPending).Scan(&open)
    if err != nil {
        return err
    }
    if open > 0 {
        return ErrOpenIntent
    }

    res, err := tx.ExecContext(ctx,
        `INSERT INTO pago (reserva_id, monto_total, monto_propietario, monto_comision, moneda, estado)
         VALUES (?,?,?,?,?,?)`,
        p.ReservationID, p.TotalAmount, p.OwnerAmount, p.CommissionAmount, p.Currency, model.PaymentPending)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    p.Status = model.PaymentPending
    p.ExternalReference = strconv.FormatUint(p.ID, 10)

    if _, err = tx.ExecContext(ctx,
        "UPDATE pago SET mp_external_reference = ? WHERE id = ?", p.ExternalReference, p.ID); err != nil {
        return err
    }
    return tx.Commit()
}

// SetPreference stores the gateway preference id after a successful
// checkout session creation.
func (r *PaymentRepo) SetPreference(ctx context.Context, paymentID uint64, preferenceID string) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE pago SET mp_preference_id = ? WHERE id = ?", preferenceID, paymentID)
    return err
}

// GetByID returns a payment or sql.ErrNoRows.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
    row := r.db.QueryRowContext(ctx,
        "SELECT "+paymentColumns+" FROM pago WHERE id = ?", id)
    return scanPayment(row)
}

// FindByExternalReference resolves the payment a gateway record points
// back at.
func (r *PaymentRepo) FindByExternalReference(ctx context.Context, ref string) (*model.Payment, error) {
    row := r.db.QueryRowContext(ctx,
        "SELECT "+paymentColumns+" FROM pago WHERE mp_external_reference = ? LIMIT 1", ref)
    return scanPayment(row)
}

// RecordGatewayResult updates the informational gateway columns and,
// when newStatus is non-empty, transitions estado from pendiente via
// compare-and-swap.  The returned flag reports whether this call
// performed the transition; a duplicate delivery sees false and the
// caller knows the row was already terminal.  Informational columns are
// refreshed regardless, which keeps reprocessing idempotent for local
// state while tracking the latest gateway view.
func (r *PaymentRepo) RecordGatewayResult(ctx context.Context, paymentID uint64, gatewayPaymentID, gatewayStatus, newStatus string, processedAt time.Time) (bool, error) {
    if newStatus == "" {
        // No defined mapping for this gateway status: record it, leave
        // estado untouched.
        _, err := r.db.ExecContext(ctx,
            "UPDATE pago SET mp_payment_id = ?, mp_status = ?, fecha_procesamiento = ? WHERE id = ?",
            gatewayPaymentID, gatewayStatus, processedAt.UTC(), paymentID)
        return false, err
    }
    res, err := r.db.ExecContext(ctx,
        "UPDATE pago SET mp_payment_id = ?, mp_status = ?, fecha_procesamiento = ?, estado = ? WHERE id = ? AND estado = ?",
        gatewayPaymentID, gatewayStatus, processedAt.UTC(), newStatus, paymentID, model.PaymentPending)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n == 0 {
        // Terminal rows only get an informational refresh.
        _, err = r.db.ExecContext(ctx,
            "UPDATE pago SET mp_payment_id = ?, mp_status = ? WHERE id = ?",
            gatewayPaymentID, gatewayStatus, paymentID)
        return false, err
    }
    return true, nil
}

// ListByReservation returns every payment lineage entry of a reservation,
// oldest first.
func (r *PaymentRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.Payment, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+paymentColumns+" FROM pago WHERE reserva_id = ? ORDER BY fecha_creacion ASC", reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Payment, 0)
    for rows.Next() {
        p, err := scanPayment(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    return out, rows.Err()
}

type paymentScanner interface {
    Scan(dest ...interface{}) error
}

func scanPayment(row paymentScanner) (*model.Payment, error) {
    var (
        p           model.Payment
        gatewayID   sql.NullString
        prefID      sql.NullString
        extRef      sql.NullString
        gwStatus    sql.NullString
        processedAt sql.NullTime
    )
    err := row.Scan(&p.ID, &p.ReservationID, &p.TotalAmount, &p.OwnerAmount, &p.CommissionAmount,
        &p.Currency, &gatewayID, &prefID, &extRef, &gwStatus, &p.Status, &p.CreatedAt, &processedAt)
    if err != nil {
        return nil, err
    }
    if gatewayID.Valid {
        v := gatewayID.String
        p.GatewayPaymentID = &v
    }
    if prefID.Valid {
        v := prefID.String
        p.PreferenceID = &v
    }
    if extRef.Valid {
        p.ExternalReference = extRef.String
    }
    if gwStatus.Valid {
        v := gwStatus.String
        p.GatewayStatus = &v
    }
    if processedAt.Valid {
        t := processedAt.Time
        p.ProcessedAt = &t
    }
    return &p, nil
}
