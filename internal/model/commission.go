package model

import "time"

// Commission status values stored in comision.estado.  The lifecycle is
// strictly pendiente -> procesada -> completada; every step requires the
// prior state.
const (
    CommissionPending   = "pendiente"
    CommissionProcessed = "procesada"
    CommissionCompleted = "completada"
)

// CommissionStatuses lists every state in lifecycle order, for summaries.
var CommissionStatuses = []string{CommissionPending, CommissionProcessed, CommissionCompleted}

// Commission represents the payout owed to a property owner from an
// approved payment, stored in the `comision` table.  Exactly one
// commission exists per approved payment.
//
// Fields:
//  ID          – primary key identifier.
//  PaymentID   – originating approved payment.
//  OwnerID     – property owner receiving the payout.
//  Amount      – payout in cents; equals the payment's owner share.
//  Percentage  – commission rate applied when the payment was split.
//  Status      – lifecycle state.
//  Description – human readable origin of the commission.
//  CreatedAt   – creation timestamp.
//  ProcessedAt – when an admin marked it procesada (nullable).
type Commission struct {
    ID          uint64     // comision.id
    PaymentID   uint64     // comision.pago_id
    OwnerID     uint64     // comision.propietario_id
    Amount      int64      // comision.monto
    Percentage  float64    // comision.porcentaje
    Status      string     // comision.estado
    Description *string    // comision.descripcion (nullable)
    CreatedAt   time.Time  // comision.fecha_creacion
    ProcessedAt *time.Time // comision.fecha_procesamiento (nullable)
}

// ValidCommissionStatus reports whether s is a known commission state.
func ValidCommissionStatus(s string) bool {
    return s == CommissionPending || s == CommissionProcessed || s == CommissionCompleted
}

// CheckCommissionTransition validates a status change.  Only the two
// forward steps of the lifecycle are legal; anything else, including
// skipping procesada, is rejected.
func CheckCommissionTransition(from, to string) error {
    if from == CommissionPending && to == CommissionProcessed {
        return nil
    }
    if from == CommissionProcessed && to == CommissionCompleted {
        return nil
    }
    return ErrBadTransition
}
