package model

import "time"

// Payment status values stored in pago.estado.  A payment starts pending
// and is moved to exactly one of the terminal states by webhook
// processing; terminal states never change again.
const (
    PaymentPending   = "pendiente"
    PaymentApproved  = "aprobado"
    PaymentRejected  = "rechazado"
    PaymentCancelled = "cancelado"
)

// CommissionRate is the platform share of every payment, in percent.
const CommissionRate = 5

// Payment represents a collection attempt against a reservation through
// the MercadoPago gateway, stored in the `pago` table.  Amounts are in
// cents; the gateway operates in major units and the conversion happens
// at the gateway boundary.
//
// Fields:
//  ID                – primary key identifier.
//  ReservationID     – reservation being paid.
//  TotalAmount       – full amount in cents.
//  OwnerAmount       – share owed to the property owner (absorbs rounding).
//  CommissionAmount  – platform share, floor(total × 5%).
//  Currency          – ISO currency code, defaults to CLP.
//  GatewayPaymentID  – payment id assigned by the gateway (nullable).
//  PreferenceID      – checkout preference id (nullable).
//  ExternalReference – correlation value sent to the gateway; always the
//                      local payment id so repeated intents stay distinct.
//  GatewayStatus     – raw status string last reported by the gateway.
//  Status            – local lifecycle state.
//  CreatedAt         – creation timestamp.
//  ProcessedAt       – when a webhook last touched the row (nullable).
type Payment struct {
    ID                uint64     // pago.id
    ReservationID     uint64     // pago.reserva_id
    TotalAmount       int64      // pago.monto_total
    OwnerAmount       int64      // pago.monto_propietario
    CommissionAmount  int64      // pago.monto_comision
    Currency          string     // pago.moneda
    GatewayPaymentID  *string    // pago.mp_payment_id (nullable)
    PreferenceID      *string    // pago.mp_preference_id (nullable)
    ExternalReference string     // pago.mp_external_reference
    GatewayStatus     *string    // pago.mp_status (nullable)
    Status            string     // pago.estado
    CreatedAt         time.Time  // pago.fecha_creacion
    ProcessedAt       *time.Time // pago.fecha_procesamiento (nullable)
}

// SplitAmount divides a total into the owner share and the platform
// commission.  The commission is floor(total × 5%) and the owner share
// absorbs the remainder, so the two always add back to the total.
func SplitAmount(total int64) (owner, commission int64) {
    commission = total * CommissionRate / 100
    owner = total - commission
    return owner, commission
}

// MapGatewayStatus translates a gateway status string into the local
// payment state.  Only approved, rejected and cancelled have a defined
// mapping; for anything else ok is false and the local status must stay
// untouched while the raw value is still recorded.
func MapGatewayStatus(gatewayStatus string) (status string, ok bool) {
    switch gatewayStatus {
    case "approved":
        return PaymentApproved, true
    case "rejected":
        return PaymentRejected, true
    case "cancelled":
        return PaymentCancelled, true
    default:
        return "", false
    }
}

// PaymentTerminal reports whether a payment state admits no further
// transitions.
func PaymentTerminal(s string) bool {
    return s == PaymentApproved || s == PaymentRejected || s == PaymentCancelled
}

// CheckPaymentTransition validates a payment status change: only
// pendiente may move, and only into a terminal state.
func CheckPaymentTransition(from, to string) error {
    if from == to {
        return nil
    }
    if from == PaymentPending && PaymentTerminal(to) {
        return nil
    }
    return ErrBadTransition
}
