// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentApprovedEvent is published when a gateway webhook confirms a
// payment.  It contains enough information for downstream consumers to
// log, notify, or trigger payout tooling without querying the primary
// database.
type PaymentApprovedEvent struct {
    PaymentID        uint64 `json:"payment_id"`
    ReservationID    uint64 `json:"reservation_id"`
    PropertyID       uint64 `json:"property_id"`
    OwnerID          uint64 `json:"owner_id"`
    TotalAmount      int64  `json:"total_amount_cents"`
    OwnerAmount      int64  `json:"owner_amount_cents"`
    CommissionAmount int64  `json:"commission_amount_cents"`
    Currency         string `json:"currency"`
    GatewayPaymentID string `json:"gateway_payment_id"`
    ApprovedAt       string `json:"approved_at"`
}
