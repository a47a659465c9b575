package model

import "time"

// Invoice models a row of the `boleta` table.  One invoice is emitted for
// a reservation when its payment is approved.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation the invoice belongs to.
//  Total         – invoiced amount in cents.
//  IssuedAt      – emission timestamp.
type Invoice struct {
    ID            uint64    // boleta.id
    ReservationID uint64    // boleta.reserva_id
    Total         int64     // boleta.total
    IssuedAt      time.Time // boleta.emision
}
