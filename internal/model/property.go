package model

import "time"

// Property represents a rentable space as stored in the `propiedad`
// table.  Pricing is per hour in cents.  Images holds the relative
// media paths serialized as a JSON array in the database.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – optional display name.
//  Description  – free text description.
//  Address      – street address.
//  Type         – property category (office, hall, studio, ...).
//  PostalCode   – postal code.
//  Capacity     – optional maximum of people.
//  PricePerHour – hourly price in cents.
//  CommuneID    – commune the property belongs to (plain column, no
//                 supporting CRUD surface here).
//  Images       – relative paths of uploaded images.
//  Document     – relative path of the optional ownership document.
//  Active       – soft-delete flag.
//  Validated    – whether an admin validated the listing.
type Property struct {
    ID           uint64   // propiedad.id
    Name         *string  // propiedad.nombre (nullable)
    Description  string   // propiedad.descripcion
    Address      string   // propiedad.direccion
    Type         string   // propiedad.tipo
    PostalCode   string   // propiedad.cod_postal
    Capacity     *int     // propiedad.capacidad (nullable)
    PricePerHour int64    // propiedad.precio_hora
    CommuneID    *uint64  // propiedad.comuna_id (nullable)
    Images       []string // propiedad.imagenes (JSON array)
    Document     *string  // propiedad.documento (nullable)
    Active       bool     // propiedad.activo
    Validated    bool     // propiedad.validado
}

// OwnerLink models a row of the `usuario_propiedad` intersection table.
// Ownership carries a validity window; a link is in force when StartsAt
// has passed and EndsAt is unset or in the future.  The primary owner of
// a property is the in-force link with the earliest StartsAt.
//
// Fields:
//  UserID     – owning user.
//  PropertyID – owned property.
//  StartsAt   – when ownership begins.
//  EndsAt     – when ownership ends (null for open-ended).
type OwnerLink struct {
    UserID     uint64     // usuario_propiedad.usuario_id
    PropertyID uint64     // usuario_propiedad.propiedad_id
    StartsAt   time.Time  // usuario_propiedad.fecha_inicio
    EndsAt     *time.Time // usuario_propiedad.fecha_termino (nullable)
}

// InForce reports whether the ownership link applies at the given instant.
func (l OwnerLink) InForce(at time.Time) bool {
    if at.Before(l.StartsAt) {
        return false
    }
    return l.EndsAt == nil || l.EndsAt.After(at)
}
