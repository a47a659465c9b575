package model

import "time"

// Role values stored in usuario.tipo and carried in the JWT "role" claim.
const (
    RoleAdmin  = "admin"
    RoleClient = "cliente"
    RoleOwner  = "propietario"
)

// ValidRole reports whether the given string is a known account type.
func ValidRole(r string) bool {
    return r == RoleAdmin || r == RoleClient || r == RoleOwner
}

// User represents an application user record as stored in the `usuario`
// table.  Each field corresponds to a column in the database.  The json
// tags are omitted here because these structs are primarily used by the
// repository layer; handlers define separate response types with
// appropriate JSON tags so the password hash is never echoed.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  RUT          – unique national identifier.
//  Names        – given names.
//  Surname      – paternal surname.
//  SecondSurname – maternal surname.
//  BirthDate    – date of birth.
//  Role         – account type (admin, cliente, propietario).
//  PasswordHash – bcrypt hashed password.
//  Active       – whether the account is active.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID            uint64    // usuario.id
    Email         string    // usuario.email
    RUT           string    // usuario.rut
    Names         string    // usuario.nombres
    Surname       string    // usuario.appaterno
    SecondSurname string    // usuario.apmaterno
    BirthDate     time.Time // usuario.fecha_nacimiento
    Role          string    // usuario.tipo
    PasswordHash  string    // usuario.password
    Active        bool      // usuario.activo
    CreatedAt     time.Time // usuario.fecha_creacion
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The serialized JWT is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
