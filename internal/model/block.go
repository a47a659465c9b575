package model

import "time"

// UserBlock models a suspension record in the `bloqueo_usuario` table.
// A user may accumulate several historical records; the user is blocked
// while any record's window covers the current time.  Records are never
// deleted, unblocking sets UnblockedAt.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – suspended user.
//  AdminID     – administrator who issued the block.
//  Reason      – free text motive.
//  BlockedAt   – when the suspension started.
//  UnblockedAt – end of the suspension; null means indefinite, a future
//                value means a temporal block still in force.
type UserBlock struct {
    ID          uint64     // bloqueo_usuario.id
    UserID      uint64     // bloqueo_usuario.usuario_id
    AdminID     uint64     // bloqueo_usuario.admin_id
    Reason      string     // bloqueo_usuario.motivo
    BlockedAt   time.Time  // bloqueo_usuario.fecha_bloqueo
    UnblockedAt *time.Time // bloqueo_usuario.fecha_desbloqueo (nullable)
}

// Covers reports whether this block record suspends the user at the given
// instant: the block has started and either never ends or ends later.
func (b UserBlock) Covers(at time.Time) bool {
    if at.Before(b.BlockedAt) {
        return false
    }
    return b.UnblockedAt == nil || b.UnblockedAt.After(at)
}
