package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/arriendoya/booking-api/internal/model"
)

// BlockRepo provides data access to the bloqueo_usuario table.  Block
// records are append-only history; unblocking stamps fecha_desbloqueo on
// the most recent record still in force.  A user may accumulate stacked
// records, the access layer only cares whether any window covers now.
type BlockRepo struct {
    db *sql.DB
}

// NewBlockRepo returns a new BlockRepo bound to the given database.
func NewBlockRepo(db *sql.DB) *BlockRepo { return &BlockRepo{db: db} }

const blockColumns = "id, usuario_id, admin_id, motivo, fecha_bloqueo, fecha_desbloqueo"

// IsActive reports whether the user may use the platform: true iff no
// block record's window covers the current time.
func (r *BlockRepo) IsActive(ctx context.Context, userID uint64) (bool, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bloqueo_usuario
         WHERE usuario_id = ? AND fecha_bloqueo <= UTC_TIMESTAMP()
           AND (fecha_desbloqueo IS NULL OR fecha_desbloqueo > UTC_TIMESTAMP())`,
        userID).Scan(&n)
    if err != nil {
        return false, err
    }
    return n == 0, nil
}

// ActiveBlock returns the most recent block record in force for the
// user, ordered by fecha_bloqueo descending, or sql.ErrNoRows.
func (r *BlockRepo) ActiveBlock(ctx context.Context, userID uint64) (*model.UserBlock, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+blockColumns+` FROM bloqueo_usuario
         WHERE usuario_id = ? AND fecha_bloqueo <= UTC_TIMESTAMP()
           AND (fecha_desbloqueo IS NULL OR fecha_desbloqueo > UTC_TIMESTAMP())
         ORDER BY fecha_bloqueo DESC
         LIMIT 1`,
        userID)
    return scanBlock(row)
}

// Block inserts a new suspension record.  unblockAt is optional: nil
// blocks indefinitely, a future time produces a temporal block.  An
// existing active block is not checked; records stack.
func (r *BlockRepo) Block(ctx context.Context, userID, adminID uint64, reason string, unblockAt *time.Time) (*model.UserBlock, error) {
    var until interface{}
    if unblockAt != nil {
        until = unblockAt.UTC()
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO bloqueo_usuario (usuario_id, admin_id, motivo, fecha_bloqueo, fecha_desbloqueo)
         VALUES (?,?,?,UTC_TIMESTAMP(),?)`,
        userID, adminID, reason, until)
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    row := r.db.QueryRowContext(ctx,
        "SELECT "+blockColumns+" FROM bloqueo_usuario WHERE id = ?", id)
    return scanBlock(row)
}

// Unblock lifts the user's suspension by stamping fecha_desbloqueo=now on
// the most recent record still in force.  ErrNoActiveBlock is returned
// when nothing is in force.
func (r *BlockRepo) Unblock(ctx context.Context, userID uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bloqueo_usuario
         SET fecha_desbloqueo = UTC_TIMESTAMP()
         WHERE usuario_id = ? AND fecha_bloqueo <= UTC_TIMESTAMP()
           AND (fecha_desbloqueo IS NULL OR fecha_desbloqueo > UTC_TIMESTAMP())
         ORDER BY fecha_bloqueo DESC
         LIMIT 1`,
        userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNoActiveBlock
    }
    return nil
}

// History returns every block record of a user, newest first.
func (r *BlockRepo) History(ctx context.Context, userID uint64) ([]model.UserBlock, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+blockColumns+" FROM bloqueo_usuario WHERE usuario_id = ? ORDER BY fecha_bloqueo DESC",
        userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.UserBlock, 0)
    for rows.Next() {
        b, err := scanBlock(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    return out, rows.Err()
}

type blockScanner interface {
    Scan(dest ...interface{}) error
}

func scanBlock(row blockScanner) (*model.UserBlock, error) {
    var (
        b         model.UserBlock
        unblocked sql.NullTime
    )
    err := row.Scan(&b.ID, &b.UserID, &b.AdminID, &b.Reason, &b.BlockedAt, &unblocked)
    if err != nil {
        return nil, err
    }
    if unblocked.Valid {
        t := unblocked.Time
        b.UnblockedAt = &t
    }
    return &b, nil
}
