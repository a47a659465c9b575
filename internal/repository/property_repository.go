package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"

    "github.com/arriendoya/booking-api/internal/model"
)

// PropertyRepo provides data access to the propiedad table and the
// usuario_propiedad ownership links.  Image paths are stored as a JSON
// array in a single column, mirroring how the listing serves them.
type PropertyRepo struct {
    db *sql.DB
}

// NewPropertyRepo returns a new PropertyRepo bound to the given database.
func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// PropertyFilter restricts List results.  Zero values mean "no filter".
// Only equality and price-range filters are supported; free text search
// is out of scope.
type PropertyFilter struct {
    Type      string
    CommuneID uint64
    PriceMin  int64 // cents, inclusive; 0 disables
    PriceMax  int64 // cents, inclusive; 0 disables
}

// orderable lists the columns List accepts for order_by.  Anything else
// silently falls back to id so callers cannot inject SQL through the
// ordering parameter.
var orderable = map[string]string{
    "id":          "id",
    "nombre":      "nombre",
    "tipo":        "tipo",
    "precio_hora": "precio_hora",
}

const propertyColumns = "id, nombre, descripcion, direccion, tipo, cod_postal, capacidad, precio_hora, comuna_id, imagenes, documento, activo, validado"

// Create inserts a property and populates its generated ID.
func (r *PropertyRepo) Create(ctx context.Context, p *model.Property) error {
    imgs, err := json.Marshal(p.Images)
    if err != nil {
        return err
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO propiedad (nombre, descripcion, direccion, tipo, cod_postal, capacidad, precio_hora, comuna_id, imagenes, documento, activo, validado)
         VALUES (?,?,?,?,?,?,?,?,?,?,1,0)`,
        p.Name, p.Description, p.Address, p.Type, p.PostalCode, p.Capacity, p.PricePerHour, p.CommuneID, string(imgs), p.Document)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    p.Active = true
    return nil
}

// GetByID returns a single property, active or not.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (*model.Property, error) {
    row := r.db.QueryRowContext(ctx,
        "SELECT "+propertyColumns+" FROM propiedad WHERE id = ?", id)
    return scanProperty(row)
}

// List returns active properties matching the filter, with offset/limit
// pagination and an allow-listed order_by column.
func (r *PropertyRepo) List(ctx context.Context, f PropertyFilter, offset, limit int, orderBy string) ([]model.Property, error) {
    where := []string{"activo = 1"}
    args := make([]interface{}, 0, 6)
    if f.Type != "" {
        where = append(where, "tipo = ?")
        args = append(args, f.Type)
    }
    if f.CommuneID != 0 {
        where = append(where, "comuna_id = ?")
        args = append(args, f.CommuneID)
    }
    if f.PriceMin > 0 {
        where = append(where, "precio_hora >= ?")
        args = append(args, f.PriceMin)
    }
    if f.PriceMax > 0 {
        where = append(where, "precio_hora <= ?")
        args = append(args, f.PriceMax)
    }
    col, ok := orderable[orderBy]
    if !ok {
        col = "id"
    }
    q := "SELECT " + propertyColumns + " FROM propiedad WHERE " + strings.Join(where, " AND ") +
        " ORDER BY " + col + " LIMIT ? OFFSET ?"
    args = append(args, limit, offset)

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Property, 0)
    for rows.Next() {
        p, err := scanProperty(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    return out, rows.Err()
}

// PropertyPatch is the allow-listed set of updatable fields.  A nil
// pointer leaves the column untouched; this replaces the dynamic
// attribute-copy update of earlier iterations.
type PropertyPatch struct {
    Name         *string
    Description  *string
    Address      *string
    Type         *string
    PostalCode   *string
    Capacity     *int
    PricePerHour *int64
    Validated    *bool
}

// Update applies the patch to a property.  It returns sql.ErrNoRows when
// the property does not exist.
func (r *PropertyRepo) Update(ctx context.Context, id uint64, patch PropertyPatch) error {
    set := make([]string, 0, 8)
    args := make([]interface{}, 0, 9)
    add := func(col string, v interface{}) {
        set = append(set, col+" = ?")
        args = append(args, v)
    }
    if patch.Name != nil {
        add("nombre", *patch.Name)
    }
    if patch.Description != nil {
        add("descripcion", *patch.Description)
    }
    if patch.Address != nil {
        add("direccion", *patch.Address)
    }
    if patch.Type != nil {
        add("tipo", *patch.Type)
    }
    if patch.PostalCode != nil {
        add("cod_postal", *patch.PostalCode)
    }
    if patch.Capacity != nil {
        add("capacidad", *patch.Capacity)
    }
    if patch.PricePerHour != nil {
        add("precio_hora", *patch.PricePerHour)
    }
    if patch.Validated != nil {
        add("validado", *patch.Validated)
    }
    if len(set) == 0 {
        return nil
    }
    args = append(args, id)
    res, err := r.db.ExecContext(ctx,
        "UPDATE propiedad SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// AppendMedia stores the uploaded image paths and optional document path
// on an existing property.
func (r *PropertyRepo) AppendMedia(ctx context.Context, id uint64, images []string, document *string) error {
    p, err := r.GetByID(ctx, id)
    if err != nil {
        return err
    }
    p.Images = append(p.Images, images...)
    imgs, err := json.Marshal(p.Images)
    if err != nil {
        return err
    }
    if document != nil {
        _, err = r.db.ExecContext(ctx,
            "UPDATE propiedad SET imagenes = ?, documento = ? WHERE id = ?", string(imgs), *document, id)
        return err
    }
    _, err = r.db.ExecContext(ctx, "UPDATE propiedad SET imagenes = ? WHERE id = ?", string(imgs), id)
    return err
}

// Deactivate soft-deletes a property.  Listings disappear from List but
// reservations and payments keep their foreign keys intact.
func (r *PropertyRepo) Deactivate(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "UPDATE propiedad SET activo = 0 WHERE id = ?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// AddOwner creates an ownership link starting now.
func (r *PropertyRepo) AddOwner(ctx context.Context, userID, propertyID uint64) error {
    _, err := r.db.ExecContext(ctx,
        "INSERT INTO usuario_propiedad (usuario_id, propiedad_id, fecha_inicio) VALUES (?,?,UTC_TIMESTAMP())",
        userID, propertyID)
    return err
}

// IsOwner reports whether the user has an in-force ownership link on the
// property.
func (r *PropertyRepo) IsOwner(ctx context.Context, userID, propertyID uint64) (bool, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM usuario_propiedad
         WHERE usuario_id = ? AND propiedad_id = ? AND fecha_inicio <= UTC_TIMESTAMP()
           AND (fecha_termino IS NULL OR fecha_termino > UTC_TIMESTAMP())`,
        userID, propertyID).Scan(&n)
    return n > 0, err
}

// PrimaryOwnerID resolves the commission recipient for a property: the
// in-force ownership link with the earliest fecha_inicio.  It returns
// ErrNoOwner when no link is in force, which callers must log rather
// than swallow.
func (r *PropertyRepo) PrimaryOwnerID(ctx context.Context, propertyID uint64) (uint64, error) {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT usuario_id FROM usuario_propiedad
         WHERE propiedad_id = ? AND fecha_inicio <= UTC_TIMESTAMP()
           AND (fecha_termino IS NULL OR fecha_termino > UTC_TIMESTAMP())
         ORDER BY fecha_inicio ASC, usuario_id ASC
         LIMIT 1`,
        propertyID).Scan(&ownerID)
    if err == sql.ErrNoRows {
        return 0, ErrNoOwner
    }
    if err != nil {
        return 0, err
    }
    return ownerID, nil
}

type propertyScanner interface {
    Scan(dest ...interface{}) error
}

func scanProperty(row propertyScanner) (*model.Property, error) {
    var (
        p        model.Property
        name     sql.NullString
        capacity sql.NullInt64
        commune  sql.NullInt64
        images   sql.NullString
        document sql.NullString
    )
    err := row.Scan(&p.ID, &name, &p.Description, &p.Address, &p.Type, &p.PostalCode,
        &capacity, &p.PricePerHour, &commune, &images, &document, &p.Active, &p.Validated)
    if err != nil {
        return nil, err
    }
    if name.Valid {
        v := name.String
        p.Name = &v
    }
    if capacity.Valid {
        v := int(capacity.Int64)
        p.Capacity = &v
    }
    if commune.Valid {
        v := uint64(commune.Int64)
        p.CommuneID = &v
    }
    p.Images = []string{}
    if images.Valid && strings.TrimSpace(images.String) != "" {
        if err := json.Unmarshal([]byte(images.String), &p.Images); err != nil {
            p.Images = []string{}
        }
    }
    if document.Valid {
        v := document.String
        p.Document = &v
    }
    return &p, nil
}

// OwnerLinks returns every ownership link of a property, oldest first.
// Used by admin tooling to audit attribution.
func (r *PropertyRepo) OwnerLinks(ctx context.Context, propertyID uint64) ([]model.OwnerLink, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT usuario_id, propiedad_id, fecha_inicio, fecha_termino
         FROM usuario_propiedad WHERE propiedad_id = ? ORDER BY fecha_inicio ASC`,
        propertyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    links := make([]model.OwnerLink, 0)
    for rows.Next() {
        var (
            l   model.OwnerLink
            end sql.NullTime
        )
        if err := rows.Scan(&l.UserID, &l.PropertyID, &l.StartsAt, &end); err != nil {
            return nil, err
        }
        if end.Valid {
            t := end.Time
            l.EndsAt = &t
        }
        links = append(links, l)
    }
    return links, rows.Err()
}
