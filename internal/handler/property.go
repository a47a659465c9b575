package handler

import (
    "context"
    "database/sql"
    "errors"
    "io"
    "mime/multipart"
    "net/http"
    "os"
    "path/filepath"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/arriendoya/booking-api/internal/config"
    "github.com/arriendoya/booking-api/internal/middleware"
    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/repository"
)

// PropertyStore is the property persistence surface the handler needs.
type PropertyStore interface {
    Create(ctx context.Context, p *model.Property) error
    GetByID(ctx context.Context, id uint64) (*model.Property, error)
    List(ctx context.Context, f repository.PropertyFilter, offset, limit int, orderBy string) ([]model.Property, error)
    Update(ctx context.Context, id uint64, patch repository.PropertyPatch) error
    AppendMedia(ctx context.Context, id uint64, images []string, document *string) error
    Deactivate(ctx context.Context, id uint64) error
    AddOwner(ctx context.Context, userID, propertyID uint64) error
    IsOwner(ctx context.Context, userID, propertyID uint64) (bool, error)
    OwnerLinks(ctx context.Context, propertyID uint64) ([]model.OwnerLink, error)
}

// PropertyHandler serves the property listing CRUD plus file uploads.
type PropertyHandler struct {
    Cfg        config.Config
    Properties PropertyStore
}

func NewPropertyHandler(cfg config.Config, p *repository.PropertyRepo) *PropertyHandler {
    return &PropertyHandler{Cfg: cfg, Properties: p}
}

type propertyResp struct {
    ID           uint64   `json:"id"`
    Name         *string  `json:"nombre"`
    Description  string   `json:"descripcion"`
    Address      string   `json:"direccion"`
    Type         string   `json:"tipo"`
    PostalCode   string   `json:"cod_postal"`
    Capacity     *int     `json:"capacidad"`
    PricePerHour int64    `json:"precio_hora"`
    CommuneID    *uint64  `json:"comuna_id"`
    Images       []string `json:"imagenes"`
    Document     *string  `json:"documento"`
    Active       bool     `json:"activo"`
    Validated    bool     `json:"validado"`
}

func toPropertyResp(p *model.Property) propertyResp {
    return propertyResp{
        ID:           p.ID,
        Name:         p.Name,
        Description:  p.Description,
        Address:      p.Address,
        Type:         p.Type,
        PostalCode:   p.PostalCode,
        Capacity:     p.Capacity,
        PricePerHour: p.PricePerHour,
        CommuneID:    p.CommuneID,
        Images:       p.Images,
        Document:     p.Document,
        Active:       p.Active,
        Validated:    p.Validated,
    }
}

// Create registers a property from a multipart form.  Text fields carry
// the listing data; images[] and documento are optional uploads stored
// under the media directory and referenced by URL path in the row.  The
// creating owner becomes the first usuario_propiedad link.
func (h *PropertyHandler) Create(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    desc := strings.TrimSpace(c.FormValue("descripcion"))
    addr := strings.TrimSpace(c.FormValue("direccion"))
    ptype := strings.TrimSpace(c.FormValue("tipo"))
    postal := strings.TrimSpace(c.FormValue("cod_postal"))
    if desc == "" || addr == "" || ptype == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "descripcion/direccion/tipo required"})
    }
    price, err := strconv.ParseInt(c.FormValue("precio_hora"), 10, 64)
    if err != nil || price <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "precio_hora must be a positive integer (cents)"})
    }

    p := &model.Property{
        Description:  desc,
        Address:      addr,
        Type:         ptype,
        PostalCode:   postal,
        PricePerHour: price,
        Images:       []string{},
    }
    if v := strings.TrimSpace(c.FormValue("nombre")); v != "" {
        p.Name = &v
    }
    if v := c.FormValue("capacidad"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacidad must be a positive integer"})
        }
        p.Capacity = &n
    }
    if v := c.FormValue("comuna_id"); v != "" {
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "comuna_id must be an integer"})
        }
        p.CommuneID = &n
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if err := h.Properties.Create(ctx, p); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create property failed"})
    }
    if err := h.Properties.AddOwner(ctx, uid, p.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link owner failed"})
    }

    // Uploads are named after the property so they come after the insert.
    images, document, err := h.saveUploads(c, p.ID)
    if err != nil {
        middleware.Logger(c).Error("saving uploads failed",
            zap.Uint64("property_id", p.ID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "saving uploads failed"})
    }
    if len(images) > 0 || document != nil {
        if err := h.Properties.AppendMedia(ctx, p.ID, images, document); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "saving uploads failed"})
        }
        p.Images = append(p.Images, images...)
        p.Document = document
    }

    return c.JSON(http.StatusCreated, toPropertyResp(p))
}

// saveUploads persists images[] and documento from the multipart form
// under <MediaDir>/propiedades/<id>/ and returns the public URL paths.
func (h *PropertyHandler) saveUploads(c echo.Context, propertyID uint64) ([]string, *string, error) {
    form, err := c.MultipartForm()
    if err != nil {
        // No multipart body at all is fine; the listing just has no media.
        if errors.Is(err, http.ErrNotMultipart) {
            return nil, nil, nil
        }
        return nil, nil, err
    }

    dir := filepath.Join(h.Cfg.MediaDir, "propiedades", strconv.FormatUint(propertyID, 10))
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return nil, nil, err
    }

    var images []string
    for _, fh := range form.File["images"] {
        name := sanitizeFilename(fh.Filename)
        if err := saveMultipartFile(fh, filepath.Join(dir, name)); err != nil {
            return nil, nil, err
        }
        images = append(images, mediaPath(propertyID, name))
    }

    var document *string
    if fhs := form.File["documento"]; len(fhs) > 0 {
        name := sanitizeFilename(fhs[0].Filename)
        if err := saveMultipartFile(fhs[0], filepath.Join(dir, name)); err != nil {
            return nil, nil, err
        }
        v := mediaPath(propertyID, name)
        document = &v
    }
    return images, document, nil
}

func mediaPath(propertyID uint64, name string) string {
    return "/media/propiedades/" + strconv.FormatUint(propertyID, 10) + "/" + name
}

// sanitizeFilename strips any path components and keeps a conservative
// character set; everything else becomes an underscore.
func sanitizeFilename(name string) string {
    name = filepath.Base(name)
    var b strings.Builder
    for _, r := range name {
        switch {
        case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
            r == '.', r == '-', r == '_':
            b.WriteRune(r)
        default:
            b.WriteRune('_')
        }
    }
    out := b.String()
    if out == "" || out == "." || out == ".." {
        out = "archivo"
    }
    return out
}

func saveMultipartFile(fh *multipart.FileHeader, dst string) error {
    src, err := fh.Open()
    if err != nil {
        return err
    }
    defer src.Close()
    out, err := os.Create(dst)
    if err != nil {
        return err
    }
    defer out.Close()
    _, err = io.Copy(out, src)
    return err
}

// List returns active properties with optional filters: tipo, comuna_id,
// precio_min, precio_max, plus order_by and offset/limit paging.
func (h *PropertyHandler) List(c echo.Context) error {
    var f repository.PropertyFilter
    f.Type = strings.TrimSpace(c.QueryParam("tipo"))
    if v := c.QueryParam("comuna_id"); v != "" {
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "comuna_id must be an integer"})
        }
        f.CommuneID = n
    }
    if v := c.QueryParam("precio_min"); v != "" {
        n, err := strconv.ParseInt(v, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "precio_min must be an integer"})
        }
        f.PriceMin = n
    }
    if v := c.QueryParam("precio_max"); v != "" {
        n, err := strconv.ParseInt(v, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "precio_max must be an integer"})
        }
        f.PriceMax = n
    }
    offset, limit := pageParams(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    props, err := h.Properties.List(ctx, f, offset, limit, c.QueryParam("order_by"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list properties failed"})
    }
    out := make([]propertyResp, 0, len(props))
    for i := range props {
        out = append(out, toPropertyResp(&props[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns one property by id.
func (h *PropertyHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p, err := h.Properties.GetByID(ctx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get property failed"})
    }
    return c.JSON(http.StatusOK, toPropertyResp(p))
}

type propertyUpdateReq struct {
    Name         *string `json:"nombre"`
    Description  *string `json:"descripcion"`
    Address      *string `json:"direccion"`
    Type         *string `json:"tipo"`
    PostalCode   *string `json:"cod_postal"`
    Capacity     *int    `json:"capacidad"`
    PricePerHour *int64  `json:"precio_hora"`
    Validated    *bool   `json:"validado"`
}

// Update patches a property.  Only a linked owner or an admin may call
// it, and only admins may touch validado.
func (h *PropertyHandler) Update(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req propertyUpdateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if ok, err := h.requireOwnership(ctx, c, id); !ok {
        return err
    }
    if req.Validated != nil && middleware.Role(c) != model.RoleAdmin {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only admin may change validado"})
    }
    if req.PricePerHour != nil && *req.PricePerHour <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "precio_hora must be positive"})
    }

    patch := repository.PropertyPatch(req)
    if err := h.Properties.Update(ctx, id, patch); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update property failed"})
    }

    p, err := h.Properties.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get property failed"})
    }
    return c.JSON(http.StatusOK, toPropertyResp(p))
}

// Delete soft-deletes a property (activo = 0).  The row and its media
// survive so historical reservations keep resolving.
func (h *PropertyHandler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if ok, err := h.requireOwnership(ctx, c, id); !ok {
        return err
    }
    if err := h.Properties.Deactivate(ctx, id); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete property failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "property deactivated"})
}

// Owners lists the ownership links of a property (admin only route).
func (h *PropertyHandler) Owners(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    links, err := h.Properties.OwnerLinks(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list owners failed"})
    }
    out := make([]echo.Map, 0, len(links))
    for _, l := range links {
        m := echo.Map{
            "usuario_id":   l.UserID,
            "fecha_inicio": l.StartsAt,
        }
        if l.EndsAt != nil {
            m["fecha_termino"] = l.EndsAt
        }
        out = append(out, m)
    }
    return c.JSON(http.StatusOK, out)
}

// requireOwnership reports whether the caller may mutate the property:
// an admin or a linked owner.  When ok is false the refusal has already
// been written and its write error is returned; callers must stop there.
func (h *PropertyHandler) requireOwnership(ctx context.Context, c echo.Context, propertyID uint64) (bool, error) {
    if middleware.Role(c) == model.RoleAdmin {
        return true, nil
    }
    uid, ok := middleware.UserID(c)
    if !ok {
        return false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    owns, err := h.Properties.IsOwner(ctx, uid, propertyID)
    if err != nil {
        return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "ownership check failed"})
    }
    if !owns {
        return false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return true, nil
}
