package handler

import (
    "context"
    "database/sql"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/repository"
)

type fakePropertyStore struct {
    owners      map[uint64]uint64 // property id -> linked owner id
    deactivated []uint64
}

func (f *fakePropertyStore) Create(context.Context, *model.Property) error { return nil }

func (f *fakePropertyStore) GetByID(context.Context, uint64) (*model.Property, error) {
    return nil, sql.ErrNoRows
}

func (f *fakePropertyStore) List(context.Context, repository.PropertyFilter, int, int, string) ([]model.Property, error) {
    return nil, nil
}

func (f *fakePropertyStore) Update(context.Context, uint64, repository.PropertyPatch) error {
    return nil
}

func (f *fakePropertyStore) AppendMedia(context.Context, uint64, []string, *string) error {
    return nil
}

func (f *fakePropertyStore) Deactivate(_ context.Context, id uint64) error {
    f.deactivated = append(f.deactivated, id)
    return nil
}

func (f *fakePropertyStore) AddOwner(context.Context, uint64, uint64) error { return nil }

func (f *fakePropertyStore) IsOwner(_ context.Context, userID, propertyID uint64) (bool, error) {
    return f.owners[propertyID] == userID, nil
}

func (f *fakePropertyStore) OwnerLinks(context.Context, uint64) ([]model.OwnerLink, error) {
    return nil, nil
}

func propertyCtx(e *echo.Echo, uid uint64, role, propertyID string) (echo.Context, *httptest.ResponseRecorder) {
    req := httptest.NewRequest(http.MethodDelete, "/v1/propiedades/"+propertyID, nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uid)
    c.Set("role", role)
    c.SetParamNames("id")
    c.SetParamValues(propertyID)
    return c, rec
}

// A non-owner's delete must stop at the ownership check: nothing may
// reach the store after the 403.
func TestDeleteRefusesNonOwner(t *testing.T) {
    e := echo.New()
    store := &fakePropertyStore{owners: map[uint64]uint64{3: 9}}
    h := &PropertyHandler{Properties: store}

    c, rec := propertyCtx(e, 5, model.RoleOwner, "3")
    if err := h.Delete(c); err != nil {
        t.Fatalf("Delete: %v", err)
    }
    if rec.Code != http.StatusForbidden {
        t.Fatalf("status = %d, want 403", rec.Code)
    }
    if len(store.deactivated) != 0 {
        t.Fatalf("deactivations = %v, want none", store.deactivated)
    }
}

func TestDeleteByLinkedOwner(t *testing.T) {
    e := echo.New()
    store := &fakePropertyStore{owners: map[uint64]uint64{3: 9}}
    h := &PropertyHandler{Properties: store}

    c, rec := propertyCtx(e, 9, model.RoleOwner, "3")
    if err := h.Delete(c); err != nil {
        t.Fatalf("Delete: %v", err)
    }
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200", rec.Code)
    }
    if len(store.deactivated) != 1 || store.deactivated[0] != 3 {
        t.Fatalf("deactivations = %v, want [3]", store.deactivated)
    }
}

func TestRequireOwnership(t *testing.T) {
    e := echo.New()
    store := &fakePropertyStore{owners: map[uint64]uint64{3: 9}}
    h := &PropertyHandler{Properties: store}

    t.Run("admin allowed", func(t *testing.T) {
        c, _ := propertyCtx(e, 1, model.RoleAdmin, "3")
        if ok, err := h.requireOwnership(context.Background(), c, 3); !ok || err != nil {
            t.Fatalf("requireOwnership = (%v, %v), want (true, nil)", ok, err)
        }
    })

    t.Run("missing identity refused", func(t *testing.T) {
        req := httptest.NewRequest(http.MethodDelete, "/v1/propiedades/3", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        ok, err := h.requireOwnership(context.Background(), c, 3)
        if ok {
            t.Fatal("anonymous caller reported as allowed")
        }
        if err != nil {
            t.Fatalf("refusal write failed: %v", err)
        }
        if rec.Code != http.StatusUnauthorized {
            t.Errorf("status = %d, want 401", rec.Code)
        }
    })
}
