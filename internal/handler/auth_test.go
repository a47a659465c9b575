package handler

import (
    "context"
    "database/sql"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/arriendoya/booking-api/internal/config"
    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/utils"
)

type fakeUsers struct {
    byEmail map[string]model.User
}

func (f *fakeUsers) Create(_ context.Context, u *model.User, _ string, _ int) (uint64, error) {
    return 1, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    u, ok := f.byEmail[email]
    if !ok {
        return model.User{}, sql.ErrNoRows
    }
    return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    for _, u := range f.byEmail {
        if u.ID == id {
            return u, nil
        }
    }
    return model.User{}, sql.ErrNoRows
}

type fakeTokens struct {
    stored map[string]uint64
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
    f.stored[hash] = userID
    return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
    uid, ok := f.stored[hash]
    if !ok {
        return 0, sql.ErrNoRows
    }
    return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
    delete(f.stored, hash)
    return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
    for h, uid := range f.stored {
        if uid == userID {
            delete(f.stored, h)
        }
    }
    return nil
}

type fakeBlocks struct {
    blocked map[uint64]*model.UserBlock
}

func (f *fakeBlocks) IsActive(_ context.Context, userID uint64) (bool, error) {
    _, blocked := f.blocked[userID]
    return !blocked, nil
}

func (f *fakeBlocks) ActiveBlock(_ context.Context, userID uint64) (*model.UserBlock, error) {
    b, ok := f.blocked[userID]
    if !ok {
        return nil, sql.ErrNoRows
    }
    return b, nil
}

func authTestHandler(t *testing.T) (*AuthHandler, *fakeTokens, *fakeBlocks) {
    t.Helper()
    hash, err := utils.HashPassword("secret", 4)
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    users := &fakeUsers{byEmail: map[string]model.User{
        "ana@example.com": {
            ID:           7,
            Email:        "ana@example.com",
            Role:         model.RoleClient,
            PasswordHash: hash,
            Active:       true,
        },
    }}
    tokens := &fakeTokens{stored: map[string]uint64{}}
    blocks := &fakeBlocks{blocked: map[uint64]*model.UserBlock{}}
    cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 30, RefreshTTLDays: 7, BcryptCost: 4}
    return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Blocks: blocks}, tokens, blocks
}

func loginContext(e *echo.Echo, username, password string) (echo.Context, *httptest.ResponseRecorder) {
    form := url.Values{"username": {username}, "password": {password}}
    req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(form.Encode()))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func TestLoginReturnsTokenPair(t *testing.T) {
    h, tokens, _ := authTestHandler(t)
    e := echo.New()

    c, rec := loginContext(e, "ana@example.com", "secret")
    if err := h.Login(c); err != nil {
        t.Fatalf("Login: %v", err)
    }
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200", rec.Code)
    }
    var body struct {
        AccessToken  string `json:"access_token"`
        RefreshToken string `json:"refresh_token"`
        TokenType    string `json:"token_type"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatalf("decode body: %v", err)
    }
    if body.AccessToken == "" || body.RefreshToken == "" {
        t.Errorf("missing tokens in %s", rec.Body.String())
    }
    if body.TokenType != "bearer" {
        t.Errorf("token_type = %q, want bearer", body.TokenType)
    }
    if len(tokens.stored) != 1 {
        t.Errorf("stored refresh tokens = %d, want 1", len(tokens.stored))
    }
}

func TestLoginRefusesBlockedUser(t *testing.T) {
    h, tokens, blocks := authTestHandler(t)
    blocks.blocked[7] = &model.UserBlock{
        ID:        1,
        UserID:    7,
        AdminID:   2,
        Reason:    "pagos fraudulentos",
        BlockedAt: time.Now().Add(-time.Hour),
    }
    e := echo.New()

    c, rec := loginContext(e, "ana@example.com", "secret")
    if err := h.Login(c); err != nil {
        t.Fatalf("Login: %v", err)
    }
    if rec.Code != http.StatusForbidden {
        t.Fatalf("status = %d, want 403", rec.Code)
    }
    var body map[string]interface{}
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatalf("decode body: %v", err)
    }
    if body["motivo"] != "pagos fraudulentos" {
        t.Errorf("motivo = %v, want block reason", body["motivo"])
    }
    // Correct credentials must never yield a pair while blocked.
    if len(tokens.stored) != 0 {
        t.Errorf("stored refresh tokens = %d, want 0", len(tokens.stored))
    }
}

func TestStatusReportsBlockDirection(t *testing.T) {
    h, _, blocks := authTestHandler(t)
    e := echo.New()

    statusFor := func(t *testing.T) map[string]interface{} {
        t.Helper()
        req := httptest.NewRequest(http.MethodGet, "/v1/auth/status", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        c.Set("user_id", uint64(7))
        c.Set("role", model.RoleClient)
        if err := h.Status(c); err != nil {
            t.Fatalf("Status: %v", err)
        }
        if rec.Code != http.StatusOK {
            t.Fatalf("status = %d, want 200", rec.Code)
        }
        var body map[string]interface{}
        if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
            t.Fatalf("decode body: %v", err)
        }
        return body
    }

    t.Run("unblocked", func(t *testing.T) {
        if body := statusFor(t); body["bloqueado"] != false {
            t.Errorf("bloqueado = %v, want false", body["bloqueado"])
        }
    })

    t.Run("blocked", func(t *testing.T) {
        blocks.blocked[7] = &model.UserBlock{
            ID: 1, UserID: 7, AdminID: 2, Reason: "spam", BlockedAt: time.Now().Add(-time.Minute),
        }
        body := statusFor(t)
        if body["bloqueado"] != true {
            t.Errorf("bloqueado = %v, want true", body["bloqueado"])
        }
        if body["bloqueo"] == nil {
            t.Errorf("missing bloqueo details in %v", body)
        }
    })
}
