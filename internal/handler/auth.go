package handler

import (
    "context"  // context with cancellation for DB calls
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls and date parsing

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/arriendoya/booking-api/internal/config"     // app configuration
    "github.com/arriendoya/booking-api/internal/middleware" // context identity accessors
    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/repository" // DB repositories
    "github.com/arriendoya/booking-api/internal/utils"      // helper functions (hashing, token issuing)
)

// UserStore is the user persistence surface the auth endpoints need.
type UserStore interface {
    Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// BlockStore answers account standing questions.  IsActive is true when
// no block window covers the current time.
type BlockStore interface {
    IsActive(ctx context.Context, userID uint64) (bool, error)
    ActiveBlock(ctx context.Context, userID uint64) (*model.UserBlock, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
    Blocks BlockStore
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, b *repository.BlockRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Blocks: b}
}

// ----- DTOs -----

type registerReq struct {
    Email         string `json:"email"`
    Password      string `json:"password"`
    RUT           string `json:"rut"`
    Names         string `json:"nombres"`
    Surname       string `json:"appaterno"`
    SecondSurname string `json:"apmaterno"`
    BirthDate     string `json:"fecha_nacimiento"` // YYYY-MM-DD
    Role          string `json:"tipo"`             // cliente | propietario
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

// authResp is the login/refresh body.  The field names follow the
// OAuth2 password-flow convention the checkout frontend expects.
type authResp struct {
    AccessToken  string `json:"access_token"`
    RefreshToken string `json:"refresh_token"`
    TokenType    string `json:"token_type"`
}

// Register creates a user account.  Self-registration never grants
// admin; an unknown or missing role defaults to cliente.  The password
// hash is never echoed back.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" || req.RUT == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password/rut required"})
    }
    role := strings.ToLower(strings.TrimSpace(req.Role))
    if role != model.RoleOwner {
        role = model.RoleClient
    }
    birth, err := time.Parse("2006-01-02", req.BirthDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fecha_nacimiento, expected YYYY-MM-DD"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u := &model.User{
        Email:         req.Email,
        RUT:           strings.TrimSpace(req.RUT),
        Names:         strings.TrimSpace(req.Names),
        Surname:       strings.TrimSpace(req.Surname),
        SecondSurname: strings.TrimSpace(req.SecondSurname),
        BirthDate:     birth,
        Role:          role,
    }
    uid, err := h.Users.Create(ctx, u, req.Password, h.Cfg.BcryptCost)
    if err != nil {
        switch err {
        case repository.ErrEmailExists:
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        case repository.ErrRUTExists:
            return c.JSON(http.StatusConflict, echo.Map{"error": "rut already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "id":               uid,
        "email":            u.Email,
        "rut":              u.RUT,
        "nombres":          u.Names,
        "appaterno":        u.Surname,
        "apmaterno":        u.SecondSurname,
        "fecha_nacimiento": u.BirthDate.Format("2006-01-02"),
        "tipo":             role,
    })
}

// Login verifies credentials and returns a new token pair.  A blocked
// account authenticates correctly but is refused with 403 and the block
// details, so the client can show the reason; no tokens are issued or
// stored for it.
func (h *AuthHandler) Login(c echo.Context) error {
    // Form-encoded credentials, matching the checkout frontend.
    email := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
    password := c.FormValue("password")
    if email == "" || password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, email)
    if err != nil || !utils.VerifyPassword(u.PasswordHash, password) {
        // Same answer for unknown email and wrong password.
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if !u.Active {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
    }
    if ok, err := h.refuseIfBlocked(ctx, c, u.ID); !ok {
        return err
    }

    resp, err := h.issuePair(ctx, u.ID, u.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the presented token must be a valid
// refresh JWT whose hash is still stored; it is revoked and a fresh pair
// issued.  A replayed (already rotated) token fails the store lookup.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }

    claims, err := utils.ParseRefreshToken(h.Cfg.JWTSecret, req.RefreshToken)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    hash := utils.HashRefreshRaw(req.RefreshToken)
    uid, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil || uid != claims.UserID {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }
    if !u.Active {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
    }
    if ok, err := h.refuseIfBlocked(ctx, c, u.ID); !ok {
        return err
    }

    // Rotate: old token dies before the new pair is handed out.
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate refresh failed"})
    }
    resp, err := h.issuePair(ctx, u.ID, u.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// Logout revokes every stored refresh token of the authenticated user.
func (h *AuthHandler) Logout(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "id":               u.ID,
        "email":            u.Email,
        "rut":              u.RUT,
        "nombres":          u.Names,
        "appaterno":        u.Surname,
        "apmaterno":        u.SecondSurname,
        "fecha_nacimiento": u.BirthDate.Format("2006-01-02"),
        "tipo":             u.Role,
        "activo":           u.Active,
    })
}

// Status reports the authenticated user's account standing: whether the
// account is active and whether a block currently covers it.  Reachable
// while blocked, so the client can show the motive.
func (h *AuthHandler) Status(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }
    active, err := h.Blocks.IsActive(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block check failed"})
    }
    blocked := !active
    body := echo.Map{"id": u.ID, "activo": u.Active, "bloqueado": blocked}
    if blocked {
        if b, err := h.Blocks.ActiveBlock(ctx, uid); err == nil {
            body["bloqueo"] = echo.Map{
                "motivo":        b.Reason,
                "fecha_bloqueo": b.BlockedAt,
            }
            if b.UnblockedAt != nil {
                body["fecha_desbloqueo"] = b.UnblockedAt
            }
        }
    }
    return c.JSON(http.StatusOK, body)
}

// refuseIfBlocked reports whether the user may proceed.  When ok is
// false a refusal response has been written and its write error is
// returned; callers must stop and return that error.
func (h *AuthHandler) refuseIfBlocked(ctx context.Context, c echo.Context, userID uint64) (bool, error) {
    active, err := h.Blocks.IsActive(ctx, userID)
    if err != nil {
        return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "block check failed"})
    }
    if active {
        return true, nil
    }
    body := echo.Map{"error": "account blocked"}
    if b, err := h.Blocks.ActiveBlock(ctx, userID); err == nil {
        body["motivo"] = b.Reason
        body["fecha_bloqueo"] = b.BlockedAt
        if b.UnblockedAt != nil {
            body["fecha_desbloqueo"] = b.UnblockedAt
        }
    }
    return false, c.JSON(http.StatusForbidden, body)
}

func (h *AuthHandler) issuePair(ctx context.Context, uid uint64, role string) (*authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return nil, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, uid, role, h.Cfg.RefreshTTLDays)
    if err != nil {
        return nil, err
    }
    if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Token), refresh.Exp); err != nil {
        return nil, err
    }
    return &authResp{
        AccessToken:  access.Token,
        RefreshToken: refresh.Token,
        TokenType:    "bearer",
    }, nil
}
