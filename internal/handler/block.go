package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/arriendoya/booking-api/internal/middleware"
    "github.com/arriendoya/booking-api/internal/model"
    "github.com/arriendoya/booking-api/internal/repository"
)

// BlockHandler serves the administrative account suspension endpoints.
type BlockHandler struct {
    Blocks *repository.BlockRepo
    Users  *repository.UserRepo
}

func NewBlockHandler(b *repository.BlockRepo, u *repository.UserRepo) *BlockHandler {
    return &BlockHandler{Blocks: b, Users: u}
}

type blockReq struct {
    Reason    string `json:"motivo"`
    UnblockAt string `json:"fecha_desbloqueo"` // optional, RFC 3339
}

type blockResp struct {
    ID          uint64     `json:"id"`
    UserID      uint64     `json:"usuario_id"`
    AdminID     uint64     `json:"admin_id"`
    Reason      string     `json:"motivo"`
    BlockedAt   time.Time  `json:"fecha_bloqueo"`
    UnblockedAt *time.Time `json:"fecha_desbloqueo"`
}

func toBlockResp(b *model.UserBlock) blockResp {
    return blockResp{
        ID:          b.ID,
        UserID:      b.UserID,
        AdminID:     b.AdminID,
        Reason:      b.Reason,
        BlockedAt:   b.BlockedAt,
        UnblockedAt: b.UnblockedAt,
    }
}

// Block suspends a user.  With no fecha_desbloqueo the block is
// indefinite; with one it lapses on its own.  Admins cannot block
// themselves or other admins.
func (h *BlockHandler) Block(c echo.Context) error {
    adminID, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    userID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req blockReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Reason = strings.TrimSpace(req.Reason)
    if req.Reason == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "motivo required"})
    }
    var unblockAt *time.Time
    if req.UnblockAt != "" {
        t, err := time.Parse(time.RFC3339, req.UnblockAt)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fecha_desbloqueo, expected RFC 3339"})
        }
        if !t.After(time.Now()) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "fecha_desbloqueo must be in the future"})
        }
        u := t.UTC()
        unblockAt = &u
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    target, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }
    if target.ID == adminID || target.Role == model.RoleAdmin {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot block an admin account"})
    }

    b, err := h.Blocks.Block(ctx, userID, adminID, req.Reason, unblockAt)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block user failed"})
    }
    return c.JSON(http.StatusCreated, toBlockResp(b))
}

// Unblock lifts the most recent active block of a user.
func (h *BlockHandler) Unblock(c echo.Context) error {
    userID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    switch err := h.Blocks.Unblock(ctx, userID); {
    case errors.Is(err, repository.ErrNoActiveBlock):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active block for user"})
    case err != nil:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unblock user failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "user unblocked"})
}

// Status reports whether a user is currently blocked, plus the active
// block record when there is one.
func (h *BlockHandler) Status(c echo.Context) error {
    userID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    active, err := h.Blocks.IsActive(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block check failed"})
    }
    blocked := !active
    body := echo.Map{"usuario_id": userID, "bloqueado": blocked}
    if blocked {
        if b, err := h.Blocks.ActiveBlock(ctx, userID); err == nil {
            body["bloqueo"] = toBlockResp(b)
        }
    }
    return c.JSON(http.StatusOK, body)
}

// History lists every block record of a user, newest first.
func (h *BlockHandler) History(c echo.Context) error {
    userID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    list, err := h.Blocks.History(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list blocks failed"})
    }
    out := make([]blockResp, 0, len(list))
    for i := range list {
        out = append(out, toBlockResp(&list[i]))
    }
    return c.JSON(http.StatusOK, out)
}
