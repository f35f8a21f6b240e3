package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-booking/internal/config"
    "github.com/iliyamo/cinema-booking/internal/model"
    "github.com/iliyamo/cinema-booking/internal/repository"
    "github.com/iliyamo/cinema-booking/internal/utils"
)

// BookerStore is the booker persistence the auth endpoints need.  Both
// repository.BookerRepo and the in-memory store satisfy it.
type BookerStore interface {
    CreateBooker(ctx context.Context, b *model.Booker) error
    GetBookerByEmail(ctx context.Context, email string) (model.Booker, error)
    GetBookerByID(ctx context.Context, id uint64) (model.Booker, error)
    ListBookers(ctx context.Context) ([]model.Booker, error)
    UpdateBooker(ctx context.Context, b *model.Booker) error
    DeleteBooker(ctx context.Context, id uint64) error
}

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
    Cfg     config.Config
    Bookers BookerStore
}

func NewAuthHandler(cfg config.Config, bookers BookerStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Bookers: bookers}
}

// maxPasswordBytes is the longest password bcrypt accepts.
const maxPasswordBytes = 72

type credentialsReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type bookerResp struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
}

// Register creates a booker and answers with an access token.
func (h *AuthHandler) Register(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid body"})
    }
    req.Email = utils.NormalizeEmail(req.Email)
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Email and password are required"})
    }
    if !utils.IsValidEmail(req.Email) {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid email"})
    }
    if len(req.Password) > maxPasswordBytes {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Password is too long"})
    }

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return serverError(c, err)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b := model.Booker{Email: req.Email, PasswordHash: hash}
    if err := h.Bookers.CreateBooker(ctx, &b); err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Booker already exists"})
        }
        return serverError(c, err)
    }
    return h.issueToken(c, b)
}

// Login checks the credentials and answers with a fresh access token.
// Unknown emails and wrong passwords get the same answer.
func (h *AuthHandler) Login(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid body"})
    }
    req.Email = utils.NormalizeEmail(req.Email)
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Email and password are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, err := h.Bookers.GetBookerByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrBookerNotFound) {
            return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid Credentials"})
        }
        return serverError(c, err)
    }
    if !utils.VerifyPassword(b.PasswordHash, req.Password) {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid Credentials"})
    }
    return h.issueToken(c, b)
}

func (h *AuthHandler) issueToken(c echo.Context, b model.Booker) error {
    tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, b.ID, b.Email, h.Cfg.AccessTTLMin)
    if err != nil {
        return serverError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"token": tok.Token})
}

// List returns every booker without password hashes.
func (h *AuthHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    bookers, err := h.Bookers.ListBookers(ctx)
    if err != nil {
        return serverError(c, err)
    }
    out := make([]bookerResp, 0, len(bookers))
    for _, b := range bookers {
        out = append(out, bookerResp{ID: b.ID, Email: b.Email})
    }
    return c.JSON(http.StatusOK, out)
}

// Update changes the email and/or password of booker :id.  Empty fields
// are left alone.
func (h *AuthHandler) Update(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid id"})
    }
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, err := h.Bookers.GetBookerByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrBookerNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"msg": "Booker not found"})
        }
        return serverError(c, err)
    }

    if email := utils.NormalizeEmail(req.Email); email != "" {
        if !utils.IsValidEmail(email) {
            return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid email"})
        }
        b.Email = email
    }
    if req.Password != "" {
        if len(req.Password) > maxPasswordBytes {
            return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Password is too long"})
        }
        hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
        if err != nil {
            return serverError(c, err)
        }
        b.PasswordHash = hash
    }

    if err := h.Bookers.UpdateBooker(ctx, &b); err != nil {
        switch {
        case errors.Is(err, repository.ErrEmailExists):
            return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Booker already exists"})
        case errors.Is(err, repository.ErrBookerNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"msg": "Booker not found"})
        }
        return serverError(c, err)
    }
    return c.JSON(http.StatusOK, bookerResp{ID: b.ID, Email: b.Email})
}

// Delete removes booker :id.  Their bookings stay, detached.
func (h *AuthHandler) Delete(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"msg": "Invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Bookers.DeleteBooker(ctx, id); err != nil {
        if errors.Is(err, repository.ErrBookerNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"msg": "Booker not found"})
        }
        return serverError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"msg": "Booker deleted"})
}

// serverError logs err and answers with a bare 500.
func serverError(c echo.Context, err error) error {
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return c.String(http.StatusInternalServerError, "Server error")
}
