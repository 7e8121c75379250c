package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/config"
	"github.com/iliyamo/lodge-operations/internal/middleware"
	"github.com/iliyamo/lodge-operations/internal/repository"
	"github.com/iliyamo/lodge-operations/internal/utils"
)

// AuthHandler bundles dependencies for staff authentication.
type AuthHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
}

func NewAuthHandler(cfg config.Config, admins *repository.AdminRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Admins: admins}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	AdminID  uint64    `json:"admin_id"`
	Username string    `json:"username"`
	Token    string    `json:"token"`
	Expires  time.Time `json:"expires"`
}

// Login verifies the credentials and returns a bearer token.  The
// response is identical for an unknown username and a wrong password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admin, err := h.Admins.ByUsername(ctx, req.Username)
	if err != nil || !utils.VerifyPassword(admin.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, admin.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		AdminID:  admin.ID,
		Username: admin.Username,
		Token:    access.Token,
		Expires:  access.Exp,
	})
}

// Me returns the authenticated admin id, mostly so dashboards can
// verify a stored token on startup.
func (h *AuthHandler) Me(c echo.Context) error {
	adminID, ok := middleware.AdminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"admin_id": adminID})
}
