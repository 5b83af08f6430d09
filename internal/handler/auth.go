package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/utils"
)

// UserFinder is the part of the user repository the login needs.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthHandler issues admin access tokens.
type AuthHandler struct {
	Cfg   config.Config
	Users UserFinder
}

func NewAuthHandler(cfg config.Config, users UserFinder) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userPart struct {
	ID                uint64   `json:"id"`
	Username          string   `json:"username"`
	Email             string   `json:"email"`
	Role              string   `json:"role"`
	AssignedLocations []uint64 `json:"assignedLocations"`
}

type loginResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userPart  `json:"user"`
}

// Login handles POST /v1/auth/login.  Unknown users, inactive users and
// wrong passwords all get the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid credentials"})
		}
		log.WithError(err).Error("login lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid credentials"})
	}

	var locs []uint64
	if u.Role != model.RoleSuperAdmin {
		locs = u.AssignedLocations
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, locs, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "issue token failed"})
	}
	if u.AssignedLocations == nil {
		u.AssignedLocations = []uint64{}
	}
	return c.JSON(http.StatusOK, loginResp{
		Token:     access.Token,
		ExpiresAt: access.Exp,
		User: userPart{
			ID:                u.ID,
			Username:          u.Username,
			Email:             u.Email,
			Role:              u.Role,
			AssignedLocations: u.AssignedLocations,
		},
	})
}
