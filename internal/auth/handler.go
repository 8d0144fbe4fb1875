package auth

import (
	"crypto/subtle"
	"net/http"

	"barbershop/internal/api"
	"barbershop/internal/logger"
	"barbershop/internal/validation"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"3600"`
}

// Admin is the single shop administrator configured at startup.
type Admin struct {
	Username     string
	PasswordHash string
}

// Authenticate fails closed when no password hash is configured.
func (a Admin) Authenticate(username, password string) bool {
	if a.PasswordHash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) == 1
	passOK := CheckPassword(a.PasswordHash, password)
	return userOK && passOK
}

type Handler struct {
	admin  Admin
	tokens *Issuer
}

func NewHandler(admin Admin, tokens *Issuer) *Handler {
	return &Handler{admin: admin, tokens: tokens}
}

// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body auth.LoginRequest true "Credentials"
// @Success      200 {object} auth.TokenResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /admin/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := validation.Struct(req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: errs[0].Message})
		return
	}

	if !h.admin.Authenticate(req.Username, req.Password) {
		logger.Warn("admin login rejected", "username", req.Username, "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid credentials"})
		return
	}

	pair, err := h.tokens.Issue(h.admin.Username, RoleAdmin)
	if err != nil {
		logger.Error("failed to issue admin tokens", "error", err.Error())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	logger.Info("admin logged in", "username", h.admin.Username)
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
	})
}

// @Summary      Refresh admin access token
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body auth.RefreshRequest true "Refresh token"
// @Success      200 {object} auth.TokenResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /admin/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "refresh_token is required"})
		return
	}

	access, claims, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		logger.Debug("admin refresh rejected", "ip", c.ClientIP(), "error", err.Error())
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid or expired refresh token"})
		return
	}

	logger.Debug("admin access token refreshed", "username", claims.Username())

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(AccessTokenTTL.Seconds()),
	})
}
