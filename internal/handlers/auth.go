// Package handlers contains HTTP request handlers for the case service.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/metrics"
	"github.com/conselho-tutelar/atendimento-service/internal/middleware"
	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles login, logout and the caller's own account.
type AuthHandler struct {
	authService  service.AuthService
	cookies      *CookieHelper
	capabilities *models.CapabilityTable
	metrics      *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService service.AuthService, cookies *CookieHelper, capabilities *models.CapabilityTable, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookies:      cookies,
		capabilities: capabilities,
		metrics:      m,
	}
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"senha"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Message   string             `json:"message"`
	User      models.UserSummary `json:"user"`
	Token     string             `json:"token"`
	ExpiresIn int64              `json:"expires_in"`
}

// MeResponse describes the caller and the actions their role allows.
type MeResponse struct {
	User         models.UserSummary  `json:"user"`
	Capabilities []models.Capability `json:"capabilities"`
}

// ChangePasswordRequest represents a password change by the account owner.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"senhaAtual"`
	NewPassword     string `json:"novaSenha"`
}

// Login godoc
// @Summary User login
// @Description Verify credentials, open a session and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Login == "" || req.Password == "" {
		RespondError(c, http.StatusBadRequest, "Login e senha são obrigatórios.")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.LoginAttempt(false)
			RespondError(c, http.StatusUnauthorized, "Credenciais inválidas.")
			return
		}
		LogAndRespondError(c, http.StatusInternalServerError, err, msgInternalError)
		return
	}

	h.metrics.LoginAttempt(true)
	h.cookies.SetSessionCookie(c, result.Token, secondsToDuration(result.ExpiresIn))
	c.JSON(http.StatusOK, LoginResponse{
		Message:   "Login bem-sucedido!",
		User:      result.User,
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
	})
}

// Logout godoc
// @Summary User logout
// @Description Revoke the current session and clear the session cookie
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.ExtractToken(c)
	if token == "" {
		RespondError(c, http.StatusUnauthorized, "Não autenticado.")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil && !errors.Is(err, service.ErrInvalidToken) {
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro ao encerrar a sessão.")
		return
	}

	h.cookies.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Sessão encerrada."})
}

// Me godoc
// @Summary Current user
// @Description Return the caller and the capabilities of their role
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MeResponse
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "Não autenticado.")
		return
	}
	c.JSON(http.StatusOK, MeResponse{
		User:         models.UserSummary{ID: claims.UserID, Name: claims.Name, Role: claims.Role},
		Capabilities: h.capabilities.For(claims.Role),
	})
}

// ChangePassword godoc
// @Summary Change own password
// @Description Replace the caller's password; every open session is revoked
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param request body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /me/senha [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "Não autenticado.")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		RespondError(c, http.StatusBadRequest, "Senha atual e nova senha são obrigatórias.")
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			RespondError(c, http.StatusUnauthorized, "Senha atual incorreta.")
		case errors.Is(err, service.ErrNotFound):
			RespondError(c, http.StatusNotFound, "Usuário não encontrado.")
		default:
			LogAndRespondError(c, http.StatusInternalServerError, err, msgInternalError)
		}
		return
	}

	h.cookies.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Senha alterada com sucesso! Faça login novamente."})
}

func secondsToDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}
