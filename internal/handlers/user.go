package handlers

import (
	"errors"
	"net/http"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler handles staff account administration.
type UserHandler struct {
	userService service.UserService
	notifier    ChangeNotifier
}

// NewUserHandler creates a new UserHandler instance. notifier may be nil.
func NewUserHandler(userService service.UserService, notifier ChangeNotifier) *UserHandler {
	return &UserHandler{userService: userService, notifier: notifierOrNop(notifier)}
}

// RegisterRequest represents a new account.
type RegisterRequest struct {
	Name     string      `json:"nome"`
	Login    string      `json:"login"`
	Password string      `json:"senha"`
	Role     models.Role `json:"perfil"`
}

// UpdateUserRequest represents an account edit.
type UpdateUserRequest struct {
	Name  string      `json:"nome"`
	Login string      `json:"login"`
	Role  models.Role `json:"perfil"`
}

// ResetPasswordRequest carries the new password set by an administrator.
type ResetPasswordRequest struct {
	Password string `json:"senha"`
}

// CounselorResponse is one entry of the counselor picker.
type CounselorResponse struct {
	ID   int64  `json:"id_usuario"`
	Name string `json:"nome"`
}

// Register godoc
// @Summary Register user
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "New account"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /usuarios [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Todos os campos são obrigatórios.")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Login:    req.Login,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		if errors.Is(err, service.ErrDuplicateLogin) {
			RespondError(c, http.StatusConflict, "Este login (email) já está em uso.")
			return
		}
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro ao registrar usuário.")
		return
	}

	h.notifier.Notify(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Usuário registrado com sucesso!",
		"userId":  user.ID,
	})
}

// List godoc
// @Summary List users
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Router /usuarios [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro interno do servidor ao buscar usuários.")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// ListCounselors godoc
// @Summary List counselors
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} CounselorResponse
// @Router /usuarios/conselheiros [get]
func (h *UserHandler) ListCounselors(c *gin.Context) {
	users, err := h.userService.ListCounselors(c.Request.Context())
	if err != nil {
		LogAndRespondError(c, http.StatusInternalServerError, err, "Erro ao buscar conselheiros.")
		return
	}
	counselors := make([]CounselorResponse, 0, len(users))
	for _, u := range users {
		counselors = append(counselors, CounselorResponse{ID: u.ID, Name: u.Name})
	}
	c.JSON(http.StatusOK, counselors)
}

// Update godoc
// @Summary Update user
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Account fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /usuarios/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "ID de usuário inválido.")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Nome, login e perfil são obrigatórios.")
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, service.UpdateUserInput{
		Name:  req.Name,
		Login: req.Login,
		Role:  req.Role,
	})
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrNotFound):
			RespondError(c, http.StatusNotFound, "Usuário não encontrado.")
		case errors.Is(err, service.ErrDuplicateLogin):
			RespondError(c, http.StatusConflict, "Este login (email) já está em uso por outro usuário.")
		default:
			LogAndRespondError(c, http.StatusInternalServerError, err, msgInternalError)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Usuário atualizado com sucesso!", "user": user})
}

// Delete godoc
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /usuarios/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "ID de usuário inválido.")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			RespondError(c, http.StatusNotFound, "Usuário não encontrado.")
		case errors.Is(err, service.ErrUserInUse):
			RespondError(c, http.StatusConflict, "Não é possível excluir: o usuário está vinculado a atendimentos.")
		default:
			LogAndRespondError(c, http.StatusInternalServerError, err, msgInternalError)
		}
		return
	}

	h.notifier.Notify(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Usuário excluído com sucesso!"})
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Tags users
// @Security BearerAuth
// @Accept json
// @Param id path int true "User ID"
// @Param request body ResetPasswordRequest true "New password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /usuarios/{id}/senha [put]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "ID de usuário inválido.")
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		RespondError(c, http.StatusBadRequest, "A nova senha é obrigatória.")
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), id, req.Password); err != nil {
		if respondValidation(c, err) {
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "Usuário não encontrado.")
			return
		}
		LogAndRespondError(c, http.StatusInternalServerError, err, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Senha redefinida com sucesso!"})
}
