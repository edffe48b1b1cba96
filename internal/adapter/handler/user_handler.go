package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rl1809/formalin/internal/core/domain"
	"github.com/rl1809/formalin/internal/core/service"
)

// UserHandler serves the /api user directory. Failures that are the
// caller's fault answer 200 with success=false, except login which
// answers 401.
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

type UpdateUserRequest struct {
	Username    string  `json:"username"`
	NewPassword *string `json:"newPassword"`
	NewIsAdmin  *bool   `json:"newIsAdmin"`
}

type UserResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	UserID   int64  `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	IsAdmin  *bool  `json:"isAdmin,omitempty"`
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	names, err := h.userService.ListUsernames(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": names})
}

func (h *UserHandler) VerifyPassword(c *gin.Context) {
	var req CredentialsRequest
	if !bindBody(c, &req) {
		return
	}

	err := h.userService.VerifyPassword(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, UserResult{Success: true})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusOK, UserResult{Message: "user does not exist"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusOK, UserResult{Message: "wrong password"})
	default:
		h.internalError(c, err)
	}
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !bindBody(c, &req) {
		return
	}

	err := h.userService.UpdateCredentials(c.Request.Context(), req.Username, req.NewPassword, req.NewIsAdmin)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, UserResult{Success: true})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusOK, UserResult{Message: "user does not exist"})
	default:
		h.internalError(c, err)
	}
}

func (h *UserHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if !bindBody(c, &req) {
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, UserResult{Success: true, Username: user.Username, IsAdmin: &user.IsAdmin})
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, UserResult{Message: "invalid username or password"})
	default:
		h.internalError(c, err)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindBody(c, &req) {
		return
	}

	id, err := h.userService.Register(c.Request.Context(), req.Username, req.Password, req.IsAdmin)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, UserResult{Success: true, UserID: id})
	case errors.Is(err, domain.ErrUsernameTaken):
		c.JSON(http.StatusOK, UserResult{Message: "username already taken"})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, UserResult{Message: err.Error()})
	default:
		h.internalError(c, err)
	}
}

func (h *UserHandler) internalError(c *gin.Context, err error) {
	h.logger.Error("user request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
