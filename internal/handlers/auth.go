package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/auth"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/dto"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/service"
)

// AuthHandler handles registration, login and user administration.
type AuthHandler struct {
	tokens  *auth.TokenManager
	userSvc *service.UserService
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(tokens *auth.TokenManager, userSvc *service.UserService) *AuthHandler {
	return &AuthHandler{tokens: tokens, userSvc: userSvc}
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "User data"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]interface{}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid input data")
		return
	}
	u, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUnknownRole):
			fail(c, http.StatusBadRequest, "role is not valid")
		case errors.Is(err, service.ErrDuplicateUser):
			fail(c, http.StatusBadRequest, "username or email already exists")
		default:
			failInternal(c, err)
		}
		return
	}
	ok(c, http.StatusCreated, gin.H{"message": "user registered successfully", "userId": u.ID})
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]interface{}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid input data")
		return
	}
	u, err := h.userSvc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// One message for unknown user and wrong password.
			fail(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		failInternal(c, err)
		return
	}
	token, err := h.tokens.Issue(u)
	if err != nil {
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"message": "login successful",
		"token":   token,
		"user":    dto.UserToResponse(u),
	})
}

// Profile godoc
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	ident, exists := auth.IdentityFromContext(c)
	if !exists {
		fail(c, http.StatusUnauthorized, "access token required")
		return
	}
	ok(c, http.StatusOK, gin.H{"user": dto.UserResponse{
		ID:       ident.ID,
		Username: ident.Username,
		Email:    ident.Email,
		Role:     ident.Role,
	}})
}

// ListUsers godoc
// @Summary      List all users (admin only)
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /auth/users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.ListUsers(c.Request.Context())
	if err != nil {
		failInternal(c, err)
		return
	}
	out := make([]dto.AdminUserResponse, len(users))
	for i := range users {
		out[i] = dto.UserToAdminResponse(users[i])
	}
	ok(c, http.StatusOK, gin.H{"count": len(out), "users": out})
}

// SetActive godoc
// @Summary      Activate or deactivate a user (admin only)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int  true  "User ID"
// @Param        body  body  dto.SetActiveRequest  true  "Active flag"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Router       /auth/users/{id}/active [put]
func (h *AuthHandler) SetActive(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "is_active is required")
		return
	}
	if err := h.userSvc.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "user not found")
			return
		}
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "user updated successfully"})
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// Tokens are self-contained; nothing to revoke server-side. The client
	// drops its copy and the token ages out at expiry.
	ok(c, http.StatusOK, gin.H{"message": "logged out successfully"})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
