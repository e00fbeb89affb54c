package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	gate        *rbac.Gate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService, gate *rbac.Gate) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		gate:        gate,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password and returns a JWT with the caller's permissions.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":       token,
		"user":        user,
		"permissions": h.gate.Permissions(user.Role),
		"routes":      h.gate.AccessibleRoutes(user.Role),
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the current token until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Revoke(c.Request.Context(), claims); err != nil {
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile, permissions and accessible front-end routes of the caller.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":        user,
		"permissions": h.gate.Permissions(claims.Role),
		"routes":      h.gate.AccessibleRoutes(claims.Role),
	})
}

// CheckRoute godoc
// GET /api/v1/auth/routes/check?route=/results/review
// Tells the front-end whether the caller may open a route.
func (h *AuthHandler) CheckRoute(c *gin.Context) {
	route := c.Query("route")
	if route == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"route": "route is a required field",
		})
		return
	}

	actor := middleware.GetActor(c)
	response.Success(c, http.StatusOK, gin.H{
		"route":   route,
		"allowed": h.gate.CanAccessRoute(actor.Role, route),
	})
}
