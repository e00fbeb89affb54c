package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// UserHandler handles admin-facing account management.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers godoc
// GET /api/v1/admin/users?role=teacher
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, perPage := pageQuery(c)

	var role *model.Role
	if raw := c.Query("role"); raw != "" {
		r := model.Role(raw)
		if !r.Valid() {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"role": "unknown role",
			})
			return
		}
		role = &r
	}

	users, pagination, err := h.userService.List(c.Request.Context(), role, page, perPage)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": users}, pagination)
}

// GetUser godoc
// GET /api/v1/admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// CreateUser godoc
// POST /api/v1/admin/users
// Creates a staff, parent or student account.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}
