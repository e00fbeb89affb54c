package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// RequirePermission checks that the caller's role holds the permission.
// Must run after RequireJWT.
func RequirePermission(gate *rbac.Gate, perm model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if !gate.HasPermission(claims.Role, perm) {
			response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
			return
		}
		c.Next()
	}
}

// RequireAnyPermission checks that the caller's role holds at least one of perms.
// Self-scoped permissions only open the door; handlers still scope the data.
func RequireAnyPermission(gate *rbac.Gate, perms ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if !gate.HasAnyPermission(claims.Role, perms...) {
			response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
			return
		}
		c.Next()
	}
}

// RequireRole restricts a route group to the listed roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
	}
}
