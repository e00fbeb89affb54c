package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

// TokenValidator is the part of the auth service the JWT middleware needs.
type TokenValidator interface {
	ValidateToken(tokenStr string) (*service.Claims, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RequireJWT validates a JWT from the Authorization header and rejects
// tokens that were logged out.
func RequireJWT(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authenticate(c, auth, tokenStr)
	}
}

// RequireWSAuth validates a JWT from the query param ?token=...
// Used for WebSocket upgrade requests.
func RequireWSAuth(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authenticate(c, auth, tokenStr)
	}
}

func authenticate(c *gin.Context, auth TokenValidator, tokenStr string) {
	claims, err := auth.ValidateToken(tokenStr)
	if err != nil {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	revoked, err := auth.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if revoked {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRevoked)
		return
	}

	c.Set(ContextKeyClaims, claims)
	c.Next()
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetActor returns the authenticated caller. The zero Actor holds no role.
func GetActor(c *gin.Context) model.Actor {
	claims := GetClaims(c)
	if claims == nil {
		return model.Actor{}
	}
	return claims.Actor()
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1], nil
		}
	}
	return "", fmt.Errorf("authorization header required")
}
