package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// AccessLog writes one zerolog line per request. Errors attached with
// c.Error (unmapped 500s) are included so they are never lost.
func AccessLog(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		var event *zerolog.Event
		switch {
		case status >= 500 || len(c.Errors) > 0:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Debug()
		}

		event = event.
			Str("request_id", response.RequestID(c)).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if claims := GetClaims(c); claims != nil {
			event = event.Int("user_id", claims.UserID).Str("role", string(claims.Role))
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request")
	}
}
