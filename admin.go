package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kuticlicker/backend/auth"
)

const adminSubjectKey = "adminSubject"

// requireAdmin accepts only requests carrying a valid admin bearer token.
func (s *server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			s.log.Debug().Str("ip", c.ClientIP()).Msg("admin request without token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			return
		}

		claims, err := s.tokens.VerifyRole(tokenString, auth.RoleAdmin)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrNoSecret):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin access is not configured"})
			return
		case errors.Is(err, auth.ErrInsufficientRole):
			s.log.Warn().Str("ip", c.ClientIP()).Msg("admin request with non-admin token")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		default:
			s.log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("admin token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(adminSubjectKey, claims.Subject)
		c.Next()
	}
}

func (s *server) handleAdminRooms(c *gin.Context) {
	rooms, err := s.svc.Rooms(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list rooms")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game loop unavailable"})
		return
	}
	s.log.Info().Str("admin", c.GetString(adminSubjectKey)).Int("rooms", len(rooms)).Msg("admin listed rooms")
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
