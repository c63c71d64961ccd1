package auth

import (
	"net/http"
	"strings"
	"time"

	"missedcall/internal/apperr"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// RequireAccessToken verifies a bearer token and injects identity into the request context.
// Role checks belong to internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(raw, bearerPrefix) {
			unauthorized(c, "missing bearer token")
			return
		}
		claims, err := m.Verify(strings.TrimPrefix(raw, bearerPrefix), time.Now())
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}
		SetIdentity(c, claims.UserID, claims.TenantID, claims.Role)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.KindUnauthorized, "message": msg})
}
