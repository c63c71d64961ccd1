package rbac

import (
	"missedcall/internal/apperr"
	"missedcall/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireTenant rejects requests whose identity carries no tenant.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.TenantID(c.Request.Context()); err != nil {
			deny(c, apperr.KindUnauthorized, "tenant_id required")
			return
		}
		c.Next()
	}
}

// RequireAnyRole admits callers holding one of allowed. super_admin is always admitted.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil {
			deny(c, apperr.KindUnauthorized, "role required")
			return
		}
		if IsSuperAdmin(role) {
			c.Next()
			return
		}
		if _, ok := allowedSet[role]; !ok {
			deny(c, apperr.KindForbidden, "role "+role+" may not perform this action")
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin guards platform-wide settings.
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireAnyRole()
}

func deny(c *gin.Context, kind apperr.Kind, msg string) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{"error": kind, "message": msg})
}
