package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for staff routes.
// Tenant isolation: TenantID must be present; super_admin tokens still name a home tenant.
type Claims struct {
	jwt.RegisteredClaims

	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}
