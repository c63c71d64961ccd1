package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxTenantID
	ctxRole
)

var errNoIdentity = errors.New("auth: identity not in context")

func WithIdentity(ctx context.Context, userID, tenantID, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxTenantID, tenantID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func UserID(ctx context.Context) (string, error)   { return value(ctx, ctxUserID) }
func TenantID(ctx context.Context) (string, error) { return value(ctx, ctxTenantID) }
func Role(ctx context.Context) (string, error)     { return value(ctx, ctxRole) }

func value(ctx context.Context, k ctxKey) (string, error) {
	if s, ok := ctx.Value(k).(string); ok && s != "" {
		return s, nil
	}
	return "", errNoIdentity
}

// SetIdentity stores identity on both the request context and the gin context.
func SetIdentity(c *gin.Context, userID, tenantID, role string) {
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), userID, tenantID, role))
	c.Set("user_id", userID)
	c.Set("tenant_id", tenantID)
	c.Set("role", role)
}
