package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"missedcall/internal/config"

	"github.com/gin-gonic/gin"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.Issue(now, "user-1", "tenant-1", "owner")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.TenantID != "tenant-1" || claims.Role != "owner" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	m := newManager(t)
	now := time.Unix(1700000000, 0).UTC()

	expired, _ := m.Issue(now, "u", "t", "owner")
	if _, err := m.Verify(expired, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	noTenant, _ := m.Issue(now, "u", "", "owner")
	if _, err := m.Verify(noTenant, now); err == nil {
		t.Fatalf("expected tenant_id missing")
	}

	other, _ := NewManager(config.AuthConfig{JWTSecret: "other", JWTIssuer: "issuer", JWTAudience: "aud"})
	forged, _ := other.Issue(now, "u", "t", "owner")
	if _, err := m.Verify(forged, now); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret"})

	r := gin.New()
	r.GET("/x", RequireAccessToken(m), func(c *gin.Context) {
		tid, err := TenantID(c.Request.Context())
		if err != nil {
			t.Fatalf("tenant not in context: %v", err)
		}
		c.String(http.StatusOK, tid)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	tok, _ := m.Issue(time.Now(), "u", "tenant-9", "staff")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "tenant-9" {
		t.Fatalf("expected 200 tenant-9, got %d %q", w.Code, w.Body.String())
	}
}
