package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_SetsRequestIDAndObserves(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	var observed string
	r := gin.New()
	r.Use(Middleware(NewWithWriter("production", &buf), func(method, path string, status int, _ time.Duration) {
		observed = method + " " + path
	}))
	r.GET("/public/:slug/x", func(c *gin.Context) {
		if From(c.Request.Context()) == nil {
			t.Fatalf("expected logger in request context")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/acme/x", nil))

	if w.Header().Get(headerRequestID) == "" {
		t.Fatalf("expected request id header")
	}
	if observed != "GET /public/:slug/x" {
		t.Fatalf("unexpected observation %q", observed)
	}
	if !strings.Contains(buf.String(), `"tenant_slug":"acme"`) {
		t.Fatalf("expected tenant_slug in log line: %s", buf.String())
	}
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(Discard()))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(headerRequestID); got != "rid-1" {
		t.Fatalf("expected rid-1, got %q", got)
	}
}
