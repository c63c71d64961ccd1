package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"missedcall/internal/audit"
	"missedcall/internal/auth"
	"missedcall/internal/availability"
	"missedcall/internal/booking"
	"missedcall/internal/calls"
	"missedcall/internal/catalog"
	"missedcall/internal/gatewaycreds"
	"missedcall/internal/messaging"
	"missedcall/internal/reporting"
	"missedcall/internal/tenant"
	"missedcall/internal/verification"

	"github.com/gin-gonic/gin"
)

type recordingMessenger struct {
	mu   sync.Mutex
	sent []messaging.SendRequest
}

func (m *recordingMessenger) Send(ctx context.Context, req messaging.SendRequest) messaging.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return messaging.Result{Success: true, MessageID: "SM1"}
}

func (m *recordingMessenger) ofType(typ messaging.MessageType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.Type == typ {
			n++
		}
	}
	return n
}

func i64(v int64) *int64 { return &v }

var (
	acme      = tenant.Tenant{ID: "t1", Slug: "acme", Name: "Acme Detailing", Status: tenant.StatusActive}
	suspended = tenant.Tenant{ID: "t2", Slug: "sleepy", Name: "Sleepy Co", Status: tenant.StatusSuspended}
)

// 2026-10-20 is a Tuesday; the fixture clock sits on the Monday before.
const tuesday = "2026-10-20"

var fixtureNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fixture struct {
	router   *gin.Engine
	tenants  *tenant.MemoryRepo
	appts    *booking.MemoryRepo
	calls    *calls.MemoryRepo
	reports  *reporting.MemoryRepo
	audits   *audit.MemoryRepo
	messages *recordingMessenger
	creds    *gatewaycreds.Cache
	store    *gatewaycreds.MemoryStore
	greeted  chan string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		tenants:  tenant.NewMemoryRepo(acme, suspended),
		appts:    booking.NewMemoryRepo(),
		calls:    calls.NewMemoryRepo(),
		reports:  reporting.NewMemoryRepo(),
		audits:   audit.NewMemoryRepo(),
		messages: &recordingMessenger{},
		store:    gatewaycreds.NewMemoryStore(gatewaycreds.Credentials{AccountSID: "AC1", AuthToken: "tok1", FromNumber: "+15550000001"}),
		greeted:  make(chan string, 1),
	}
	f.tenants.SetHours(tenant.BusinessHours{TenantID: "t1", Weekday: time.Tuesday, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"})
	f.creds = gatewaycreds.NewCache(gatewaycreds.StoreLoader(f.store, gatewaycreds.Credentials{}), time.Hour)

	cat := catalog.NewMemoryRepo(catalog.Service{
		ID: 1, TenantID: "t1", Name: "Wash", DurationMinutes: 30, PriceMinor: i64(2000), Active: true,
		Options: []catalog.ServiceOption{{
			ID: 10, ServiceID: 1, Name: "Premium", PriceMinor: i64(5000),
			DefaultQuantity: 1, MinQuantity: 1, MaxQuantity: 3, Active: true,
		}},
	})
	auditSvc := audit.NewService(f.audits)
	now := func() time.Time { return fixtureNow }

	bookingSvc := booking.NewService(booking.Deps{
		Catalog:   cat,
		Hours:     f.tenants,
		Repo:      f.appts,
		Tx:        &booking.MemoryTransactor{},
		Messenger: f.messages,
		Audit:     auditSvc,
		Now:       now,
	})
	avail := availability.NewService(f.tenants, f.appts, 30)
	verify := &verification.Service{
		Repo:      verification.NewMemoryRepo(),
		Limiter:   verification.NewMemoryLimiter(verification.DefaultRateLimit, verification.DefaultRateWindow),
		Messenger: f.messages,
		Now:       now,
		Codes:     func() (string, error) { return "123456", nil },
	}

	pub := Public{
		Tenants:      tenant.NewResolver(f.tenants),
		Catalog:      cat,
		Availability: avail,
		Verification: verify,
		Booking:      bookingSvc,
	}
	staff := Staff{
		Tenants: f.tenants,
		Settings: tenant.NewSettings(f.tenants, auditSvc, func(ctx context.Context, tenantID, text string) {
			f.greeted <- text
		}),
		Calls:        calls.NewService(f.calls, auditSvc),
		Booking:      bookingSvc,
		Availability: avail,
		Reporting:    reporting.NewService(f.reports),
		Credentials:  gatewaycreds.Updater{Store: f.store, Cache: f.creds},
		Audit:        auditSvc,
		Now:          now,
	}

	r := gin.New()
	p := r.Group("/public/:slug")
	p.GET("/availability", pub.GetAvailability)
	p.GET("/services", pub.Services)
	p.POST("/verify-phone", pub.VerifyPhone)
	p.POST("/book", pub.Book)

	v1 := r.Group("/v1", func(c *gin.Context) {
		auth.SetIdentity(c, "u1", c.GetHeader("X-Test-Tenant"), c.GetHeader("X-Test-Role"))
		c.Next()
	})
	v1.GET("/calls", staff.ListCalls)
	v1.GET("/calls/summary", staff.CallsSummary)
	v1.POST("/calls/:id/callback-handled", staff.MarkCallbackHandled)
	v1.POST("/calls/:id/reopen", staff.ReopenCallback)
	v1.GET("/reports/bookings", staff.BookingsSummary)
	v1.GET("/appointments", staff.ListAppointments)
	v1.POST("/appointments", staff.CreateAppointment)
	v1.PATCH("/appointments/:id/status", staff.UpdateAppointmentStatus)
	v1.PATCH("/appointments/:id/notes", staff.UpdateAppointmentNotes)
	v1.GET("/availability", staff.GetAvailability)
	v1.GET("/settings/business-hours", staff.BusinessHours)
	v1.PUT("/settings/business-hours", staff.ReplaceBusinessHours)
	v1.PUT("/settings/ivr-greeting", staff.UpdateGreeting)
	v1.PUT("/admin/gateway-credentials", staff.UpdateGatewayCredentials)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Tenant", "t1")
	req.Header.Set("X-Test-Role", "owner")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, kind string) errorBody {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var body errorBody
	decode(t, w, &body)
	if string(body.Error) != kind {
		t.Fatalf("expected %s, got %+v", kind, body)
	}
	return body
}
