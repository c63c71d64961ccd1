package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"missedcall/internal/availability"
	"missedcall/internal/booking"
	"missedcall/internal/catalog"
	"missedcall/internal/messaging"
	"missedcall/internal/tenant"

	"github.com/gin-gonic/gin"
)

func bookBody(start, code string) map[string]any {
	return map[string]any{
		"serviceId":        1,
		"customerName":     "Dana",
		"customerPhone":    "555-201-0000",
		"date":             tuesday,
		"startTime":        start,
		"verificationCode": code,
	}
}

func TestPublic_UnknownAndSuspendedTenantsLookTheSame(t *testing.T) {
	f := newFixture(t)

	missing := expectError(t, f.do(t, http.MethodGet, "/public/nobody/availability?date="+tuesday, nil), http.StatusNotFound, "NOT_FOUND")
	asleep := expectError(t, f.do(t, http.MethodGet, "/public/sleepy/availability?date="+tuesday, nil), http.StatusNotFound, "NOT_FOUND")
	if missing.Message != asleep.Message {
		t.Fatalf("expected identical bodies, got %q and %q", missing.Message, asleep.Message)
	}
}

func TestPublic_AvailabilityWithServiceStarts(t *testing.T) {
	f := newFixture(t)
	if w := f.do(t, http.MethodPost, "/public/acme/verify-phone", map[string]string{"phone": "555-201-0000"}); w.Code != http.StatusOK {
		t.Fatalf("verify-phone: %d %s", w.Code, w.Body.String())
	}
	if w := f.do(t, http.MethodPost, "/public/acme/book", bookBody("10:00", "123456")); w.Code != http.StatusOK {
		t.Fatalf("book: %d %s", w.Code, w.Body.String())
	}

	w := f.do(t, http.MethodGet, "/public/acme/availability?date="+tuesday+"&serviceId=1&serviceOptionId=10&quantity=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("availability: %d %s", w.Code, w.Body.String())
	}
	var res availabilityResponse
	decode(t, w, &res)
	if !res.IsOpen || res.OpenTime != "09:00" || res.CloseTime != "17:00" {
		t.Fatalf("unexpected day %+v", res)
	}
	if len(res.BookedSlots) != 1 || res.BookedSlots[0] != (bookedSlot{StartTime: "10:00", EndTime: "10:30"}) {
		t.Fatalf("unexpected booked slots %+v", res.BookedSlots)
	}
	if res.AvailableCount != 15 {
		t.Fatalf("expected 15 free ticks, got %d", res.AvailableCount)
	}
	// two units of 30 minutes: 09:00 ends exactly at 10:00, 09:30 and 10:00 collide.
	starts := res.AvailableStartTimes
	if len(starts) < 2 || starts[0] != "09:00" || starts[1] != "10:30" || starts[len(starts)-1] != "16:00" {
		t.Fatalf("unexpected starts %v", starts)
	}
}

func TestPublic_ClosedDay(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/public/acme/availability?date=2026-10-21", nil)
	var res availabilityResponse
	decode(t, w, &res)
	if res.IsOpen || len(res.Slots) != 0 || len(res.BookedSlots) != 0 {
		t.Fatalf("expected closed day, got %+v", res)
	}

	expectError(t, f.do(t, http.MethodGet, "/public/acme/availability?date=tomorrow", nil), http.StatusBadRequest, "VALIDATION")
}

func TestPublic_BookRequiresVerifiedPhoneOnce(t *testing.T) {
	f := newFixture(t)

	expectError(t, f.do(t, http.MethodPost, "/public/acme/book", bookBody("14:00", "123456")), http.StatusBadRequest, "UNVERIFIED_PHONE")

	if w := f.do(t, http.MethodPost, "/public/acme/verify-phone", map[string]string{"phone": "(555) 201-0000"}); w.Code != http.StatusOK {
		t.Fatalf("verify-phone: %d %s", w.Code, w.Body.String())
	}
	expectError(t, f.do(t, http.MethodPost, "/public/acme/book", bookBody("14:00", "654321")), http.StatusBadRequest, "UNVERIFIED_PHONE")

	w := f.do(t, http.MethodPost, "/public/acme/book", bookBody("14:00", "123456"))
	if w.Code != http.StatusOK {
		t.Fatalf("book: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Appointment struct {
			Status  string `json:"status"`
			EndTime string `json:"endTime"`
		} `json:"appointment"`
	}
	decode(t, w, &res)
	if res.Appointment.Status != "PENDING" || res.Appointment.EndTime != "14:30" {
		t.Fatalf("unexpected appointment %+v", res.Appointment)
	}
	if f.messages.ofType(messaging.TypeBookingConfirmation) != 1 {
		t.Fatalf("expected a confirmation message")
	}

	// the code is spent
	expectError(t, f.do(t, http.MethodPost, "/public/acme/book", bookBody("15:00", "123456")), http.StatusBadRequest, "UNVERIFIED_PHONE")
}

func TestPublic_SecondBookingOfSameSlotConflicts(t *testing.T) {
	f := newFixture(t)

	for i, want := range []int{http.StatusOK, http.StatusConflict} {
		if w := f.do(t, http.MethodPost, "/public/acme/verify-phone", map[string]string{"phone": "555-201-0000"}); w.Code != http.StatusOK {
			t.Fatalf("verify-phone %d: %d", i, w.Code)
		}
		w := f.do(t, http.MethodPost, "/public/acme/book", bookBody("14:00", "123456"))
		if w.Code != want {
			t.Fatalf("attempt %d: expected %d, got %d %s", i, want, w.Code, w.Body.String())
		}
	}
}

func TestPublic_BookValidationDetails(t *testing.T) {
	f := newFixture(t)

	body := bookBody("2pm", "123456")
	delete(body, "customerName")
	res := expectError(t, f.do(t, http.MethodPost, "/public/acme/book", body), http.StatusBadRequest, "VALIDATION")

	fields := map[string]string{}
	for _, d := range res.Details {
		fields[d.Field] = d.Message
	}
	if fields["customerName"] != "is required" || fields["startTime"] != "must be HH:MM" {
		t.Fatalf("unexpected details %+v", res.Details)
	}
}

func TestPublic_OutsideHours(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/public/acme/verify-phone", map[string]string{"phone": "555-201-0000"})
	expectError(t, f.do(t, http.MethodPost, "/public/acme/book", bookBody("16:45", "123456")), http.StatusBadRequest, "OUTSIDE_HOURS")
}

func TestPublic_VerifyPhoneRateLimited(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		if w := f.do(t, http.MethodPost, "/public/acme/verify-phone", map[string]string{"phone": "555-201-0000"}); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	w := f.do(t, http.MethodPost, "/public/acme/verify-phone", map[string]string{"phone": "555-201-0000"})
	expectError(t, w, http.StatusTooManyRequests, "RATE_LIMITED")
	// all three accepted requests share fixtureNow, so the oldest leaves the window in 10 minutes
	if got := w.Header().Get("Retry-After"); got != "600" {
		t.Fatalf("expected Retry-After 600, got %q", got)
	}
	if got := f.messages.ofType(messaging.TypeOTP); got != 3 {
		t.Fatalf("expected 3 OTP messages, got %d", got)
	}
}

func TestPublic_Services(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/public/acme/services", nil)
	var res struct {
		Services []struct {
			Name string `json:"name"`
		} `json:"services"`
	}
	decode(t, w, &res)
	if len(res.Services) != 1 || res.Services[0].Name != "Wash" {
		t.Fatalf("unexpected services %+v", res)
	}
}

// unfilteredCatalog returns options as stored, inactive ones included.
type unfilteredCatalog struct{ svc catalog.Service }

func (u unfilteredCatalog) FindActiveService(ctx context.Context, tenantID string, id int64) (catalog.Service, error) {
	if id != u.svc.ID {
		return catalog.Service{}, catalog.ErrNotFound
	}
	return u.svc, nil
}

func (u unfilteredCatalog) ListActiveServices(ctx context.Context, tenantID string) ([]catalog.Service, error) {
	return []catalog.Service{u.svc}, nil
}

func TestPublic_AvailabilityRejectsInactiveOption(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tenants := tenant.NewMemoryRepo(acme)
	tenants.SetHours(tenant.BusinessHours{TenantID: "t1", Weekday: time.Tuesday, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"})
	pub := Public{
		Tenants: tenant.NewResolver(tenants),
		Catalog: unfilteredCatalog{svc: catalog.Service{
			ID: 1, TenantID: "t1", Name: "Wash", DurationMinutes: 30, Active: true,
			Options: []catalog.ServiceOption{
				{ID: 10, ServiceID: 1, Name: "Premium", DefaultQuantity: 1, MinQuantity: 1, MaxQuantity: 3, Active: true},
				{ID: 11, ServiceID: 1, Name: "Retired", DefaultQuantity: 1, MinQuantity: 1, MaxQuantity: 1, Active: false},
			},
		}},
		Availability: availability.NewService(tenants, booking.NewMemoryRepo(), 30),
	}
	r := gin.New()
	r.GET("/public/:slug/availability", pub.GetAvailability)

	get := func(option string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/acme/availability?date="+tuesday+"&serviceId=1&serviceOptionId="+option, nil))
		return w
	}

	expectError(t, get("11"), http.StatusNotFound, "NOT_FOUND")
	if w := get("10"); w.Code != http.StatusOK {
		t.Fatalf("active option: %d %s", w.Code, w.Body.String())
	}
}
