package httpapi

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"missedcall/internal/audit"
	"missedcall/internal/calls"
)

type appointmentResponse struct {
	Appointment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Notes  string `json:"notes"`
		Source string `json:"source"`
	} `json:"appointment"`
}

func staffBody(start string) map[string]any {
	return map[string]any{
		"serviceId":     1,
		"customerName":  "Walk In",
		"customerPhone": "+15552019999",
		"date":          tuesday,
		"startTime":     start,
	}
}

func TestStaff_CreateUpdateAndCancelAppointment(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/v1/appointments", staffBody("11:00"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created appointmentResponse
	decode(t, w, &created)
	if created.Appointment.Source != "STAFF" {
		t.Fatalf("expected STAFF source, got %+v", created.Appointment)
	}
	id := created.Appointment.ID

	expectError(t, f.do(t, http.MethodPost, "/v1/appointments", staffBody("11:00")), http.StatusConflict, "SLOT_TAKEN")

	w = f.do(t, http.MethodPatch, "/v1/appointments/"+id+"/notes", map[string]string{"notes": "  bring keys  "})
	var noted appointmentResponse
	decode(t, w, &noted)
	if noted.Appointment.Notes != "bring keys" {
		t.Fatalf("unexpected notes %q", noted.Appointment.Notes)
	}

	expectError(t, f.do(t, http.MethodPatch, "/v1/appointments/"+id+"/status", map[string]string{"status": "LOST"}), http.StatusBadRequest, "VALIDATION")

	w = f.do(t, http.MethodPatch, "/v1/appointments/"+id+"/status", map[string]string{"status": "CANCELLED"})
	var cancelled appointmentResponse
	decode(t, w, &cancelled)
	if cancelled.Appointment.Status != "CANCELLED" {
		t.Fatalf("expected CANCELLED, got %+v", cancelled.Appointment)
	}

	// the slot is free again
	if w := f.do(t, http.MethodPost, "/v1/appointments", staffBody("11:00")); w.Code != http.StatusCreated {
		t.Fatalf("rebook: %d %s", w.Code, w.Body.String())
	}

	expectError(t, f.do(t, http.MethodPatch, "/v1/appointments/not-a-uuid/status", map[string]string{"status": "CONFIRMED"}), http.StatusNotFound, "NOT_FOUND")

	for _, e := range f.audits.Events() {
		if e.ActorUserID != "u1" || e.TenantID != "t1" {
			t.Fatalf("unexpected audit actor %+v", e)
		}
	}
	types := f.audits.CountByType("t1")
	if types[audit.EventTypeAppointmentCreated] != 2 || types[audit.EventTypeAppointmentNotes] != 1 || types[audit.EventTypeAppointmentStatus] != 1 {
		t.Fatalf("unexpected audit trail %+v", types)
	}
}

func TestStaff_AvailabilityReportsConflictsAfterHoursNarrow(t *testing.T) {
	f := newFixture(t)
	if w := f.do(t, http.MethodPost, "/v1/appointments", staffBody("16:00")); w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}

	week := make([]map[string]any, 0, 7)
	for wd := 0; wd < 7; wd++ {
		row := map[string]any{"weekday": wd, "is_open": false}
		if wd == int(time.Tuesday) {
			row = map[string]any{"weekday": wd, "is_open": true, "open_time": "09:00", "close_time": "15:00"}
		}
		week = append(week, row)
	}
	if w := f.do(t, http.MethodPut, "/v1/settings/business-hours", map[string]any{"days": week}); w.Code != http.StatusOK {
		t.Fatalf("hours: %d %s", w.Code, w.Body.String())
	}

	w := f.do(t, http.MethodGet, "/v1/availability?date="+tuesday, nil)
	var res struct {
		CloseTime string `json:"closeTime"`
		Conflicts []struct {
			StartTime string `json:"startTime"`
		} `json:"conflicts"`
	}
	decode(t, w, &res)
	if res.CloseTime != "15:00" || len(res.Conflicts) != 1 || res.Conflicts[0].StartTime != "16:00" {
		t.Fatalf("expected one conflict at 16:00, got %+v", res)
	}
}

func TestStaff_BusinessHoursValidation(t *testing.T) {
	f := newFixture(t)

	body := expectError(t, f.do(t, http.MethodPut, "/v1/settings/business-hours", map[string]any{"days": []any{}}), http.StatusBadRequest, "VALIDATION")
	if len(body.Details) != 1 || body.Details[0].Field != "days" {
		t.Fatalf("unexpected details %+v", body.Details)
	}

	week := make([]map[string]any, 0, 7)
	for wd := 0; wd < 7; wd++ {
		week = append(week, map[string]any{"weekday": wd, "is_open": true, "open_time": "17:00", "close_time": "09:00"})
	}
	expectError(t, f.do(t, http.MethodPut, "/v1/settings/business-hours", map[string]any{"days": week}), http.StatusBadRequest, "VALIDATION")
}

func TestStaff_CallbackHandledAndSummary(t *testing.T) {
	f := newFixture(t)
	cb := calls.IVRCallback
	call := calls.Call{
		ID: "6f1c1f9e-3c4b-4d8e-9a57-0c1d2e3f4a5b", TenantID: "t1", From: "+15552010000",
		Status: calls.CallStatusMissed, IVRResponse: &cb, CreatedAt: fixtureNow.Add(-time.Hour),
	}
	if err := f.calls.Create(context.Background(), call); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := f.do(t, http.MethodPost, "/v1/calls/"+call.ID+"/callback-handled", nil)
	var handled calls.Call
	decode(t, w, &handled)
	if !handled.CallbackHandled || handled.CallbackHandledBy != "u1" {
		t.Fatalf("expected handled by u1, got %+v", handled)
	}

	w = f.do(t, http.MethodGet, "/v1/calls?handled=true", nil)
	var list struct {
		Calls []calls.Call `json:"calls"`
	}
	decode(t, w, &list)
	if len(list.Calls) != 1 {
		t.Fatalf("expected the handled call, got %+v", list)
	}

	f.do(t, http.MethodPost, "/v1/calls/"+call.ID+"/reopen", nil)
	handled.CallbackHandled = false
	f.reports.Calls = []calls.Call{handled}

	w = f.do(t, http.MethodGet, "/v1/calls/summary?from=2026-10-01&to=2026-10-19", nil)
	var sum struct {
		TotalCalls        int `json:"total_calls"`
		CallbackRequested int `json:"callback_requested"`
		Pending           int `json:"pending"`
	}
	decode(t, w, &sum)
	if sum.TotalCalls != 1 || sum.CallbackRequested != 1 || sum.Pending != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	expectError(t, f.do(t, http.MethodGet, "/v1/calls/summary?from=2026-10-19&to=2026-10-01", nil), http.StatusBadRequest, "VALIDATION")
	expectError(t, f.do(t, http.MethodPost, "/v1/calls/unknown/callback-handled", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestStaff_GreetingTriggersAudio(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/v1/settings/ivr-greeting", map[string]string{"text": "Thanks for calling Acme."})
	if w.Code != http.StatusAccepted {
		t.Fatalf("greeting: %d %s", w.Code, w.Body.String())
	}
	select {
	case got := <-f.greeted:
		if got != "Thanks for calling Acme." {
			t.Fatalf("unexpected greeting %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected audio generation to be triggered")
	}

	tn, _ := f.tenants.FindByID(context.Background(), "t1")
	if tn.IVRGreetingText != "Thanks for calling Acme." {
		t.Fatalf("greeting not stored: %+v", tn)
	}
}

func TestStaff_GatewayCredentialsInvalidateCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.creds.Get(ctx)
	if err != nil || before.AccountSID != "AC1" {
		t.Fatalf("unexpected cached creds %+v %v", before, err)
	}

	w := f.do(t, http.MethodPut, "/v1/admin/gateway-credentials", map[string]string{
		"account_sid": "AC2", "auth_token": "tok2", "from_number": "555-000-0002",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body == "" || strings.Contains(body, "tok2") {
		t.Fatalf("auth token must not be echoed: %s", body)
	}

	after, err := f.creds.Get(ctx)
	if err != nil || after.AccountSID != "AC2" || after.FromNumber != "+15550000002" {
		t.Fatalf("expected fresh creds after update, got %+v %v", after, err)
	}

	expectError(t, f.do(t, http.MethodPut, "/v1/admin/gateway-credentials", map[string]string{
		"account_sid": "XX", "auth_token": "tok", "from_number": "555-000-0002",
	}), http.StatusBadRequest, "VALIDATION")
}
