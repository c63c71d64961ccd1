package telephony

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"missedcall/internal/intake"

	"github.com/gin-gonic/gin"
)

type fakeIntake struct {
	gatherCallID, gatherDigits string
	panicOnInbound             bool
}

func (f *fakeIntake) Inbound(ctx context.Context, in intake.InboundCall) intake.Response {
	if f.panicOnInbound {
		panic("boom")
	}
	return intake.Response{State: intake.StateMenuPlayed, CallID: "c-1", Action: intake.ActionMenu, GreetingText: "hello"}
}

func (f *fakeIntake) Gather(ctx context.Context, callID, digits string) intake.Response {
	f.gatherCallID, f.gatherDigits = callID, digits
	return intake.Response{State: intake.StateCallbackRequested, Action: intake.ActionHangup, Message: "thanks"}
}

type fakeReconciler struct{ id, status string }

func (f *fakeReconciler) ReconcileStatus(ctx context.Context, messageID, status, code string) (int64, error) {
	f.id, f.status = messageID, status
	return 1, nil
}

func newRouter(h TwilioWebhookHandler, mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/webhooks/twilio", mw...)
	g.POST("/voice", h.HandleInboundCall)
	g.POST("/gather", h.HandleGather)
	g.POST("/sms-status", h.HandleMessageStatus)
	return r
}

func TestHandleInboundCall_WritesMenuWithGatherAction(t *testing.T) {
	r := newRouter(TwilioWebhookHandler{Intake: &fakeIntake{}, PublicBaseURL: "https://api.example.com/"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, formRequest("/webhooks/twilio/voice", "CallSid=CA1&To=%2B1&From=%2B2"))

	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/xml" {
		t.Fatalf("unexpected response %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), `action="https://api.example.com/webhooks/twilio/gather?callId=c-1"`) {
		t.Fatalf("unexpected twiml: %s", w.Body.String())
	}
}

func TestHandleInboundCall_PanicDegradesToApology(t *testing.T) {
	r := newRouter(TwilioWebhookHandler{Intake: &fakeIntake{panicOnInbound: true}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, formRequest("/webhooks/twilio/voice", "CallSid=CA1"))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Say>") {
		t.Fatalf("expected apology twiml, got %d %s", w.Code, w.Body.String())
	}
}

func TestHandleGather_PassesCallIDAndDigits(t *testing.T) {
	fi := &fakeIntake{}
	r := newRouter(TwilioWebhookHandler{Intake: fi})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, formRequest("/webhooks/twilio/gather?callId=c-9", "Digits=2"))

	if fi.gatherCallID != "c-9" || fi.gatherDigits != "2" {
		t.Fatalf("unexpected gather input %q %q", fi.gatherCallID, fi.gatherDigits)
	}
	if !strings.Contains(w.Body.String(), "<Say>thanks</Say>") {
		t.Fatalf("unexpected twiml: %s", w.Body.String())
	}
}

func TestHandleMessageStatus(t *testing.T) {
	fr := &fakeReconciler{}
	r := newRouter(TwilioWebhookHandler{Statuses: fr})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, formRequest("/webhooks/twilio/sms-status", "MessageSid=SM1&MessageStatus=delivered"))

	if w.Code != http.StatusNoContent || fr.id != "SM1" || fr.status != "delivered" {
		t.Fatalf("unexpected %d %+v", w.Code, fr)
	}
}

func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestRequireTwilioSignature(t *testing.T) {
	tokens := func(context.Context, map[string]string) ([]string, error) { return []string{"", "secret"}, nil }
	fr := &fakeReconciler{}
	r := newRouter(TwilioWebhookHandler{Statuses: fr}, RequireTwilioSignature("https://api.example.com", tokens))

	form := url.Values{"MessageSid": {"SM1"}, "MessageStatus": {"sent"}}

	req := formRequest("/webhooks/twilio/sms-status", form.Encode())
	req.Header.Set(headerTwilioSignature, sign("secret", "https://api.example.com/webhooks/twilio/sms-status", form))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || fr.id != "SM1" {
		t.Fatalf("expected valid signature to pass, got %d", w.Code)
	}

	req = formRequest("/webhooks/twilio/sms-status", form.Encode())
	req.Header.Set(headerTwilioSignature, sign("wrong", "https://api.example.com/webhooks/twilio/sms-status", form))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bad signature, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, formRequest("/webhooks/twilio/sms-status", form.Encode()))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without signature, got %d", w.Code)
	}
}
