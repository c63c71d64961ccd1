package telephony

import (
	"net/http"
	"strings"

	"missedcall/internal/intake"
)

// Twilio sends application/x-www-form-urlencoded webhooks.
// Ref: https://www.twilio.com/docs/usage/webhooks/voice-webhooks
//
// Parsing only; decisions are made by the intake engine.

// TwilioInboundForm captures the subset of voice webhook fields we care about.
type TwilioInboundForm struct {
	CallSid    string
	AccountSid string
	From       string
	To         string
	Direction  string
	CallStatus string
	CallerName string

	ForwardedFrom string
}

func ParseTwilioInboundCall(r *http.Request) (TwilioInboundForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioInboundForm{}, err
	}
	return TwilioInboundForm{
		CallSid:       r.PostFormValue("CallSid"),
		AccountSid:    r.PostFormValue("AccountSid"),
		From:          normalizePhone(r.PostFormValue("From")),
		To:            normalizePhone(r.PostFormValue("To")),
		Direction:     r.PostFormValue("Direction"),
		CallStatus:    r.PostFormValue("CallStatus"),
		CallerName:    r.PostFormValue("CallerName"),
		ForwardedFrom: normalizePhone(r.PostFormValue("ForwardedFrom")),
	}, nil
}

// ToInboundCall maps the form to the intake event. To is always the assigned
// tenant number, also when the business line forwards to it.
func (f TwilioInboundForm) ToInboundCall() intake.InboundCall {
	return intake.InboundCall{To: f.To, From: f.From, ProviderCallID: f.CallSid}
}

// TwilioGatherForm is the <Gather> action callback.
type TwilioGatherForm struct {
	CallSid string
	Digits  string
	// CallID is our internal call id, echoed back in the action URL query.
	CallID string
}

func ParseTwilioGather(r *http.Request) (TwilioGatherForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioGatherForm{}, err
	}
	return TwilioGatherForm{
		CallSid: r.PostFormValue("CallSid"),
		Digits:  strings.TrimSpace(r.PostFormValue("Digits")),
		CallID:  strings.TrimSpace(r.URL.Query().Get("callId")),
	}, nil
}

// TwilioMessageStatusForm is the SMS status callback.
type TwilioMessageStatusForm struct {
	MessageSid    string
	MessageStatus string
	ErrorCode     string
}

func ParseTwilioMessageStatus(r *http.Request) (TwilioMessageStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioMessageStatusForm{}, err
	}
	f := TwilioMessageStatusForm{
		MessageSid:    r.PostFormValue("MessageSid"),
		MessageStatus: strings.ToLower(strings.TrimSpace(r.PostFormValue("MessageStatus"))),
		ErrorCode:     r.PostFormValue("ErrorCode"),
	}
	if f.MessageSid == "" {
		// older callbacks only carry SmsSid/SmsStatus
		f.MessageSid = r.PostFormValue("SmsSid")
	}
	if f.MessageStatus == "" {
		f.MessageStatus = strings.ToLower(strings.TrimSpace(r.PostFormValue("SmsStatus")))
	}
	return f, nil
}

func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return s
}
