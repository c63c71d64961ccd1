package intake

import (
	"fmt"
	"time"
)

// Response is the provider-agnostic output of the intake engine.
//
// It carries only what the voice adapter needs to build its markup;
// no provider identity or provider-specific fields belong here.
type Response struct {
	State    State  `json:"state"`
	TenantID string `json:"tenant_id,omitempty"`
	CallID   string `json:"call_id,omitempty"`

	Action Action `json:"action"`

	// Menu fields, set when Action == ActionMenu.
	GreetingAudioURL string        `json:"greeting_audio_url,omitempty"`
	GreetingText     string        `json:"greeting_text,omitempty"`
	GatherTimeout    time.Duration `json:"gather_timeout,omitempty"`
	NoInputMessage   string        `json:"no_input_message,omitempty"`

	// Message is spoken before hanging up (ActionHangup).
	Message string `json:"message,omitempty"`
}

type Action string

const (
	// ActionMenu plays the greeting and collects one digit.
	ActionMenu Action = "menu"
	// ActionHangup speaks Message and ends the call.
	ActionHangup Action = "hangup"
)

// Caller-facing prompts.
const (
	msgNoInput   = "We didn't receive a selection. We'll be in touch soon. Goodbye."
	msgCallback  = "Thank you! We've sent you a text message with a link to book your appointment. Goodbye."
	msgComplaint = "Thank you. We've sent you a text message with a link to tell us what happened, and someone will follow up with you. Goodbye."
	msgInvalid   = "Sorry, that isn't a valid option. Please call back and try again. Goodbye."
	msgApology   = "We're sorry, we can't take your call right now. Please try again later. Goodbye."
)

func defaultGreeting(businessName string) string {
	if businessName == "" {
		businessName = "us"
	}
	return fmt.Sprintf("Thanks for calling %s. Sorry we missed your call. "+
		"Press 1 to receive a text message with a link to book an appointment. "+
		"Press 2 if you have a concern and would like us to call you back.", businessName)
}

// Apology is the generic terminal response used whenever intake cannot proceed.
func Apology() Response {
	return Response{State: StateError, Action: ActionHangup, Message: msgApology}
}

func terminal(s State, tenantID, callID string) Response {
	r := Response{State: s, TenantID: tenantID, CallID: callID, Action: ActionHangup}
	switch s {
	case StateCallbackRequested:
		r.Message = msgCallback
	case StateComplaintRequested:
		r.Message = msgComplaint
	case StateInvalidInput:
		r.Message = msgInvalid
	case StateNoInput:
		r.Message = msgNoInput
	default:
		r.Message = msgApology
	}
	return r
}
