package calls

import "time"

// Call is one inbound telephony event for a tenant.
//
// Multi-tenant invariant: TenantID is required on every row.
// Provider identifiers (Twilio CallSid) live in ProviderCallID only.
type Call struct {
	ID             string `json:"id" db:"id"`
	TenantID       string `json:"tenant_id" db:"tenant_id"`
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	Status CallStatus `json:"status" db:"status"`

	// IVRResponse stays nil until the gather step; nil reads as NO_RESPONSE.
	IVRResponse *IVROutcome `json:"ivr_response,omitempty" db:"ivr_response"`
	Digit       string      `json:"digit,omitempty" db:"digit"`

	CallbackHandled   bool       `json:"callback_handled" db:"callback_handled"`
	CallbackHandledAt *time.Time `json:"callback_handled_at,omitempty" db:"callback_handled_at"`
	CallbackHandledBy string     `json:"callback_handled_by,omitempty" db:"callback_handled_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusMissed   CallStatus = "MISSED"
	CallStatusAnswered CallStatus = "ANSWERED"
	CallStatusNoAnswer CallStatus = "NO_ANSWER"
	CallStatusBusy     CallStatus = "BUSY"
	CallStatusFailed   CallStatus = "FAILED"
)

// IVROutcome is what the caller chose in the voice menu.
type IVROutcome string

const (
	IVRCallback   IVROutcome = "CALLBACK"
	IVRComplaint  IVROutcome = "COMPLAINT"
	IVRInvalid    IVROutcome = "INVALID"
	IVRNoResponse IVROutcome = "NO_RESPONSE"
)

// Outcome returns the IVR outcome, NO_RESPONSE when the gather step never ran.
func (c Call) Outcome() IVROutcome {
	if c.IVRResponse == nil {
		return IVRNoResponse
	}
	return *c.IVRResponse
}

// ListFilter narrows staff call listings. Zero values mean "any".
type ListFilter struct {
	TenantID string
	Since    time.Time
	Until    time.Time
	Outcome  IVROutcome
	Handled  *bool
	Limit    int
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 500 {
		return 100
	}
	return f.Limit
}

func (f ListFilter) match(c Call) bool {
	if c.TenantID != f.TenantID {
		return false
	}
	if !f.Since.IsZero() && c.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !c.CreatedAt.Before(f.Until) {
		return false
	}
	if f.Outcome != "" && c.Outcome() != f.Outcome {
		return false
	}
	if f.Handled != nil && c.CallbackHandled != *f.Handled {
		return false
	}
	return true
}
