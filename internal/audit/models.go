package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - tenant_id is required for tenancy isolation.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated staff user causing the event.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress is the resolved client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	CallID        string `json:"call_id,omitempty" db:"call_id"`
	AppointmentID string `json:"appointment_id,omitempty" db:"appointment_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCallbackHandled    EventType = "callback_handled"
	EventTypeCallbackReopened   EventType = "callback_reopened"
	EventTypeAppointmentCreated EventType = "appointment_created"
	EventTypeAppointmentStatus  EventType = "appointment_status"
	EventTypeAppointmentNotes   EventType = "appointment_notes"
	EventTypeBusinessHours      EventType = "business_hours_updated"
	EventTypeIVRGreeting        EventType = "ivr_greeting_updated"
	EventTypeGatewayCredentials EventType = "gateway_credentials_updated"
)

// Actor identifies who performed a staff mutation.
type Actor struct {
	UserID string
	Role   string
	IP     string
}
