package messaging

import "time"

// MessageType is what an outbound message is for.
type MessageType string

const (
	TypeBookingLink         MessageType = "BOOKING_LINK"
	TypeComplaintLink       MessageType = "COMPLAINT_LINK"
	TypeOTP                 MessageType = "OTP"
	TypeBookingConfirmation MessageType = "BOOKING_CONFIRMATION"
)

// SmsLog is one outbound message attempt. Rows are never overwritten,
// only status-updated by delivery callbacks.
type SmsLog struct {
	ID       string      `json:"id" db:"id"`
	TenantID string      `json:"tenant_id" db:"tenant_id"`
	CallID   *string     `json:"call_id,omitempty" db:"call_id"`
	Type     MessageType `json:"type" db:"type"`

	To   string `json:"to" db:"to_number"`
	From string `json:"from" db:"from_number"`
	Body string `json:"body" db:"body"`

	Status DeliveryStatus `json:"status" db:"status"`

	// MessageID is the gateway's identifier; empty when submission failed.
	MessageID    string `json:"message_id,omitempty" db:"message_id"`
	ErrorCode    string `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	SentAt      time.Time  `json:"sent_at" db:"sent_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
}

// SendRequest is the internal send contract used by intake, verification and booking.
type SendRequest struct {
	TenantID string
	To       string
	// From overrides the sender number; empty picks the tenant or platform sender.
	From   string
	Body   string
	Type   MessageType
	CallID string
}

// Result is what Send reports. Send never returns an error value; failures are data.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	LogID     string `json:"log_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
