package messaging

// DeliveryStatus is the persisted delivery state of an SmsLog.
type DeliveryStatus string

const (
	StatusQueued      DeliveryStatus = "QUEUED"
	StatusSent        DeliveryStatus = "SENT"
	StatusDelivered   DeliveryStatus = "DELIVERED"
	StatusFailed      DeliveryStatus = "FAILED"
	StatusUndelivered DeliveryStatus = "UNDELIVERED"

	// StatusUnrecognized is never persisted; callbacks mapping to it are dropped.
	StatusUnrecognized DeliveryStatus = ""
)

// ParseGatewayStatus maps a gateway delivery status string to DeliveryStatus.
// Unknown strings map to StatusUnrecognized.
func ParseGatewayStatus(s string) DeliveryStatus {
	switch s {
	case "queued", "accepted", "scheduled", "sending":
		return StatusQueued
	case "sent":
		return StatusSent
	case "delivered", "read", "receiving", "received":
		return StatusDelivered
	case "failed", "canceled":
		return StatusFailed
	case "undelivered":
		return StatusUndelivered
	default:
		return StatusUnrecognized
	}
}

// rank orders statuses so a late callback never moves a row backwards.
func (s DeliveryStatus) rank() int {
	switch s {
	case StatusQueued:
		return 1
	case StatusSent:
		return 2
	case StatusDelivered, StatusFailed, StatusUndelivered:
		return 3
	default:
		return 0
	}
}
