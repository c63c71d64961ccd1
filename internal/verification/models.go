package verification

import "time"

// Verification is a one-time code challenge for a phone number.
// Expired rows are inert and kept; a row is consumed at most once.
type Verification struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Phone    string `json:"phone" db:"phone"`
	Code     string `json:"-" db:"code"`

	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	Consumed   bool       `json:"consumed" db:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty" db:"consumed_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// ValidAt reports whether the code can still be used at now. The code expires
// exactly at ExpiresAt.
func (v Verification) ValidAt(now time.Time) bool {
	return !v.Consumed && now.Before(v.ExpiresAt)
}
