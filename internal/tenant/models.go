package tenant

import (
	"fmt"
	"time"

	"missedcall/internal/timegrid"
)

// Tenant is one onboarded business.
//
// Invariant: PhoneNumber is unique across tenants (enforced by a unique index).
type Tenant struct {
	ID     string `json:"id" db:"id"`
	Slug   string `json:"slug" db:"slug"`
	Name   string `json:"name" db:"name"`
	Status Status `json:"status" db:"status"`

	// PhoneNumber is the assigned inbound number (E.164).
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	// Optional tenant-owned Twilio credentials. Empty means the platform sender is used.
	TwilioAccountSID string `json:"-" db:"twilio_account_sid"`
	TwilioAuthToken  string `json:"-" db:"twilio_auth_token"`

	IVRGreetingText string `json:"ivr_greeting_text,omitempty" db:"ivr_greeting_text"`
	IVRAudioURL     string `json:"ivr_audio_url,omitempty" db:"ivr_audio_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusOnboarding Status = "ONBOARDING"
	StatusActive     Status = "ACTIVE"
	StatusSuspended  Status = "SUSPENDED"
	StatusDisabled   Status = "DISABLED"
)

func (t Tenant) Active() bool { return t.Status == StatusActive }

// HasOwnGatewayCredentials reports whether messages go out on the tenant's own account.
func (t Tenant) HasOwnGatewayCredentials() bool {
	return t.TwilioAccountSID != "" && t.TwilioAuthToken != ""
}

// BusinessHours is one row per (tenant, weekday).
//
// Invariant: exactly seven rows per tenant, upserted, never duplicated.
type BusinessHours struct {
	TenantID  string       `json:"tenant_id" db:"tenant_id"`
	Weekday   time.Weekday `json:"weekday" db:"weekday"`
	IsOpen    bool         `json:"is_open" db:"is_open"`
	OpenTime  string       `json:"open_time" db:"open_time"`
	CloseTime string       `json:"close_time" db:"close_time"`
}

// Interval returns the open range; only meaningful when IsOpen.
func (h BusinessHours) Interval() (timegrid.Interval, error) {
	return timegrid.ParseInterval(h.OpenTime, h.CloseTime)
}

// Validate enforces open < close for open days.
func (h BusinessHours) Validate() error {
	if h.Weekday < time.Sunday || h.Weekday > time.Saturday {
		return fmt.Errorf("weekday %d out of range", h.Weekday)
	}
	if !h.IsOpen {
		return nil
	}
	iv, err := h.Interval()
	if err != nil {
		return err
	}
	if iv.Empty() {
		return fmt.Errorf("%s: open time %s must be before close time %s", h.Weekday, h.OpenTime, h.CloseTime)
	}
	return nil
}

// ValidateWeek checks that week holds each weekday exactly once and that each row is valid.
func ValidateWeek(week []BusinessHours) error {
	if len(week) != 7 {
		return fmt.Errorf("expected 7 business hours rows, got %d", len(week))
	}
	var seen [7]bool
	for _, h := range week {
		if err := h.Validate(); err != nil {
			return err
		}
		if seen[h.Weekday] {
			return fmt.Errorf("duplicate weekday %s", h.Weekday)
		}
		seen[h.Weekday] = true
	}
	return nil
}

// ClosedDay is the row used when a tenant has no configured hours for a weekday.
func ClosedDay(tenantID string, wd time.Weekday) BusinessHours {
	return BusinessHours{TenantID: tenantID, Weekday: wd}
}
