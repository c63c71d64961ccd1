package reporting

import "time"

// TimeRange is the half-open window [From, To).
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

// CallsSummaryRequest requests aggregated missed-call metrics for one tenant.
type CallsSummaryRequest struct {
	TenantID string    `json:"tenant_id"`
	Range    TimeRange `json:"range"`
}

type CallsSummary struct {
	TenantID string `json:"tenant_id"`

	TotalCalls int `json:"total_calls"`

	// Counts by IVR outcome; a call that never reached the gather step is NO_RESPONSE.
	CallbackRequested  int `json:"callback_requested"`
	ComplaintRequested int `json:"complaint_requested"`
	InvalidInput       int `json:"invalid_input"`
	NoResponse         int `json:"no_response"`

	// Follow-up state of callbacks and complaints.
	Handled int `json:"handled"`
	Pending int `json:"pending"`
}

// BookingsSummaryRequest requests appointment metrics for appointments created in Range.
type BookingsSummaryRequest struct {
	TenantID string    `json:"tenant_id"`
	Range    TimeRange `json:"range"`
}

type BookingsSummary struct {
	TenantID string `json:"tenant_id"`

	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	NoShow    int `json:"no_show"`

	Public int `json:"public"`
	Staff  int `json:"staff"`

	// BookedValueMinor sums totals of appointments still holding their slot or completed.
	BookedValueMinor int64 `json:"booked_value_minor"`
}

// ConversionMetrics relates booking-link requests to public bookings in the same window.
type ConversionMetrics struct {
	TenantID string `json:"tenant_id"`

	MissedCalls    int `json:"missed_calls"`
	LinksRequested int `json:"links_requested"`
	PublicBookings int `json:"public_bookings"`

	LinkRate       float64 `json:"link_rate"`
	ConversionRate float64 `json:"conversion_rate"`
}
