package booking

import (
	"time"

	"missedcall/internal/availability"
	"missedcall/internal/timegrid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// Active reports whether an appointment in s still holds its slot.
func (s Status) Active() bool {
	return s != StatusCancelled && s != StatusNoShow
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ParseStatus accepts a known status name.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return st, true
	}
	return "", false
}

type Source string

const (
	SourcePublic Source = "PUBLIC"
	SourceStaff  Source = "STAFF"
)

// Appointment is a booked unit of work. Appointments are never deleted,
// only moved through statuses.
type Appointment struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenantId" db:"tenant_id"`

	ServiceID       int64   `json:"serviceId" db:"service_id"`
	ServiceOptionID *int64  `json:"serviceOptionId,omitempty" db:"service_option_id"`
	Quantity        int     `json:"quantity" db:"quantity"`
	SubOptionIDs    []int64 `json:"selectedSubOptionIds" db:"selected_sub_option_ids"`
	TotalPriceMinor int64   `json:"totalPriceMinor" db:"total_price_minor"`

	// Date is YYYY-MM-DD; StartTime and EndTime are HH:MM.
	Date      string `json:"date" db:"appointment_date"`
	StartTime string `json:"startTime" db:"start_time"`
	EndTime   string `json:"endTime" db:"end_time"`
	Status    Status `json:"status" db:"status"`

	CustomerName  string `json:"customerName" db:"customer_name"`
	CustomerPhone string `json:"customerPhone" db:"customer_phone"`
	CustomerEmail string `json:"customerEmail,omitempty" db:"customer_email"`
	Notes         string `json:"notes,omitempty" db:"notes"`
	Source        Source `json:"source" db:"source"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Interval returns the appointment's [start, end) in minutes.
func (a Appointment) Interval() (timegrid.Interval, error) {
	return timegrid.ParseInterval(a.StartTime, a.EndTime)
}

func (a Appointment) availability() availability.Appointment {
	return availability.Appointment{ID: a.ID, StartTime: a.StartTime, EndTime: a.EndTime, Status: string(a.Status)}
}
