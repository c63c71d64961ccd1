package availability

import (
	"context"
	"fmt"
	"time"

	"missedcall/internal/apperr"
	"missedcall/internal/tenant"
	"missedcall/internal/timegrid"
)

// HoursReader is the subset of tenant.Repository used here.
type HoursReader interface {
	BusinessHours(ctx context.Context, tenantID string, wd time.Weekday) (tenant.BusinessHours, bool, error)
}

// AppointmentReader lists the appointments booked on a date, any status.
type AppointmentReader interface {
	AppointmentsOn(ctx context.Context, tenantID, date string) ([]Appointment, error)
}

// Service loads hours and bookings for a tenant date and computes its Day.
type Service struct {
	hours    HoursReader
	appts    AppointmentReader
	interval int
}

func NewService(hours HoursReader, appts AppointmentReader, interval int) *Service {
	if interval <= 0 {
		interval = 30
	}
	return &Service{hours: hours, appts: appts, interval: interval}
}

func (s *Service) Interval() int { return s.interval }

// ForDate computes availability for tenantID on date (YYYY-MM-DD).
// A weekday with no configured hours is closed.
func (s *Service) ForDate(ctx context.Context, tenantID, date string) (Day, error) {
	wd, err := timegrid.Weekday(date)
	if err != nil {
		return Day{}, apperr.Wrap(apperr.KindValidation, "date must be YYYY-MM-DD", err)
	}
	h, ok, err := s.hours.BusinessHours(ctx, tenantID, wd)
	if err != nil {
		return Day{}, fmt.Errorf("availability: load hours: %w", err)
	}
	if !ok {
		h = tenant.ClosedDay(tenantID, wd)
	}
	appts, err := s.appts.AppointmentsOn(ctx, tenantID, date)
	if err != nil {
		return Day{}, fmt.Errorf("availability: load appointments: %w", err)
	}
	return Compute(h, appts, s.interval)
}
