package reporting

import (
	"context"
	"errors"

	"missedcall/internal/booking"
	"missedcall/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.TenantID == "" || !req.Range.valid() {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListCalls(ctx, req.TenantID, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{TenantID: req.TenantID}
	for _, c := range rows {
		out.TotalCalls++
		switch c.Outcome() {
		case calls.IVRCallback:
			out.CallbackRequested++
		case calls.IVRComplaint:
			out.ComplaintRequested++
		case calls.IVRInvalid:
			out.InvalidInput++
		case calls.IVRNoResponse:
			out.NoResponse++
		}
		if c.Outcome() == calls.IVRCallback || c.Outcome() == calls.IVRComplaint {
			if c.CallbackHandled {
				out.Handled++
			} else {
				out.Pending++
			}
		}
	}
	return out, nil
}

func (s *Service) BookingsSummary(ctx context.Context, req BookingsSummaryRequest) (BookingsSummary, error) {
	if req.TenantID == "" || !req.Range.valid() {
		return BookingsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return BookingsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListAppointmentsCreated(ctx, req.TenantID, req.Range.From, req.Range.To)
	if err != nil {
		return BookingsSummary{}, err
	}

	out := BookingsSummary{TenantID: req.TenantID}
	for _, a := range rows {
		out.Total++
		switch a.Status {
		case booking.StatusPending:
			out.Pending++
		case booking.StatusConfirmed:
			out.Confirmed++
		case booking.StatusCompleted:
			out.Completed++
		case booking.StatusCancelled:
			out.Cancelled++
		case booking.StatusNoShow:
			out.NoShow++
		}
		if a.Source == booking.SourceStaff {
			out.Staff++
		} else {
			out.Public++
		}
		if a.Status.Active() {
			out.BookedValueMinor += a.TotalPriceMinor
		}
	}
	return out, nil
}

// ConversionMetrics compares booking-link requests to public bookings created in the same window.
func (s *Service) ConversionMetrics(ctx context.Context, tenantID string, r TimeRange) (ConversionMetrics, error) {
	cs, err := s.CallsSummary(ctx, CallsSummaryRequest{TenantID: tenantID, Range: r})
	if err != nil {
		return ConversionMetrics{}, err
	}
	bs, err := s.BookingsSummary(ctx, BookingsSummaryRequest{TenantID: tenantID, Range: r})
	if err != nil {
		return ConversionMetrics{}, err
	}

	m := ConversionMetrics{
		TenantID:       tenantID,
		MissedCalls:    cs.TotalCalls,
		LinksRequested: cs.CallbackRequested,
		PublicBookings: bs.Public,
	}
	if m.MissedCalls > 0 {
		m.LinkRate = float64(m.LinksRequested) / float64(m.MissedCalls)
	}
	if m.LinksRequested > 0 {
		m.ConversionRate = float64(m.PublicBookings) / float64(m.LinksRequested)
	}
	return m, nil
}
