// Package booking validates proposed appointments against the catalog,
// business hours and existing bookings, and persists the ones that pass.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"missedcall/internal/apperr"
	"missedcall/internal/audit"
	"missedcall/internal/availability"
	"missedcall/internal/catalog"
	"missedcall/internal/messaging"
	"missedcall/internal/tenant"
	"missedcall/internal/timegrid"
	"missedcall/pkg/logger"
	"missedcall/pkg/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Request is a proposed appointment.
type Request struct {
	ServiceID       int64
	ServiceOptionID *int64
	Quantity        int
	SubOptionIDs    []int64

	Date      string
	StartTime string

	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Notes         string
}

// Hook runs inside the booking transaction just before the insert.
// Returning an error aborts the booking.
type Hook func(ctx context.Context) error

// Messenger is the outbound dispatcher contract.
type Messenger interface {
	Send(ctx context.Context, req messaging.SendRequest) messaging.Result
}

type Deps struct {
	Catalog   catalog.Repository
	Hours     availability.HoursReader
	Repo      Repository
	Tx        Transactor
	Messenger Messenger
	Audit     *audit.Service

	// Location decides what "today" is for rejecting past dates.
	Location *time.Location
	Outcomes *prometheus.CounterVec
	Now      func() time.Time
}

type Service struct {
	d Deps
}

func NewService(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Tx == nil {
		d.Tx = &MemoryTransactor{}
	}
	return &Service{d: d}
}

// Book runs the public booking flow. hooks run in the booking transaction,
// e.g. to consume the phone verification atomically with the insert.
func (s *Service) Book(ctx context.Context, t tenant.Tenant, req Request, hooks ...Hook) (Appointment, error) {
	a, err := s.create(ctx, t, req, SourcePublic, hooks)
	s.countOutcome(err)
	return a, err
}

// Create is the staff path: same guard, no phone verification.
func (s *Service) Create(ctx context.Context, t tenant.Tenant, req Request, actor audit.Actor) (Appointment, error) {
	a, err := s.create(ctx, t, req, SourceStaff, nil)
	s.countOutcome(err)
	if err != nil {
		return Appointment{}, err
	}
	s.d.Audit.Record(ctx, t.ID, actor, audit.EventTypeAppointmentCreated, audit.Event{AppointmentID: a.ID},
		"appointment created by staff", map[string]any{"date": a.Date, "start_time": a.StartTime})
	return a, nil
}

func (s *Service) create(ctx context.Context, t tenant.Tenant, req Request, source Source, hooks []Hook) (Appointment, error) {
	log := logger.From(ctx).With("tenant_id", t.ID)

	if err := s.validateShape(&req); err != nil {
		return Appointment{}, err
	}

	// 1. the service (and option) must be the tenant's and active
	svc, err := s.d.Catalog.FindActiveService(ctx, t.ID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Appointment{}, apperr.New(apperr.KindNotFound, "service not found")
		}
		return Appointment{}, fmt.Errorf("booking: load service: %w", err)
	}

	// 2-4. quantity, sub-options, duration and price
	plan, err := PlanFor(svc, req.ServiceOptionID, req.Quantity, req.SubOptionIDs, req.StartTime)
	if err != nil {
		return Appointment{}, err
	}

	wd, _ := timegrid.Weekday(req.Date)
	now := s.d.Now().UTC()
	a := Appointment{
		ID:              uuid.NewString(),
		TenantID:        t.ID,
		ServiceID:       svc.ID,
		Quantity:        plan.Quantity,
		SubOptionIDs:    plan.Quote.AddOnIDs,
		TotalPriceMinor: plan.Quote.TotalMinor,
		Date:            req.Date,
		StartTime:       plan.StartTime,
		EndTime:         plan.EndTime,
		Status:          StatusPending,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		Notes:           req.Notes,
		Source:          source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if plan.Option != nil {
		id := plan.Option.ID
		a.ServiceOptionID = &id
	}
	if a.SubOptionIDs == nil {
		a.SubOptionIDs = []int64{}
	}

	err = s.d.Tx.InTx(ctx, func(ctx context.Context) error {
		// 5. inside business hours
		h, ok, err := s.d.Hours.BusinessHours(ctx, t.ID, wd)
		if err != nil {
			return fmt.Errorf("booking: load hours: %w", err)
		}
		if !ok {
			h = tenant.ClosedDay(t.ID, wd)
		}
		if err := CheckHours(h, plan.Interval); err != nil {
			return err
		}

		// 6. no overlap with an active appointment
		existing, err := s.d.Repo.FindOverlapping(ctx, t.ID, a.Date, a.StartTime, a.EndTime)
		if err != nil {
			return fmt.Errorf("booking: overlap check: %w", err)
		}
		if err := CheckOverlap(existing, plan.Interval); err != nil {
			return err
		}

		for _, hook := range hooks {
			if err := hook(ctx); err != nil {
				return err
			}
		}
		if err := s.d.Repo.Insert(ctx, a); err != nil {
			if errors.Is(err, ErrDuplicateSlot) {
				return apperr.New(apperr.KindSlotTaken, "that time slot is already booked")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if utils.IsSerializationFailure(err) {
			return Appointment{}, apperr.Wrap(apperr.KindSlotTaken, "that time slot is already booked", err)
		}
		if apperr.Expected(apperr.KindOf(err)) {
			log.Info("booking rejected", "reason", string(apperr.KindOf(err)), "date", a.Date, "start_time", a.StartTime)
		}
		return Appointment{}, err
	}

	log.Info("appointment booked", "appointment_id", a.ID, "date", a.Date, "start_time", a.StartTime, "source", string(source))
	s.confirm(ctx, t, svc, a)
	return a, nil
}

func (s *Service) validateShape(req *Request) error {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.Notes = strings.TrimSpace(req.Notes)
	req.StartTime = strings.TrimSpace(req.StartTime)

	if req.CustomerName == "" {
		return apperr.New(apperr.KindValidation, "customerName is required")
	}
	phone, err := utils.NormalizePhone(req.CustomerPhone)
	if err != nil {
		return apperr.New(apperr.KindValidation, "customerPhone must be a valid phone number")
	}
	req.CustomerPhone = phone

	day, err := timegrid.ParseDate(req.Date)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "date must be YYYY-MM-DD", err)
	}
	today := s.d.Now().In(s.d.Location).Format(timegrid.DateLayout)
	if day.Format(timegrid.DateLayout) < today {
		return apperr.New(apperr.KindValidation, "date must not be in the past")
	}
	if _, err := timegrid.ToMinutes(req.StartTime); err != nil {
		return apperr.Wrap(apperr.KindValidation, "startTime must be HH:MM", err)
	}
	return nil
}

// confirm sends the booking confirmation. Its failure is logged by the dispatcher only.
func (s *Service) confirm(ctx context.Context, t tenant.Tenant, svc catalog.Service, a Appointment) {
	if s.d.Messenger == nil {
		return
	}
	body, err := messaging.Render(messaging.TypeBookingConfirmation, messaging.TemplateData{
		BusinessName: t.Name,
		Date:         a.Date,
		StartTime:    a.StartTime,
		ServiceName:  svc.Name,
	})
	if err != nil {
		logger.From(ctx).Warn("booking confirmation render failed", "err", err)
		return
	}
	s.d.Messenger.Send(ctx, messaging.SendRequest{
		TenantID: t.ID,
		To:       a.CustomerPhone,
		Body:     body,
		Type:     messaging.TypeBookingConfirmation,
	})
}

func (s *Service) countOutcome(err error) {
	if s.d.Outcomes == nil {
		return
	}
	result := "accepted"
	if err != nil {
		result = strings.ToLower(string(apperr.KindOf(err)))
	}
	s.d.Outcomes.WithLabelValues(result).Inc()
}

// ListByDate returns every appointment on date, any status.
func (s *Service) ListByDate(ctx context.Context, tenantID, date string) ([]Appointment, error) {
	if _, err := timegrid.ParseDate(date); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "date must be YYYY-MM-DD", err)
	}
	list, err := s.d.Repo.ListByDate(ctx, tenantID, date)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Appointment{}
	}
	return list, nil
}

// UpdateStatus moves an appointment along the allowed transitions.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id string, to Status, actor audit.Actor) (Appointment, error) {
	cur, err := s.find(ctx, tenantID, id)
	if err != nil {
		return Appointment{}, err
	}
	if !CanTransition(cur.Status, to) {
		return Appointment{}, apperr.New(apperr.KindValidation, fmt.Sprintf("cannot change status from %s to %s", cur.Status, to))
	}
	a, err := s.d.Repo.UpdateStatus(ctx, tenantID, id, cur.Status, to, s.d.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ErrStatusChanged):
			return Appointment{}, apperr.New(apperr.KindValidation, "appointment status changed, reload and retry")
		case errors.Is(err, ErrNotFound):
			return Appointment{}, apperr.New(apperr.KindNotFound, "appointment not found")
		}
		return Appointment{}, err
	}
	s.d.Audit.Record(ctx, tenantID, actor, audit.EventTypeAppointmentStatus, audit.Event{AppointmentID: id},
		"appointment status changed", map[string]any{"from": string(cur.Status), "to": string(to)})
	return a, nil
}

// UpdateNotes replaces the staff notes on an appointment.
func (s *Service) UpdateNotes(ctx context.Context, tenantID, id, notes string, actor audit.Actor) (Appointment, error) {
	if _, err := s.find(ctx, tenantID, id); err != nil {
		return Appointment{}, err
	}
	a, err := s.d.Repo.UpdateNotes(ctx, tenantID, id, strings.TrimSpace(notes), s.d.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Appointment{}, apperr.New(apperr.KindNotFound, "appointment not found")
		}
		return Appointment{}, err
	}
	s.d.Audit.Record(ctx, tenantID, actor, audit.EventTypeAppointmentNotes, audit.Event{AppointmentID: id}, "appointment notes updated", nil)
	return a, nil
}

func (s *Service) find(ctx context.Context, tenantID, id string) (Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Appointment{}, apperr.New(apperr.KindNotFound, "appointment not found")
	}
	a, err := s.d.Repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Appointment{}, apperr.New(apperr.KindNotFound, "appointment not found")
		}
		return Appointment{}, err
	}
	return a, nil
}
