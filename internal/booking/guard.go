package booking

import (
	"fmt"

	"missedcall/internal/apperr"
	"missedcall/internal/catalog"
	"missedcall/internal/pricing"
	"missedcall/internal/tenant"
	"missedcall/internal/timegrid"
)

// Plan is a proposal that passed the catalog checks: it knows its interval and price.
type Plan struct {
	Service   catalog.Service
	Option    *catalog.ServiceOption
	Quantity  int
	Duration  int
	Interval  timegrid.Interval
	StartTime string
	EndTime   string
	Quote     pricing.Quote
}

// PlanFor runs guard steps 2-4 against an already resolved active service:
// option lookup, quantity clamping, sub-option ownership, and duration.
func PlanFor(svc catalog.Service, optionID *int64, quantity int, subOptionIDs []int64, start string) (Plan, error) {
	p := Plan{Service: svc}

	if optionID != nil {
		o, ok := svc.ActiveOption(*optionID)
		if !ok {
			return Plan{}, apperr.New(apperr.KindNotFound, "service option not found")
		}
		p.Option = &o
	}

	p.Quantity = catalog.ClampQuantity(p.Option, quantity)

	for _, id := range subOptionIDs {
		if p.Option == nil {
			return Plan{}, apperr.New(apperr.KindInvalidSubOption, "sub-options require a service option")
		}
		if _, ok := p.Option.SubOption(id); !ok {
			return Plan{}, apperr.New(apperr.KindInvalidSubOption, fmt.Sprintf("sub-option %d does not belong to the selected option", id))
		}
	}

	startMin, err := timegrid.ToMinutes(start)
	if err != nil {
		return Plan{}, apperr.Wrap(apperr.KindValidation, "startTime must be HH:MM", err)
	}
	p.Duration = catalog.EffectiveDuration(svc, p.Option) * p.Quantity
	if p.Duration <= 0 {
		return Plan{}, apperr.New(apperr.KindValidation, "service has no duration")
	}
	p.Interval = timegrid.Interval{Start: startMin, End: startMin + p.Duration}
	if p.Interval.End > timegrid.MinutesPerDay {
		return Plan{}, apperr.New(apperr.KindOutsideHours, "appointment runs past the end of the day")
	}
	p.StartTime = timegrid.FromMinutes(p.Interval.Start)
	p.EndTime = timegrid.FromMinutes(p.Interval.End)

	p.Quote = pricing.Resolve(pricing.Input{
		Service:      svc,
		Option:       p.Option,
		Quantity:     p.Quantity,
		SubOptionIDs: subOptionIDs,
	})
	return p, nil
}

// CheckHours is guard step 5: the day must be open and contain iv.
func CheckHours(h tenant.BusinessHours, iv timegrid.Interval) error {
	if !h.IsOpen {
		return apperr.New(apperr.KindOutsideHours, "business is closed on that day")
	}
	hours, err := h.Interval()
	if err != nil {
		return fmt.Errorf("booking: business hours: %w", err)
	}
	if !hours.Contains(iv) {
		return apperr.New(apperr.KindOutsideHours, fmt.Sprintf("appointment must fall within %s-%s", h.OpenTime, h.CloseTime))
	}
	return nil
}

// CheckOverlap is guard step 6: no active appointment may intersect iv.
func CheckOverlap(existing []Appointment, iv timegrid.Interval) error {
	for _, a := range existing {
		if !a.Status.Active() {
			continue
		}
		other, err := a.Interval()
		if err != nil {
			return fmt.Errorf("booking: stored appointment %s: %w", a.ID, err)
		}
		if timegrid.Overlaps(other, iv) {
			return apperr.New(apperr.KindSlotTaken, "that time slot is already booked")
		}
	}
	return nil
}
