// Package availability derives a day's open state, slot grid and occupancy
// from business hours and the appointments already booked that day.
package availability

import (
	"fmt"
	"sort"

	"missedcall/internal/tenant"
	"missedcall/internal/timegrid"
)

// Appointment is the slice of a booked appointment the calculator needs.
type Appointment struct {
	ID        string
	StartTime string
	EndTime   string
	Status    string
}

// Inactive reports whether the appointment no longer holds its slot.
func (a Appointment) Inactive() bool {
	return a.Status == "CANCELLED" || a.Status == "NO_SHOW"
}

// Span is a booked interval as exposed to callers.
type Span struct {
	AppointmentID string `json:"appointment_id,omitempty"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`

	iv timegrid.Interval
}

func (s Span) Interval() timegrid.Interval { return s.iv }

// Day is the computed availability of one calendar day.
type Day struct {
	Open      bool   `json:"isOpen"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
	Interval  int    `json:"slotInterval"`

	Slots []string `json:"slots"`

	// Occupied holds the minute offsets of grid ticks taken by an appointment.
	Occupied       map[int]struct{} `json:"-"`
	AvailableCount int              `json:"availableCount"`

	Booked []Span `json:"bookedSlots"`
	// Conflicts are appointments lying at least partly outside business hours.
	Conflicts []Span `json:"conflicts,omitempty"`

	hours timegrid.Interval
}

// IsOccupied reports whether the tick starting at hhmm is taken.
func (d Day) IsOccupied(hhmm string) bool {
	m, err := timegrid.ToMinutes(hhmm)
	if err != nil {
		return false
	}
	_, ok := d.Occupied[m]
	return ok
}

// Compute builds the Day for hours and appts on a grid of interval minutes.
// Cancelled and no-show appointments are ignored.
func Compute(hours tenant.BusinessHours, appts []Appointment, interval int) (Day, error) {
	if interval <= 0 {
		return Day{}, fmt.Errorf("availability: interval must be > 0, got %d", interval)
	}
	day := Day{
		Interval: interval,
		Slots:    []string{},
		Occupied: map[int]struct{}{},
		Booked:   []Span{},
	}

	spans := make([]Span, 0, len(appts))
	for _, a := range appts {
		if a.Inactive() {
			continue
		}
		iv, err := timegrid.ParseInterval(a.StartTime, a.EndTime)
		if err != nil {
			return Day{}, fmt.Errorf("availability: appointment %s: %w", a.ID, err)
		}
		spans = append(spans, Span{AppointmentID: a.ID, StartTime: a.StartTime, EndTime: a.EndTime, iv: iv})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].iv.Start < spans[j].iv.Start })
	day.Booked = spans

	if !hours.IsOpen {
		// every appointment on a closed day is outside hours
		day.Conflicts = append(day.Conflicts, spans...)
		return day, nil
	}

	open, err := hours.Interval()
	if err != nil {
		return Day{}, fmt.Errorf("availability: %w", err)
	}
	day.Open = true
	day.OpenTime = hours.OpenTime
	day.CloseTime = hours.CloseTime
	day.hours = open

	slots, err := timegrid.Slots(hours.OpenTime, hours.CloseTime, interval)
	if err != nil {
		return Day{}, err
	}
	day.Slots = slots

	for _, sp := range spans {
		if !open.Contains(sp.iv) {
			day.Conflicts = append(day.Conflicts, sp)
		}
		for t := open.Start; t < open.End; t += interval {
			if timegrid.Overlaps(timegrid.Interval{Start: t, End: t + interval}, sp.iv) {
				day.Occupied[t] = struct{}{}
			}
		}
	}
	day.AvailableCount = len(day.Slots) - len(day.Occupied)
	return day, nil
}

// BookableStarts lists slot starts where a duration-minute appointment fits
// inside business hours without overlapping any booked interval.
func BookableStarts(day Day, duration int) []string {
	out := []string{}
	if !day.Open || duration <= 0 {
		return out
	}
	for _, s := range day.Slots {
		start, err := timegrid.ToMinutes(s)
		if err != nil {
			continue
		}
		cand := timegrid.Interval{Start: start, End: start + duration}
		if !day.hours.Contains(cand) {
			continue
		}
		free := true
		for _, b := range day.Booked {
			if timegrid.Overlaps(cand, b.iv) {
				free = false
				break
			}
		}
		if free {
			out = append(out, s)
		}
	}
	return out
}
