package availability

import (
	"context"
	"reflect"
	"testing"
	"time"

	"missedcall/internal/apperr"
	"missedcall/internal/tenant"
)

func openHours(open, close string) tenant.BusinessHours {
	return tenant.BusinessHours{TenantID: "t1", Weekday: time.Monday, IsOpen: true, OpenTime: open, CloseTime: close}
}

func TestCompute_ClosedDay(t *testing.T) {
	day, err := Compute(tenant.BusinessHours{Weekday: time.Sunday}, []Appointment{
		{ID: "a1", StartTime: "10:00", EndTime: "10:30", Status: "PENDING"},
	}, 30)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if day.Open || len(day.Slots) != 0 || len(day.Occupied) != 0 {
		t.Fatalf("closed day must have no slots or occupancy: %+v", day)
	}
	if len(day.Conflicts) != 1 {
		t.Fatalf("appointment on a closed day is a conflict, got %+v", day.Conflicts)
	}
}

func TestCompute_OccupancyDedupesOverlaps(t *testing.T) {
	day, err := Compute(openHours("09:00", "12:00"), []Appointment{
		{ID: "a1", StartTime: "09:00", EndTime: "10:00", Status: "CONFIRMED"},
		{ID: "a2", StartTime: "09:30", EndTime: "10:30", Status: "PENDING"},
		{ID: "a3", StartTime: "11:00", EndTime: "11:30", Status: "CANCELLED"},
		{ID: "a4", StartTime: "11:00", EndTime: "11:30", Status: "NO_SHOW"},
	}, 30)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(day.Slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(day.Slots))
	}
	// 09:00, 09:30, 10:00
	if len(day.Occupied) != 3 || day.AvailableCount != 3 {
		t.Fatalf("expected 3 occupied / 3 available, got %d / %d", len(day.Occupied), day.AvailableCount)
	}
	if day.IsOccupied("11:00") {
		t.Fatalf("cancelled and no-show appointments must not occupy slots")
	}
	if len(day.Booked) != 2 || len(day.Conflicts) != 0 {
		t.Fatalf("unexpected booked/conflicts: %+v / %+v", day.Booked, day.Conflicts)
	}
}

func TestCompute_ReportsOutOfHoursConflicts(t *testing.T) {
	day, err := Compute(openHours("09:00", "17:00"), []Appointment{
		{ID: "early", StartTime: "08:30", EndTime: "09:30", Status: "PENDING"},
		{ID: "late", StartTime: "16:30", EndTime: "17:30", Status: "PENDING"},
		{ID: "ok", StartTime: "12:00", EndTime: "12:30", Status: "PENDING"},
	}, 30)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	var ids []string
	for _, c := range day.Conflicts {
		ids = append(ids, c.AppointmentID)
	}
	if !reflect.DeepEqual(ids, []string{"early", "late"}) {
		t.Fatalf("unexpected conflicts %v", ids)
	}
	// only in-hours ticks are marked
	if !day.IsOccupied("09:00") || !day.IsOccupied("16:30") || day.IsOccupied("08:30") {
		t.Fatalf("unexpected occupancy %v", day.Occupied)
	}
}

func TestBookableStarts(t *testing.T) {
	day, err := Compute(openHours("14:00", "16:00"), []Appointment{
		{ID: "a1", StartTime: "14:00", EndTime: "14:30", Status: "PENDING"},
	}, 30)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got := BookableStarts(day, 60)
	want := []string{"14:30", "15:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(BookableStarts(day, 0)) != 0 {
		t.Fatalf("zero duration is never bookable")
	}
}

type fakeHours map[time.Weekday]tenant.BusinessHours

func (f fakeHours) BusinessHours(_ context.Context, _ string, wd time.Weekday) (tenant.BusinessHours, bool, error) {
	h, ok := f[wd]
	return h, ok, nil
}

type fakeAppts []Appointment

func (f fakeAppts) AppointmentsOn(context.Context, string, string) ([]Appointment, error) {
	return f, nil
}

func TestService_ForDate(t *testing.T) {
	svc := NewService(fakeHours{time.Monday: openHours("09:00", "10:00")}, fakeAppts{}, 0)

	// 2026-10-19 is a Monday
	day, err := svc.ForDate(context.Background(), "t1", "2026-10-19")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !day.Open || len(day.Slots) != 2 || svc.Interval() != 30 {
		t.Fatalf("unexpected day %+v", day)
	}

	day, err = svc.ForDate(context.Background(), "t1", "2026-10-20")
	if err != nil || day.Open {
		t.Fatalf("unconfigured weekday must be closed: %+v err=%v", day, err)
	}

	if _, err := svc.ForDate(context.Background(), "t1", "20-10-2026"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}
