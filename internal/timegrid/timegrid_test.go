package timegrid

import (
	"testing"
	"time"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"9:30", 0, true},
		{"09-30", 0, true},
		{"ab:cd", 0, true},
		{"12:60", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ToMinutes(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %d, got %d (err %v)", tc.in, tc.want, got, err)
		}
	}
}

func TestSlots_BusinessDay(t *testing.T) {
	got, err := Slots("09:00", "17:00", 30)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(got))
	}
	if got[0] != "09:00" || got[len(got)-1] != "16:30" {
		t.Fatalf("unexpected bounds %q..%q", got[0], got[len(got)-1])
	}
}

func TestSlots_LengthMatchesSpan(t *testing.T) {
	for open := 0; open < MinutesPerDay; open += 90 {
		for close := 0; close <= MinutesPerDay; close += 120 {
			got, err := Slots(FromMinutes(open), FromMinutes(close), 30)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			want := 0
			if close > open {
				want = (close - open) / 30
			}
			if len(got) != want {
				t.Fatalf("%s-%s: expected %d slots, got %d", FromMinutes(open), FromMinutes(close), want, len(got))
			}
		}
	}
}

func TestSlots_EmptyWhenClosedOrInverted(t *testing.T) {
	for _, tc := range [][2]string{{"10:00", "10:00"}, {"17:00", "09:00"}} {
		got, err := Slots(tc[0], tc[1], 30)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("%v: expected no slots, got %v", tc, got)
		}
	}
}

func TestSlots_RejectsBadInput(t *testing.T) {
	if _, err := Slots("09:00", "17:00", 0); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := Slots("nine", "17:00", 30); err == nil {
		t.Fatalf("expected error for malformed open")
	}
}

func TestOverlaps_SymmetricAndHalfOpen(t *testing.T) {
	a := Interval{Start: 540, End: 570}
	b := Interval{Start: 570, End: 600}
	if Overlaps(a, b) || Overlaps(b, a) {
		t.Fatalf("adjacent intervals must not overlap")
	}

	ivs := []Interval{{540, 600}, {570, 630}, {600, 660}, {480, 720}, {545, 550}, {700, 730}}
	for _, x := range ivs {
		for _, y := range ivs {
			if Overlaps(x, y) != Overlaps(y, x) {
				t.Fatalf("overlap not symmetric for %v %v", x, y)
			}
		}
	}
	if !Overlaps(Interval{540, 600}, Interval{545, 550}) {
		t.Fatalf("nested interval must overlap")
	}
}

func TestWeekday_NoZoneDrift(t *testing.T) {
	wd, err := Weekday("2026-10-19")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if wd != time.Monday {
		t.Fatalf("expected Monday, got %s", wd)
	}
	if _, err := Weekday("2026-13-01"); err == nil {
		t.Fatalf("expected error for invalid date")
	}
}
