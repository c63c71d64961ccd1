// Package timegrid converts HH:MM clock strings to minute offsets and lays out
// the fixed-interval slot grid every scheduling component shares.
package timegrid

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MinutesPerDay bounds every minute offset.
const MinutesPerDay = 24 * 60

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var ErrInvalidTime = errors.New("timegrid: invalid HH:MM")

// ToMinutes parses "HH:MM" (00:00..24:00) into minutes since midnight.
func ToMinutes(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, hhmm)
	}
	h, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, hhmm)
	}
	m, err := strconv.Atoi(hhmm[3:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, hhmm)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, hhmm)
	}
	return h*60 + m, nil
}

// FromMinutes formats a minute offset as "HH:MM".
func FromMinutes(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Slots returns every interval-aligned tick in [open, close).
// The result is empty when open >= close.
func Slots(open, close string, interval int) ([]string, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("timegrid: interval must be > 0, got %d", interval)
	}
	o, err := ToMinutes(open)
	if err != nil {
		return nil, err
	}
	c, err := ToMinutes(close)
	if err != nil {
		return nil, err
	}
	if o >= c {
		return []string{}, nil
	}
	out := make([]string, 0, (c-o+interval-1)/interval)
	for t := o; t < c; t += interval {
		out = append(out, FromMinutes(t))
	}
	return out, nil
}

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// ParseInterval builds an Interval from two HH:MM strings.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

func (i Interval) Empty() bool { return i.End <= i.Start }

// Contains reports whether other lies fully inside i.
func (i Interval) Contains(other Interval) bool {
	return other.Start >= i.Start && other.End <= i.End
}

func (i Interval) String() string {
	return FromMinutes(i.Start) + "-" + FromMinutes(i.End)
}

// Overlaps is the half-open intersection test: a.Start < b.End && a.End > b.Start.
// Touching intervals such as [09:00,09:30) and [09:30,10:00) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// ParseDate parses YYYY-MM-DD as UTC midnight so weekday math has no zone drift.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timegrid: invalid date %q", s)
	}
	return d, nil
}

// Weekday returns the weekday of a YYYY-MM-DD date.
func Weekday(date string) (time.Weekday, error) {
	d, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return d.Weekday(), nil
}
