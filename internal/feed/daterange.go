package feed

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar dates. Only the year, month and
// day of Start and End are used; their clock and zone are ignored.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(from, to string) (DateRange, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse end date: %w", err)
	}
	if dayKey(end) < dayKey(start) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", to, from)
	}
	return DateRange{Start: start, End: end}, nil
}

// LastNDays returns the range covering today and the n-1 days before it in loc.
func LastNDays(now time.Time, n int, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.Local
	}
	if n < 1 {
		n = 1
	}
	today := now.In(loc)
	return DateRange{Start: today.AddDate(0, 0, -(n - 1)), End: today}
}

// Bounds returns the first and last instants of the range in loc:
// start 00:00:00 and end 23:59:59.999999999.
func (r DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	sy, sm, sd := r.Start.Date()
	ey, em, ed := r.End.Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, loc)
	to := time.Date(ey, em, ed, 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return from, to
}

// Contains reports whether the calendar date of t in loc falls inside the range.
// A zero Start or End leaves that side open.
func (r DateRange) Contains(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	day := dayKey(t.In(loc))
	if !r.Start.IsZero() && day < dayKey(r.Start) {
		return false
	}
	if !r.End.IsZero() && day > dayKey(r.End) {
		return false
	}
	return true
}

// String renders the range as "start..end".
func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
