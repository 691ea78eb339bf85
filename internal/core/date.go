package core

import (
	"fmt"
	"time"
)

const isoDateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day and no zone. Comparing two
// Dates never depends on where the process runs.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date without validating it; call Validate when the
// parts come from user input.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: time.Month(month), Day: day}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar day as seen from loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// ParseDate accepts only YYYY-MM-DD within the range Validate allows.
func ParseDate(s string) (Date, error) {
	if len(s) != len(isoDateLayout) {
		return Date{}, fmt.Errorf("%w: %q is not in YYYY-MM-DD format", ErrInvalidDate, s)
	}
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not a valid calendar date", ErrInvalidDate, s)
	}
	d := DateOf(t)
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	if d.Year < 1 || d.Year > 9999 {
		return fmt.Errorf("%w: year out of range", ErrInvalidDate)
	}
	if d.Month < time.January || d.Month > time.December {
		return fmt.Errorf("%w: month out of range", ErrInvalidDate)
	}
	if d.Day < 1 || d.Day > daysIn(d.Year, d.Month) {
		return fmt.Errorf("%w: day out of range", ErrInvalidDate)
	}
	return nil
}

// String renders the ISO form used on the wire and in storage.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Display renders DD/MM/YYYY as shown to the provider.
func (d Date) Display() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// MonthKey returns YYYY-MM.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// FirstOfMonth and LastOfMonth bound the month d belongs to.
func (d Date) FirstOfMonth() Date { return Date{Year: d.Year, Month: d.Month, Day: 1} }
func (d Date) LastOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: daysIn(d.Year, d.Month)}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
