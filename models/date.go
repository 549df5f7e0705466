package models

import (
	"fmt"
	"time"

	c "git.cmcode.dev/cmcode/budget-tracker/constants"

	"gopkg.in/yaml.v3"
)

// Date is a civil date with no time-of-day component. It persists as a
// zero-padded YYYY-MM-DD string and compares in UTC.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate returns the date for the provided year/month/day, normalizing
// overflow the same way time.Date does (Feb 30 becomes Mar 1 or 2).
func NewDate(year, month, day int) Date {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// DateOf truncates a time to its civil date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(c.DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}

	return DateOf(t), nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// AddMonths returns the date shifted by n months with day-of-month
// overflow normalized by the time package.
func (d Date) AddMonths(n int) Date {
	return DateOf(d.Time().AddDate(0, n, 0))
}

func (d Date) String() string {
	return d.Time().Format(c.DateLayout)
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDate(value.Value)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// DaysIn returns the number of days in the provided month, accounting
// for leap years.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns day limited to the number of days in the given month,
// so that a day-31 rule lands on Feb 28 (or 29) instead of skipping the
// month or spilling into March.
func ClampDay(year, month, day int) int {
	last := DaysIn(year, month)
	if day > last {
		return last
	}

	return day
}
