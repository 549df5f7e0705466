// Package models defines the financial entry model: subscriptions,
// one-off expenses and income sources, each with a recurrence rule and
// an active start/end window.
package models

import (
	"errors"
	"fmt"
	"time"

	c "git.cmcode.dev/cmcode/budget-tracker/constants"
	"git.cmcode.dev/cmcode/budget-tracker/money"
)

var (
	// ErrInvalidDateRange is returned when an entry's end date falls
	// before its start date.
	ErrInvalidDateRange = errors.New("end date is before start date")

	// ErrInvalidRecurrence is returned for unknown frequencies or
	// out-of-range day/month values.
	ErrInvalidRecurrence = errors.New("invalid recurrence")

	// ErrInvalidEntry is returned for entries that fail basic field
	// validation, such as a missing name or a negative amount.
	ErrInvalidEntry = errors.New("invalid entry")
)

// EntryKind discriminates the entry variants. Subscriptions and expenses
// contribute negatively to the balance; incomes contribute positively.
type EntryKind string

const (
	KindSubscription = EntryKind(c.Subscription)
	KindExpense      = EntryKind(c.Expense)
	KindIncome       = EntryKind(c.Income)
)

func (k EntryKind) Valid() bool {
	switch k {
	case KindSubscription, KindExpense, KindIncome:
		return true
	}

	return false
}

// Frequency determines how often an entry's cash-flow event repeats.
type Frequency string

const (
	FreqOnce    = Frequency(c.ONCE)
	FreqMonthly = Frequency(c.MONTHLY)
	FreqYearly  = Frequency(c.YEARLY)
)

// Recurrence is an entry's repetition rule. Day is the day of the month
// for MONTHLY and YEARLY rules; Month additionally pins YEARLY rules to
// a month of the year. ONCE ignores both and fires on the entry's start
// date only.
type Recurrence struct {
	Frequency Frequency `yaml:"frequency"`
	Day       int       `yaml:"day,omitempty"`
	Month     int       `yaml:"month,omitempty"`
}

func (r Recurrence) String() string {
	switch r.Frequency {
	case FreqMonthly:
		return fmt.Sprintf("monthly on day %d", r.Day)
	case FreqYearly:
		return fmt.Sprintf("yearly on %s %d", time.Month(r.Month), r.Day)
	default:
		return "one-time"
	}
}

// Entry is a single financial record. The ID is unique within a profile
// and assigned by the profile store.
type Entry struct {
	ID         string       `yaml:"id"`
	Kind       EntryKind    `yaml:"kind"`
	Name       string       `yaml:"name"`
	Amount     money.Amount `yaml:"amount"`
	Recurrence Recurrence   `yaml:"recurrence"`
	Starts     Date         `yaml:"starts"`
	Ends       *Date        `yaml:"ends,omitempty"`
	Note       string       `yaml:"note,omitempty"`
	CreatedAt  time.Time    `yaml:"createdAt,omitempty"`
	UpdatedAt  time.Time    `yaml:"updatedAt,omitempty"`
}

// NewEntry builds a validated entry without an ID; the profile store
// assigns one on insertion.
func NewEntry(kind EntryKind, name string, amount money.Amount, rec Recurrence, starts Date, ends *Date) (Entry, error) {
	now := time.Now()

	e := Entry{
		Kind:       kind,
		Name:       name,
		Amount:     amount,
		Recurrence: rec,
		Starts:     starts,
		Ends:       ends,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := e.Validate(); err != nil {
		return Entry{}, err
	}

	return e, nil
}

// Validate normalizes recurrence defaults and checks every invariant on
// the entry. It mutates the receiver only to fill defaulted recurrence
// fields from the start date.
func (e *Entry) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, e.Kind)
	}

	if e.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}

	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative (the kind determines the sign)", ErrInvalidEntry)
	}

	if e.Starts.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidEntry)
	}

	if e.Ends != nil && e.Ends.Before(e.Starts) {
		return fmt.Errorf("%w: %v ends before %v starts", ErrInvalidDateRange, e.Ends, e.Starts)
	}

	switch e.Recurrence.Frequency {
	case FreqOnce:
	case FreqMonthly:
		if e.Recurrence.Day == 0 {
			e.Recurrence.Day = e.Starts.Day
		}

		if e.Recurrence.Day < 1 || e.Recurrence.Day > 31 {
			return fmt.Errorf("%w: day %d out of range", ErrInvalidRecurrence, e.Recurrence.Day)
		}
	case FreqYearly:
		if e.Recurrence.Day == 0 {
			e.Recurrence.Day = e.Starts.Day
		}

		if e.Recurrence.Month == 0 {
			e.Recurrence.Month = e.Starts.Month
		}

		if e.Recurrence.Day < 1 || e.Recurrence.Day > 31 {
			return fmt.Errorf("%w: day %d out of range", ErrInvalidRecurrence, e.Recurrence.Day)
		}

		if e.Recurrence.Month < 1 || e.Recurrence.Month > 12 {
			return fmt.Errorf("%w: month %d out of range", ErrInvalidRecurrence, e.Recurrence.Month)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrence, e.Recurrence.Frequency)
	}

	return nil
}

// SignedAmount returns the entry's amount with the sign applied per
// variant: positive for income, negative for subscriptions and expenses.
func (e *Entry) SignedAmount() money.Amount {
	if e.Kind == KindIncome {
		return e.Amount
	}

	return e.Amount.Neg()
}

// fireDate returns the date the recurrence fires in the given year and
// month, with day-of-month overflow clamped to the last day of that
// month. A yearly Feb-29 rule therefore lands on Feb 28 outside of leap
// years.
func (e *Entry) fireDate(year, month int) Date {
	return Date{Year: year, Month: month, Day: ClampDay(year, month, e.Recurrence.Day)}
}

// ContributesOn reports whether the entry produces a cash-flow event on
// the given date, per its recurrence and active window.
func (e *Entry) ContributesOn(d Date) bool {
	if d.Before(e.Starts) {
		return false
	}

	if e.Ends != nil && d.After(*e.Ends) {
		return false
	}

	switch e.Recurrence.Frequency {
	case FreqMonthly:
		return d == e.fireDate(d.Year, d.Month)
	case FreqYearly:
		return d.Month == e.Recurrence.Month && d == e.fireDate(d.Year, d.Month)
	default:
		return d == e.Starts
	}
}

// OccurrencesBetween counts the cash-flow events in [from, to],
// inclusive on both ends, limited to the entry's active window. A
// monthly subscription active for 5 months within the range counts 5.
func (e *Entry) OccurrencesBetween(from, to Date) int {
	lo := from
	if lo.Before(e.Starts) {
		lo = e.Starts
	}

	hi := to
	if e.Ends != nil && hi.After(*e.Ends) {
		hi = *e.Ends
	}

	if hi.Before(lo) {
		return 0
	}

	count := 0

	switch e.Recurrence.Frequency {
	case FreqMonthly:
		for cur := (Date{Year: lo.Year, Month: lo.Month, Day: 1}); !cur.After(hi); cur = cur.AddMonths(1) {
			fire := e.fireDate(cur.Year, cur.Month)
			if !fire.Before(lo) && !fire.After(hi) {
				count++
			}
		}
	case FreqYearly:
		for year := lo.Year; year <= hi.Year; year++ {
			fire := e.fireDate(year, e.Recurrence.Month)
			if !fire.Before(lo) && !fire.After(hi) {
				count++
			}
		}
	default:
		if !e.Starts.Before(lo) && !e.Starts.After(hi) {
			count = 1
		}
	}

	return count
}
