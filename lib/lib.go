// Package lib implements the balance calculator: point-in-time balance,
// per-month net change, and forward projections over a date window. All
// arithmetic uses the exact money.Amount type.
package lib

import (
	"encoding/csv"
	"fmt"
	"strings"

	"git.cmcode.dev/cmcode/budget-tracker/models"
	"git.cmcode.dev/cmcode/budget-tracker/money"
	"git.cmcode.dev/cmcode/budget-tracker/profile"

	"github.com/teambition/rrule-go"
)

// BalanceAt returns the cumulative balance as of the given date: the
// profile's initial balance plus every contribution each entry has made
// from its start date through the given date, inclusive. A monthly
// subscription active for 5 months contributes 5x its signed amount.
func BalanceAt(p *profile.Profile, date models.Date) money.Amount {
	bal := p.InitialBalance

	for i := range p.Entries {
		e := &p.Entries[i]

		n := e.OccurrencesBetween(e.Starts, date)
		if n == 0 {
			continue
		}

		bal = bal.Add(e.SignedAmount().MulInt(int64(n)))
	}

	return bal
}

// MonthlyDelta returns the net change contributed within the given
// calendar month only.
func MonthlyDelta(p *profile.Profile, year, month int) money.Amount {
	first := models.Date{Year: year, Month: month, Day: 1}
	last := models.Date{Year: year, Month: month, Day: models.DaysIn(year, month)}

	delta := money.Zero()

	for i := range p.Entries {
		e := &p.Entries[i]

		n := e.OccurrencesBetween(first, last)
		if n == 0 {
			continue
		}

		delta = delta.Add(e.SignedAmount().MulInt(int64(n)))
	}

	return delta
}

// CostToYearEnd returns the total remaining outflow (subscriptions and
// expenses, as a positive magnitude) from the given date through the end
// of its year.
func CostToYearEnd(p *profile.Profile, from models.Date) money.Amount {
	yearEnd := models.Date{Year: from.Year, Month: 12, Day: 31}

	total := money.Zero()

	for i := range p.Entries {
		e := &p.Entries[i]
		if e.Kind == models.KindIncome {
			continue
		}

		n := e.OccurrencesBetween(from, yearEnd)
		if n == 0 {
			continue
		}

		total = total.Add(e.Amount.MulInt(int64(n)))
	}

	return total
}

// IncomeToYearEnd is the income counterpart to CostToYearEnd.
func IncomeToYearEnd(p *profile.Profile, from models.Date) money.Amount {
	yearEnd := models.Date{Year: from.Year, Month: 12, Day: 31}

	total := money.Zero()

	for i := range p.Entries {
		e := &p.Entries[i]
		if e.Kind != models.KindIncome {
			continue
		}

		n := e.OccurrencesBetween(from, yearEnd)
		if n == 0 {
			continue
		}

		total = total.Add(e.Amount.MulInt(int64(n)))
	}

	return total
}

// Snapshot is one point of a projection: the running balance after all
// contributions on Date have been applied.
type Snapshot struct {
	Date    models.Date
	Balance money.Amount
	Net     money.Amount
	Names   []string
}

// Projection is a lazy, finite, restartable sequence of balance
// snapshots, one per date in the window where at least one contribution
// occurs. Dates are strictly increasing; same-day contributions are
// merged into one snapshot.
type Projection struct {
	p     *profile.Profile
	dates []models.Date
	start money.Amount

	idx int
	bal money.Amount
}

// NewProjection prepares a projection over [from, to], both inclusive.
// The running balance starts from BalanceAt the day before the window
// opens, so contributions on the first day are reflected in the first
// snapshot.
func NewProjection(p *profile.Profile, from, to models.Date) (*Projection, error) {
	if from.After(to) {
		return nil, fmt.Errorf("start date is after end date: %v vs %v", from, to)
	}

	// index every single date from `from` to `to`
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: from.Time(),
		Until:   to.Time(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to construct rrule for projection date window: %w", err)
	}

	all := r.All()

	dates := make([]models.Date, 0, len(all))
	for _, dt := range all {
		dates = append(dates, models.DateOf(dt))
	}

	start := BalanceAt(p, models.DateOf(from.Time().AddDate(0, 0, -1)))

	pr := &Projection{
		p:     p,
		dates: dates,
		start: start,
	}

	pr.Reset()

	return pr, nil
}

// Reset rewinds the projection so that Next starts over from the first
// snapshot.
func (pr *Projection) Reset() {
	pr.idx = 0
	pr.bal = pr.start
}

// Next returns the next snapshot in date order, or false once the window
// is exhausted. Dates without any contribution are skipped.
func (pr *Projection) Next() (Snapshot, bool) {
	for pr.idx < len(pr.dates) {
		d := pr.dates[pr.idx]
		pr.idx++

		net := money.Zero()

		var names []string

		for i := range pr.p.Entries {
			e := &pr.p.Entries[i]
			if !e.ContributesOn(d) {
				continue
			}

			net = net.Add(e.SignedAmount())
			names = append(names, e.Name)
		}

		if len(names) == 0 {
			continue
		}

		pr.bal = pr.bal.Add(net)

		return Snapshot{Date: d, Balance: pr.bal, Net: net, Names: names}, true
	}

	return Snapshot{}, false
}

// All resets the projection and collects every snapshot. The projection
// is left exhausted.
func (pr *Projection) All() []Snapshot {
	pr.Reset()

	var snaps []Snapshot

	for {
		s, ok := pr.Next()
		if !ok {
			return snaps
		}

		snaps = append(snaps, s)
	}
}

// ProjectionCSV renders the projection's snapshots as CSV rows of date,
// running balance, day net and the contributing entry names.
func ProjectionCSV(pr *Projection) string {
	b := new(strings.Builder)
	w := csv.NewWriter(b)

	_ = w.Write([]string{"date", "balance", "net", "entries"})

	for _, s := range pr.All() {
		var record []string
		record = append(record, s.Date.String())
		record = append(record, s.Balance.Currency())
		record = append(record, s.Net.Currency())
		record = append(record, strings.Join(s.Names, "; "))
		_ = w.Write(record)
	}

	w.Flush()

	return b.String()
}

// Stats spits out some quick calculations about the provided profile as
// of the given date: the current balance, this month's net change, and
// the remaining income/spending through the end of the year.
func Stats(p *profile.Profile, today models.Date) string {
	yearEnd := models.Date{Year: today.Year, Month: 12, Day: 31}

	b := new(strings.Builder)
	b.WriteString(fmt.Sprintf("Here are some statistics about profile %v.\n\n", p.Name))

	b.WriteString(fmt.Sprintf(
		"Balance today: %v\nThis month's net change: %v",
		BalanceAt(p, today).Currency(),
		MonthlyDelta(p, today.Year, today.Month).Currency(),
	))

	b.WriteString(fmt.Sprintf(
		"\nRemaining spending this year: %v\nRemaining income this year: %v\nProjected balance on %v: %v\n",
		CostToYearEnd(p, today).Currency(),
		IncomeToYearEnd(p, today).Currency(),
		yearEnd,
		BalanceAt(p, yearEnd).Currency(),
	))

	return b.String()
}
