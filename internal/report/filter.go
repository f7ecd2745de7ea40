// Package report derives the dashboard's views from a flat list of sales
// records: period filtering, chart series, metric totals and tally pages.
// Every function here is pure and safe to re-run on each request.
package report

import (
	"fmt"
	"time"

	"tally/internal/core"
)

// Filter keeps the records that fall inside the period selected by kind.
// Today compares against now and ignores ref; the other kinds compare
// against ref. Dates are compared in the location of the time they are
// matched against. An unknown kind keeps every record. Input order is
// preserved and the input slice is not modified.
func Filter(records []core.Record, kind core.Period, ref, now time.Time) []core.Record {
	match := matcher(kind, ref, now)
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if match == nil || match(r.SaleDate) {
			out = append(out, r)
		}
	}
	return out
}

func matcher(kind core.Period, ref, now time.Time) func(time.Time) bool {
	switch kind {
	case core.Today:
		return func(t time.Time) bool { return sameDay(t.In(now.Location()), now) }
	case core.Daily:
		return func(t time.Time) bool { return sameDay(t.In(ref.Location()), ref) }
	case core.Monthly:
		return func(t time.Time) bool {
			t = t.In(ref.Location())
			return t.Year() == ref.Year() && t.Month() == ref.Month()
		}
	case core.Quarterly:
		return func(t time.Time) bool {
			t = t.In(ref.Location())
			return t.Year() == ref.Year() && Quarter(t) == Quarter(ref)
		}
	case core.Yearly:
		return func(t time.Time) bool { return t.In(ref.Location()).Year() == ref.Year() }
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Quarter returns 0..3 for January-March through October-December.
func Quarter(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}

// PeriodLabel is the heading shown above the dashboard for a period.
func PeriodLabel(kind core.Period, ref, now time.Time) string {
	switch kind {
	case core.Today:
		return now.Format("January 2, 2006")
	case core.Daily:
		return ref.Format("January 2, 2006")
	case core.Monthly:
		return ref.Format("January 2006")
	case core.Quarterly:
		return fmt.Sprintf("Q%d %d", Quarter(ref)+1, ref.Year())
	case core.Yearly:
		return fmt.Sprintf("%d", ref.Year())
	}
	return ""
}
