/*
period.go - Monthly period cursor

PURPOSE:
  A Period is one calendar month considered for interest booking, identified
  by its first-of-month date. The cursor enumerates every month from a start
  basis up to and including the current month, oldest first, so a run can
  backfill missed months in chronological order.

INVARIANTS:
  1. NORMALIZED: Period.Start is always day 1, UTC, no time component
  2. FINITE: the cursor terminates at the month containing "today"
  3. ASCENDING: consecutive elements differ by exactly one calendar month
  4. EMPTY IS FINE: a start month after today's month yields zero periods

SEE ALSO:
  - dates.go: Booking and snapshot date derivation per period
  - engine.go: Consumes the cursor, one pass per run
*/
package accrual

// =============================================================================
// PERIOD - One calendar month, identified by its first day
// =============================================================================

type Period struct {
	Start TimePoint
}

// PeriodOf truncates any date to the period of its month.
func PeriodOf(date TimePoint) Period {
	return Period{Start: StartOfMonth(date.Year(), date.Month())}
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	return Period{Start: p.Start.AddMonths(1)}
}

// LastDay returns the final calendar day of the period's month.
func (p Period) LastDay() TimePoint {
	return EndOfMonth(p.Start.Year(), p.Start.Month())
}

// String renders the period as YYYY-MM.
func (p Period) String() string {
	return p.Start.Time.Format("2006-01")
}

// =============================================================================
// CURSOR - Enumerate months needing processing
// =============================================================================

// Months returns every period from startBasis's month through today's month,
// inclusive, in ascending order. A nil startBasis means today's month only.
// If startBasis is after today's month the result is empty: nothing to do is
// not an error.
func Months(startBasis *TimePoint, today TimePoint) []Period {
	last := PeriodOf(today)

	current := last
	if startBasis != nil {
		current = PeriodOf(*startBasis)
	}

	var periods []Period
	for current.Start.BeforeOrEqual(last.Start) {
		periods = append(periods, current)
		current = current.Next()
	}
	return periods
}
