/*
dates.go - Booking and snapshot date derivation

PURPOSE:
  Each period needs two dates before interest can be computed and booked:

  BOOKING DATE:
    The configured day-of-month, clamped to the month's length. A configured
    day of 31 must land on Feb 28/29 or Apr 30, never spill into the next
    month.

  SNAPSHOT DATE:
    The last day of the PREVIOUS month. Interest for a period is based on the
    balance outstanding immediately before any principal movement on the 1st,
    i.e. the closing balance of the prior period.

GUARDS:
  Derivation cannot produce an invalid calendar date given normalized periods,
  but both results are verified anyway: these two dates anchor everything
  downstream, so a silent overflow would corrupt the books.

SEE ALSO:
  - period.go: Period normalization
  - engine.go: Uses both dates per period
*/
package accrual

// BookingDate returns the date within the period on which the accrual will
// be recorded, clamping the configured day to the month's last day.
func (p Period) BookingDate(configuredDay int) (TimePoint, error) {
	day := configuredDay
	if last := DaysInMonth(p.Start.Year(), p.Start.Month()); day > last {
		day = last
	}
	booked := NewTimePoint(p.Start.Year(), p.Start.Month(), day)
	if err := p.checkWithin(booked); err != nil {
		return TimePoint{}, err
	}
	return booked, nil
}

// SnapshotDate returns the date whose balance feeds the computation: the day
// before the period begins.
func (p Period) SnapshotDate() (TimePoint, error) {
	snapshot := p.Start.AddDays(-1)
	if !snapshot.Before(p.Start) {
		return TimePoint{}, &DateError{
			Period: p,
			Date:   snapshot,
			Reason: "snapshot date does not precede period",
		}
	}
	return snapshot, nil
}

// checkWithin guards against a derived date escaping the period's month.
// time.Date normalizes overflow (Apr 31 becomes May 1), which would book
// interest into the wrong month.
func (p Period) checkWithin(derived TimePoint) error {
	if derived.Year() != p.Start.Year() || derived.Month() != p.Start.Month() {
		return &DateError{
			Period: p,
			Date:   derived,
			Reason: "derived date outside period month",
		}
	}
	return nil
}
