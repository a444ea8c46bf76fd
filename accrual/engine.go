/*
engine.go - Idempotent per-period accrual booking

PURPOSE:
  Drives the period cursor and, for each month, performs the bounded sequence
  of collaborator calls:

    existence check -> date derivation -> balance fetch -> compute -> commit

  Exactly one canonical record lands per period, no matter how many times the
  run is repeated or how a previous run was interrupted.

IDEMPOTENCY:
  The key "interest-YYYY-MM" is deterministic per period and stable across
  runs. The existence check scans the account's records across the whole
  period month (through today when later); a matching key means the period is
  already booked and is skipped. This is the SOLE de-duplication mechanism -
  there is no local bookkeeping to get out of sync with the ledger.

STATE MACHINE (per period):
  PENDING -> SKIPPED   (already booked)
          -> SIMULATED (simulate-only run)
          -> COMMITTED (record submitted)
          -> FAILED    (aborts the whole run)

  FAILED is terminal for the run: no retries, fail-fast, because silently
  skipping a failed booking would break the one-record-per-period invariant.
  Re-running later is always safe.

CONCURRENCY:
  Strictly sequential. Periods are processed oldest-first, one at a time,
  with no overlap between collaborator calls. Concurrent runs against the
  same account may race the existence check and double-book; that is an
  accepted limitation, not handled by locking.

SEE ALSO:
  - period.go:  The cursor
  - compute.go: The interest convention
  - session.go: Setup and resolution
*/
package accrual

import (
	"context"
	"fmt"
)

// Fixed descriptive metadata carried on every booked record.
const (
	bookingPayee = "Mortgage interest"
	bookingNote  = "Monthly interest accrual"
)

// IdempotencyKey derives the deterministic booking key for a period.
func IdempotencyKey(p Period) string {
	return "interest-" + p.String()
}

// =============================================================================
// RUN REPORT - Per-period outcomes
// =============================================================================

type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusSimulated Status = "simulated"
	StatusCommitted Status = "committed"
)

// PeriodResult records what happened to one period.
type PeriodResult struct {
	Period       Period
	Status       Status
	AmountCents  int64
	BookingDate  TimePoint
	SnapshotDate TimePoint
}

func (r PeriodResult) String() string {
	if r.Status == StatusSkipped {
		return fmt.Sprintf("%s: skipped (already booked)", r.Period)
	}
	return fmt.Sprintf("%s: %s %d cents on %s (balance as of %s)",
		r.Period, r.Status, r.AmountCents, r.BookingDate, r.SnapshotDate)
}

// RunReport summarizes a completed run.
type RunReport struct {
	Results []PeriodResult
}

func (r RunReport) count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

func (r RunReport) Skipped() int   { return r.count(StatusSkipped) }
func (r RunReport) Simulated() int { return r.count(StatusSimulated) }
func (r RunReport) Committed() int { return r.count(StatusCommitted) }

// =============================================================================
// ENGINE - The per-period loop
// =============================================================================

// Run processes every period from the configured start month through today's
// month, oldest first. It returns the report of completed periods; on error
// the report covers the prefix that completed before the failing period.
func (s *Session) Run(ctx context.Context, today TimePoint) (RunReport, error) {
	var report RunReport

	for _, p := range Months(s.cfg.StartDate, today) {
		result, err := s.processPeriod(ctx, p, today)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, result)
		s.logf("%s", result)
	}
	return report, nil
}

func (s *Session) processPeriod(ctx context.Context, p Period, today TimePoint) (PeriodResult, error) {
	key := IdempotencyKey(p)

	// 1. Idempotency check. The window spans the whole period, not just up to
	// today: a prior run books on the period's booking day, which post-dates
	// today whenever the current month runs before that day.
	to := today
	if p.LastDay().After(to) {
		to = p.LastDay()
	}
	existing, err := s.client.Transactions(ctx, s.accountID, p.Start, to)
	if err != nil {
		return PeriodResult{}, &RunError{Period: p, Stage: StageExistenceCheck, Err: err}
	}
	for _, tx := range existing {
		if tx.IdempotencyKey == key {
			return PeriodResult{Period: p, Status: StatusSkipped}, nil
		}
	}

	// 2. Date derivation.
	bookingDate, err := p.BookingDate(s.cfg.BookingDay)
	if err != nil {
		return PeriodResult{}, &RunError{Period: p, Stage: StageDateDerivation, Err: err}
	}
	snapshotDate, err := p.SnapshotDate()
	if err != nil {
		return PeriodResult{}, &RunError{Period: p, Stage: StageDateDerivation, Err: err}
	}

	// 3. Accrual computation on the prior period's closing balance.
	balance, err := s.client.BalanceAsOf(ctx, s.accountID, snapshotDate)
	if err != nil {
		return PeriodResult{}, &RunError{Period: p, Stage: StageBalanceFetch, Err: err}
	}
	amount := Interest(balance, s.cfg.AnnualRate)

	result := PeriodResult{
		Period:       p,
		AmountCents:  amount,
		BookingDate:  bookingDate,
		SnapshotDate: snapshotDate,
	}

	// 4. Commit or simulate.
	if s.cfg.Simulate {
		result.Status = StatusSimulated
		return result, nil
	}

	record := Transaction{
		IdempotencyKey: key,
		Date:           bookingDate,
		AmountCents:    amount,
		CategoryID:     s.categoryID,
		Payee:          bookingPayee,
		Note:           bookingNote,
		Cleared:        true,
	}
	err = s.client.AddTransactions(ctx, s.accountID, []Transaction{record}, AddOptions{})
	if err != nil {
		return PeriodResult{}, &RunError{
			Period: p,
			Stage:  StageCommit,
			Err:    fmt.Errorf("%w: %v", ErrCommitFailed, err),
		}
	}
	result.Status = StatusCommitted
	return result, nil
}
