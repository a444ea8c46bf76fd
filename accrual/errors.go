/*
errors.go - Centralized error types for the accrual engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Configuration errors - invalid/missing settings, fatal at startup
  2. Resolution errors    - configured account/category name not found
  3. Date errors          - impossible calendar arithmetic (guard, not expected)
  4. Run errors           - a period failed mid-run; identifies period + stage

PROPAGATION POLICY:
  Fail-fast. Any per-period error aborts the whole run immediately; there is
  no partial-success continuation across periods. Re-running after a failure
  is always safe: the deterministic idempotency key makes committed periods
  skip on the next pass.

USAGE:
  if errors.Is(err, accrual.ErrCommitFailed) { ... }

  var runErr *accrual.RunError
  if errors.As(err, &runErr) {
      log.Printf("period %s failed at %s", runErr.Period, runErr.Stage)
  }
*/
package accrual

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfig is returned for an invalid or missing required
	// setting. Fatal at startup; the run never begins.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound is returned when a configured account or category name
	// cannot be resolved against the ledger's listings.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDate is returned when date derivation produces an impossible
	// calendar date. A guard: unreachable given validated inputs.
	ErrInvalidDate = errors.New("invalid derived date")

	// ErrCommitFailed is returned when the ledger rejected or failed a
	// booking submission. Fatal for the run; safe to retry the whole run.
	ErrCommitFailed = errors.New("commit failed")

	// ErrDuplicateIdempotencyKey is returned by ledger implementations when
	// a submitted transaction carries a key that already exists.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError reports which setting is invalid and why.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Setting, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// NotFoundError reports an unresolvable account or category name.
type NotFoundError struct {
	Kind string // "account" or "category"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in ledger", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DateError reports a derived date that escaped its period.
type DateError struct {
	Period Period
	Date   TimePoint
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("period %s: derived %s: %s", e.Period, e.Date, e.Reason)
}

func (e *DateError) Unwrap() error { return ErrInvalidDate }

// RunError identifies the period and processing stage at which a run aborted.
type RunError struct {
	Period Period
	Stage  Stage
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("period %s: %s: %v", e.Period, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Stage names the collaborator call or computation that failed.
type Stage string

const (
	StageExistenceCheck Stage = "existence check"
	StageDateDerivation Stage = "date derivation"
	StageBalanceFetch   Stage = "balance fetch"
	StageCommit         Stage = "commit"
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsFatalStartup returns true if the error means the run never began.
func IsFatalStartup(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrNotFound)
}

// IsNotFound returns true if the error indicates a missing account/category.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
