/*
config.go - Immutable per-run configuration

PURPOSE:
  One Config value object drives a whole run: connection settings for the
  external ledger, the names to resolve, the interest policy inputs, and the
  simulate flag. It is assembled once at startup, validated once, and never
  mutated afterwards. No global state.

VALIDATION:
  Missing connection settings (endpoint, credential, sync id) are a fatal
  startup condition, not a per-period error. Policy inputs get sanity bounds:
  a booking day outside 1..31 can never be clamped into a real month.

SEE ALSO:
  - engine.go: NewSession consumes a validated Config
  - cmd/accrue: Builds Config from flags and environment
*/
package accrual

// Config is the immutable snapshot of settings for one run.
type Config struct {
	// Connection to the external ledger.
	Endpoint   string // service URL
	Credential string // bearer credential
	SyncID     string // dataset sync identifier
	CacheDir   string // local dataset cache location

	// Names resolved against the ledger once per run.
	AccountName  string
	CategoryName string

	// Interest policy.
	AnnualRate float64 // decimal fraction, e.g. 0.04
	BookingDay int     // preferred day-of-month, clamped to month length

	// Optional explicit start of the backfill range. Nil means the current
	// month only.
	StartDate *TimePoint

	// Simulate reports what would be booked without mutating the ledger.
	Simulate bool
}

// DefaultConfig returns the recognized defaults. Connection settings have no
// default and must be supplied.
func DefaultConfig() Config {
	return Config{
		CacheDir:     "./cache",
		AccountName:  "Mortgage",
		CategoryName: "Mortgage Interest",
		AnnualRate:   0.04,
		BookingDay:   25,
	}
}

// WithStartDate parses an explicit ISO start date into the config.
// An empty string leaves StartDate nil.
func (c Config) WithStartDate(s string) (Config, error) {
	if s == "" {
		return c, nil
	}
	tp, err := ParseDate(s)
	if err != nil {
		return c, &ConfigError{Setting: "start date", Reason: err.Error()}
	}
	c.StartDate = &tp
	return c, nil
}

// Validate checks the settings a run cannot start without.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return &ConfigError{Setting: "endpoint", Reason: "required"}
	}
	if c.Credential == "" {
		return &ConfigError{Setting: "credential", Reason: "required"}
	}
	if c.SyncID == "" {
		return &ConfigError{Setting: "sync id", Reason: "required"}
	}
	if c.AccountName == "" {
		return &ConfigError{Setting: "account name", Reason: "required"}
	}
	if c.CategoryName == "" {
		return &ConfigError{Setting: "category name", Reason: "required"}
	}
	if c.BookingDay < 1 || c.BookingDay > 31 {
		return &ConfigError{Setting: "booking day", Reason: "must be between 1 and 31"}
	}
	return nil
}
