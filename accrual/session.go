/*
session.go - Session setup and name resolution

PURPOSE:
  A Session is the small service object that lives for exactly one run: the
  connected ledger client, the validated config, and the account/category ids
  resolved from configured names. Nothing here is global and nothing survives
  the run - ids are re-resolved every time, never cached across runs.

RESOLUTION POLICY:
  Exact name match against the ledger's full listings. A missing name is
  fatal (NotFoundError) before any period is processed. A matched account
  that is ON budget is a policy warning, not an error: the computation is
  unaffected, only budget reporting semantics outside this system's scope.

SEE ALSO:
  - engine.go: Session.Run, the per-period loop
  - config.go: The validated inputs
*/
package accrual

import (
	"context"
	"log"
)

// Session holds the resolved state for a single run.
type Session struct {
	client Client
	cfg    Config

	accountID  string
	categoryID string

	// logf receives policy warnings and per-period progress. Defaults to
	// log.Printf; tests inject their own.
	logf func(format string, args ...any)
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithLogf redirects session logging.
func WithLogf(logf func(format string, args ...any)) SessionOption {
	return func(s *Session) { s.logf = logf }
}

// NewSession loads the dataset and resolves the configured account and
// category names to ledger ids. The client must already be connected; the
// caller owns Close.
func NewSession(ctx context.Context, client Client, cfg Config, opts ...SessionOption) (*Session, error) {
	s := &Session{client: client, cfg: cfg, logf: log.Printf}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.AccountName == "" {
		return nil, &ConfigError{Setting: "account name", Reason: "required"}
	}
	if cfg.CategoryName == "" {
		return nil, &ConfigError{Setting: "category name", Reason: "required"}
	}
	if cfg.BookingDay < 1 || cfg.BookingDay > 31 {
		return nil, &ConfigError{Setting: "booking day", Reason: "must be between 1 and 31"}
	}

	if err := client.LoadDataset(ctx, cfg.SyncID); err != nil {
		return nil, err
	}

	account, err := s.resolveAccount(ctx, cfg.AccountName)
	if err != nil {
		return nil, err
	}
	if !account.OffBudget {
		// Booking proceeds regardless; mislabeled budget status does not
		// affect the computation.
		s.logf("warning: account %q is on budget; accrual bookings will affect category totals", account.Name)
	}
	s.accountID = account.ID

	category, err := s.resolveCategory(ctx, cfg.CategoryName)
	if err != nil {
		return nil, err
	}
	s.categoryID = category.ID

	return s, nil
}

func (s *Session) resolveAccount(ctx context.Context, name string) (Account, error) {
	accounts, err := s.client.Accounts(ctx)
	if err != nil {
		return Account{}, err
	}
	for _, a := range accounts {
		if a.Name == name {
			return a, nil
		}
	}
	return Account{}, &NotFoundError{Kind: "account", Name: name}
}

func (s *Session) resolveCategory(ctx context.Context, name string) (Category, error) {
	categories, err := s.client.Categories(ctx)
	if err != nil {
		return Category{}, err
	}
	for _, c := range categories {
		if c.Name == name {
			return c, nil
		}
	}
	return Category{}, &NotFoundError{Kind: "category", Name: name}
}
