/*
ledger.go - External ledger collaborator contract

PURPOSE:
  The external budgeting service is the durable store: this system persists
  nothing itself. The Client interface is the narrow capability the engine
  needs from that service, independent of the underlying wire protocol, so
  the engine can be tested against a deterministic in-memory fake.

CONTRACT NOTES:
  - LoadDataset must precede all queries. Implementations backed by a remote
    service pull the dataset into their local cache here.
  - Transactions' [from, to] window is inclusive on both ends. The engine's
    idempotency check depends on that and on previously booked records
    remaining visible.
  - AddTransactions is the ONLY mutation. Records are written exactly as
    constructed; AddOptions must keep the service's automatic
    transfer-matching and auto-categorization OFF for accrual bookings.
  - The connection is an exclusive resource for the run's duration: acquired
    at start, released via Close on every exit path.

IMPLEMENTATIONS:
  - ledger/memory:  Deterministic fake for tests and offline runs
  - ledger/remote:  JSON/HTTP client with a SQLite-backed dataset cache
  - store/sqlite:   The cache itself, also usable standalone

SEE ALSO:
  - engine.go: The only consumer of this interface
*/
package accrual

import "context"

// =============================================================================
// LEDGER TYPES - As reported by the external service
// =============================================================================

// Account is a ledger account listing entry. OffBudget marks tracking
// accounts excluded from budget category totals - the expected flavor for a
// mortgage liability.
type Account struct {
	ID        string
	Name      string
	OffBudget bool
}

// Category is a budget category listing entry.
type Category struct {
	ID   string
	Name string
}

// Transaction is one ledger record. Amounts are signed integer cents.
type Transaction struct {
	ID             string
	IdempotencyKey string
	Date           TimePoint
	AmountCents    int64
	CategoryID     string
	Payee          string
	Note           string
	Cleared        bool
}

// AddOptions controls the service's automatic sub-behaviors on insertion.
// Both default to off so records land exactly as constructed.
type AddOptions struct {
	AllowTransferMatching bool
	AllowAutoCategorize   bool
}

// =============================================================================
// DATASET - Full synced snapshot
// =============================================================================

// DatasetTransaction pairs a record with its owning account for snapshot
// transfer, where records from all accounts travel together.
type DatasetTransaction struct {
	AccountID string
	Transaction
}

// Dataset is one complete budget dataset as synced from the service.
type Dataset struct {
	SyncID       string
	Accounts     []Account
	Categories   []Category
	Transactions []DatasetTransaction
}

// DatasetExporter is implemented by clients that can hand over their full
// dataset. The stand-in server uses it to serve sync requests.
type DatasetExporter interface {
	ExportDataset(ctx context.Context) (Dataset, error)
}

// =============================================================================
// CLIENT - Injectable ledger capability
// =============================================================================

// Client is the collaborator contract the engine drives. Implementations own
// all persistence; the engine holds no cross-period mutable state beyond the
// advancing cursor.
type Client interface {
	// LoadDataset makes the identified dataset available for querying.
	// Must be called before any other method.
	LoadDataset(ctx context.Context, syncID string) error

	// Accounts returns the full account listing.
	Accounts(ctx context.Context) ([]Account, error)

	// Categories returns the full category listing.
	Categories(ctx context.Context) ([]Category, error)

	// Transactions returns the account's records with dates in [from, to],
	// both ends inclusive, ordered by date.
	Transactions(ctx context.Context, accountID string, from, to TimePoint) ([]Transaction, error)

	// BalanceAsOf returns the account's balance in signed cents, including
	// every record dated on or before asOf.
	BalanceAsOf(ctx context.Context, accountID string, asOf TimePoint) (int64, error)

	// AddTransactions appends new records to the account. The sole mutation.
	AddTransactions(ctx context.Context, accountID string, txs []Transaction, opts AddOptions) error

	// Close releases the connection and local cache. Close failures are
	// logged by callers, never escalated: they must not mask the run outcome.
	Close() error
}
