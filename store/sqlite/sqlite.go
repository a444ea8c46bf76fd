/*
Package sqlite provides the SQLite-backed local dataset cache.

PURPOSE:
  The external budgeting service owns the durable books; this cache holds the
  locally synced copy of one dataset (accounts, categories, transactions) so
  queries during a run don't round-trip the network. It doubles as a
  standalone accrual.Client for offline and development runs.

INTERFACES IMPLEMENTED:
  accrual.Client:          Queries and write-through inserts
  accrual.DatasetExporter: Full-dataset export for the stand-in server

KEY TABLES:
  accounts:      Synced account listing
  categories:    Synced category listing
  transactions:  Synced records, UNIQUE on idempotency_key

IDEMPOTENCY:
  The UNIQUE partial index on idempotency_key rejects duplicate bookings at
  the storage layer too. The engine's existence check normally prevents ever
  reaching it; the index is the backstop.

SYNC:
  ReplaceDataset atomically swaps the cached copy inside one SQL transaction:
  a failed sync leaves the previous copy intact.

WAL MODE:
  Opened with WAL journaling, matching how the cache file is used: one writer
  (the sync), cheap concurrent reads.

USAGE:
  cache, err := sqlite.Open(filepath.Join(cacheDir, syncID+".db"))
  if err != nil { ... }
  defer cache.Close()

SEE ALSO:
  - accrual/ledger.go: The contract
  - ledger/remote:     Syncs into this cache
*/
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/accrual-engine/accrual"
)

// Store is the SQLite-backed dataset cache.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens a cache database at the given path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		off_budget INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		idempotency_key TEXT,
		date TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		category_id TEXT,
		payee TEXT,
		note TEXT,
		cleared INTEGER NOT NULL DEFAULT 0
	);

	-- Balance and window queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_account_date
		ON transactions(account_id, date);

	-- Backstop for the engine's existence check
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_idempotency
		ON transactions(idempotency_key) WHERE idempotency_key IS NOT NULL AND idempotency_key != '';
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SYNC - Atomic dataset replacement
// =============================================================================

// ReplaceDataset swaps the cached copy for a freshly synced one, atomically.
func (s *Store) ReplaceDataset(ctx context.Context, ds accrual.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM transactions`,
		`DELETE FROM categories`,
		`DELETE FROM accounts`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, a := range ds.Accounts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (id, name, off_budget) VALUES (?, ?, ?)`,
			a.ID, a.Name, boolToInt(a.OffBudget))
		if err != nil {
			return err
		}
	}
	for _, c := range ds.Categories {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name) VALUES (?, ?)`,
			c.ID, c.Name)
		if err != nil {
			return err
		}
	}
	for _, t := range ds.Transactions {
		if err := insertTransaction(ctx, tx, t.AccountID, t.Transaction); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// CLIENT CONTRACT
// =============================================================================

// LoadDataset is a no-op for the standalone cache: the database file IS the
// dataset. The remote client performs the actual sync via ReplaceDataset.
func (s *Store) LoadDataset(_ context.Context, _ string) error {
	return nil
}

func (s *Store) Accounts(ctx context.Context) ([]accrual.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, off_budget FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []accrual.Account
	for rows.Next() {
		var a accrual.Account
		var offBudget int
		if err := rows.Scan(&a.ID, &a.Name, &offBudget); err != nil {
			return nil, err
		}
		a.OffBudget = offBudget != 0
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) Categories(ctx context.Context) ([]accrual.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []accrual.Category
	for rows.Next() {
		var c accrual.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) Transactions(ctx context.Context, accountID string, from, to accrual.TimePoint) ([]accrual.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, idempotency_key, date, amount_cents, category_id, payee, note, cleared
		FROM transactions
		WHERE account_id = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		accountID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []accrual.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *Store) BalanceAsOf(ctx context.Context, accountID string, asOf accrual.TimePoint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var balance sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(amount_cents) FROM transactions
		WHERE account_id = ? AND date <= ?`,
		accountID, asOf.String()).Scan(&balance)
	if err != nil {
		return 0, err
	}
	return balance.Int64, nil
}

func (s *Store) AddTransactions(ctx context.Context, accountID string, txs []accrual.Transaction, _ accrual.AddOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	for _, t := range txs {
		if t.IdempotencyKey != "" {
			var n int
			err := dbTx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM transactions WHERE idempotency_key = ?`,
				t.IdempotencyKey).Scan(&n)
			if err != nil {
				return err
			}
			if n > 0 {
				return accrual.ErrDuplicateIdempotencyKey
			}
		}
		if err := insertTransaction(ctx, dbTx, accountID, t); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

// =============================================================================
// EXPORT - For the stand-in server's sync endpoint
// =============================================================================

// ExportDataset returns the full cached dataset.
func (s *Store) ExportDataset(ctx context.Context) (accrual.Dataset, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return accrual.Dataset{}, err
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return accrual.Dataset{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, id, idempotency_key, date, amount_cents, category_id, payee, note, cleared
		FROM transactions ORDER BY date, id`)
	if err != nil {
		return accrual.Dataset{}, err
	}
	defer rows.Close()

	ds := accrual.Dataset{Accounts: accounts, Categories: categories}
	for rows.Next() {
		var accountID string
		var t accrual.Transaction
		var dateStr string
		var key, categoryID, payee, note sql.NullString
		var cleared int
		err := rows.Scan(&accountID, &t.ID, &key, &dateStr, &t.AmountCents,
			&categoryID, &payee, &note, &cleared)
		if err != nil {
			return accrual.Dataset{}, err
		}
		t.Date, err = accrual.ParseDate(dateStr)
		if err != nil {
			return accrual.Dataset{}, err
		}
		t.IdempotencyKey = key.String
		t.CategoryID = categoryID.String
		t.Payee = payee.String
		t.Note = note.String
		t.Cleared = cleared != 0
		ds.Transactions = append(ds.Transactions, accrual.DatasetTransaction{
			AccountID:   accountID,
			Transaction: t,
		})
	}
	return ds, rows.Err()
}

// =============================================================================
// INTERNALS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, accountID string, t accrual.Transaction) error {
	id := t.ID
	if id == "" {
		// Accrual bookings are already uniquely identified by their key.
		id = t.IdempotencyKey
	}
	if id == "" {
		// Synced records can carry neither; the primary key still needs a
		// unique value.
		var err error
		if id, err = surrogateID(); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, account_id, idempotency_key, date, amount_cents, category_id, payee, note, cleared)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, accountID, t.IdempotencyKey, t.Date.String(), t.AmountCents,
		t.CategoryID, t.Payee, t.Note, boolToInt(t.Cleared))
	return err
}

func surrogateID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "local-" + hex.EncodeToString(buf), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (accrual.Transaction, error) {
	var t accrual.Transaction
	var dateStr string
	var key, categoryID, payee, note sql.NullString
	var cleared int
	err := row.Scan(&t.ID, &key, &dateStr, &t.AmountCents, &categoryID, &payee, &note, &cleared)
	if err != nil {
		return accrual.Transaction{}, err
	}
	t.Date, err = accrual.ParseDate(dateStr)
	if err != nil {
		return accrual.Transaction{}, err
	}
	t.IdempotencyKey = key.String
	t.CategoryID = categoryID.String
	t.Payee = payee.String
	t.Note = note.String
	t.Cleared = cleared != 0
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
