// Package memory provides an in-memory ledger Client (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/accrual-engine/accrual"
)

// =============================================================================
// MEMORY CLIENT - Deterministic in-memory ledger
// =============================================================================

// Client implements accrual.Client entirely in memory. Balances are derived
// by replaying transactions, the same way the real service computes them.
type Client struct {
	mu           sync.RWMutex
	accounts     []accrual.Account
	categories   []accrual.Category
	transactions map[string][]accrual.Transaction // accountID -> ordered by date
	idempotency  map[string]bool
	loaded       bool
	closed       bool

	// AddCalls counts AddTransactions invocations, for asserting that
	// simulate-only runs never mutate the ledger.
	AddCalls int

	// FailAdds, when set, makes every AddTransactions call return this error.
	FailAdds error
}

func New() *Client {
	return &Client{
		transactions: make(map[string][]accrual.Transaction),
		idempotency:  make(map[string]bool),
	}
}

// =============================================================================
// SEEDING - Test fixture setup, not part of the Client contract
// =============================================================================

func (c *Client) SeedAccount(a accrual.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = append(c.accounts, a)
}

func (c *Client) SeedCategory(cat accrual.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = append(c.categories, cat)
}

// SeedTransaction inserts a pre-existing record directly, bypassing the
// idempotency rejection (the fixture IS the prior state).
func (c *Client) SeedTransaction(accountID string, tx accrual.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(accountID, tx)
}

// =============================================================================
// CLIENT CONTRACT
// =============================================================================

func (c *Client) LoadDataset(_ context.Context, syncID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("ledger client is closed")
	}
	c.loaded = true
	return nil
}

func (c *Client) Accounts(_ context.Context) ([]accrual.Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.readyLocked(); err != nil {
		return nil, err
	}
	return append([]accrual.Account(nil), c.accounts...), nil
}

func (c *Client) Categories(_ context.Context) ([]accrual.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.readyLocked(); err != nil {
		return nil, err
	}
	return append([]accrual.Category(nil), c.categories...), nil
}

func (c *Client) Transactions(_ context.Context, accountID string, from, to accrual.TimePoint) ([]accrual.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.readyLocked(); err != nil {
		return nil, err
	}

	var result []accrual.Transaction
	for _, tx := range c.transactions[accountID] {
		// Inclusive on both ends, per the contract.
		if from.BeforeOrEqual(tx.Date) && tx.Date.BeforeOrEqual(to) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (c *Client) BalanceAsOf(_ context.Context, accountID string, asOf accrual.TimePoint) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.readyLocked(); err != nil {
		return 0, err
	}

	var balance int64
	for _, tx := range c.transactions[accountID] {
		if tx.Date.After(asOf) {
			break
		}
		balance += tx.AmountCents
	}
	return balance, nil
}

func (c *Client) AddTransactions(_ context.Context, accountID string, txs []accrual.Transaction, _ accrual.AddOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return err
	}
	c.AddCalls++
	if c.FailAdds != nil {
		return c.FailAdds
	}

	// Check all keys before writing any (atomic batch).
	for _, tx := range txs {
		if tx.IdempotencyKey != "" && c.idempotency[tx.IdempotencyKey] {
			return accrual.ErrDuplicateIdempotencyKey
		}
	}
	for _, tx := range txs {
		c.insertLocked(accountID, tx)
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// ExportDataset returns the full in-memory dataset, implementing
// accrual.DatasetExporter for the stand-in server.
func (c *Client) ExportDataset(_ context.Context) (accrual.Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ds := accrual.Dataset{
		Accounts:   append([]accrual.Account(nil), c.accounts...),
		Categories: append([]accrual.Category(nil), c.categories...),
	}
	for accountID, txs := range c.transactions {
		for _, tx := range txs {
			ds.Transactions = append(ds.Transactions, accrual.DatasetTransaction{
				AccountID:   accountID,
				Transaction: tx,
			})
		}
	}
	return ds, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Client) readyLocked() error {
	if c.closed {
		return fmt.Errorf("ledger client is closed")
	}
	if !c.loaded {
		return fmt.Errorf("dataset not loaded")
	}
	return nil
}

func (c *Client) insertLocked(accountID string, tx accrual.Transaction) {
	txs := c.transactions[accountID]

	// Insert in date order so balance replay can stop early.
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].Date.After(tx.Date)
	})
	txs = append(txs, accrual.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	c.transactions[accountID] = txs

	if tx.IdempotencyKey != "" {
		c.idempotency[tx.IdempotencyKey] = true
	}
}
