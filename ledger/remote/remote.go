/*
Package remote provides the JSON/HTTP ledger Client.

PURPOSE:
  Talks to a ledgerd-compatible budgeting service. LoadDataset pulls the full
  dataset snapshot into a SQLite cache under the configured cache directory;
  all reads during the run are served from that cache. AddTransactions is
  submitted to the remote first and written through to the cache on success,
  so subsequent queries in the same run see the new record.

CONNECTION MODEL:
  One Client per run, treated as an exclusive resource: Connect at start,
  Close on every exit path. Close failures are for logging only - they never
  mask the run outcome.

SEE ALSO:
  - api/dto.go:   The wire types this client consumes
  - store/sqlite: The cache implementation
*/
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warp/accrual-engine/accrual"
	"github.com/warp/accrual-engine/api"
	"github.com/warp/accrual-engine/store/sqlite"
)

// Client implements accrual.Client against a remote ledger service.
type Client struct {
	endpoint   string
	credential string
	cacheDir   string
	httpClient *http.Client

	cache *sqlite.Store
}

// Connect prepares a client for the given endpoint. No network call happens
// until LoadDataset.
func Connect(endpoint, credential, cacheDir string) (*Client, error) {
	if _, err := url.Parse(endpoint); err != nil || endpoint == "" {
		return nil, fmt.Errorf("invalid ledger endpoint %q", endpoint)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		credential: credential,
		cacheDir:   cacheDir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// =============================================================================
// CLIENT CONTRACT
// =============================================================================

// LoadDataset syncs the identified dataset into the local cache.
func (c *Client) LoadDataset(ctx context.Context, syncID string) error {
	var resp api.DatasetResponse
	if err := c.get(ctx, "/api/sync/"+url.PathEscape(syncID), &resp); err != nil {
		return fmt.Errorf("dataset sync failed: %w", err)
	}
	ds, err := resp.ToDomain()
	if err != nil {
		return fmt.Errorf("dataset sync returned malformed data: %w", err)
	}

	if c.cache == nil {
		cache, err := sqlite.Open(filepath.Join(c.cacheDir, syncID+".db"))
		if err != nil {
			return err
		}
		c.cache = cache
	}
	return c.cache.ReplaceDataset(ctx, ds)
}

func (c *Client) Accounts(ctx context.Context) ([]accrual.Account, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.cache.Accounts(ctx)
}

func (c *Client) Categories(ctx context.Context) ([]accrual.Category, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.cache.Categories(ctx)
}

func (c *Client) Transactions(ctx context.Context, accountID string, from, to accrual.TimePoint) ([]accrual.Transaction, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.cache.Transactions(ctx, accountID, from, to)
}

func (c *Client) BalanceAsOf(ctx context.Context, accountID string, asOf accrual.TimePoint) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	return c.cache.BalanceAsOf(ctx, accountID, asOf)
}

// AddTransactions submits to the remote first; the cache is only updated
// after the service accepted the records.
func (c *Client) AddTransactions(ctx context.Context, accountID string, txs []accrual.Transaction, opts accrual.AddOptions) error {
	if err := c.ready(); err != nil {
		return err
	}

	req := api.AddTransactionsRequest{
		AllowTransferMatching: opts.AllowTransferMatching,
		AllowAutoCategorize:   opts.AllowAutoCategorize,
	}
	for _, t := range txs {
		req.Transactions = append(req.Transactions, api.ToTransactionDTO(t))
	}
	path := "/api/accounts/" + url.PathEscape(accountID) + "/transactions"
	if err := c.post(ctx, path, req); err != nil {
		return err
	}
	return c.cache.AddTransactions(ctx, accountID, txs, opts)
}

// Close releases the local cache. Safe to call before LoadDataset.
func (c *Client) Close() error {
	if c.cache == nil {
		return nil
	}
	cache := c.cache
	c.cache = nil
	return cache.Close()
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

func (c *Client) ready() error {
	if c.cache == nil {
		return fmt.Errorf("dataset not loaded")
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e api.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("ledger service: %s %s: %s", resp.Status, req.URL.Path, e.Error)
		}
		return fmt.Errorf("ledger service: %s %s", resp.Status, req.URL.Path)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
