package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/accrual-engine/accrual"
	"github.com/warp/accrual-engine/api"
	"github.com/warp/accrual-engine/ledger/memory"
	"github.com/warp/accrual-engine/ledger/remote"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const (
	testSyncID     = "budget-1"
	testCredential = "secret"
)

func newBackend(t *testing.T) *memory.Client {
	t.Helper()
	backend := memory.New()
	require.NoError(t, backend.LoadDataset(context.Background(), testSyncID))
	backend.SeedAccount(accrual.Account{ID: "acct-1", Name: "Mortgage", OffBudget: true})
	backend.SeedCategory(accrual.Category{ID: "cat-1", Name: "Mortgage Interest"})
	backend.SeedTransaction("acct-1", accrual.Transaction{
		ID:          "opening",
		Date:        accrual.NewTimePoint(2023, time.December, 1),
		AmountCents: -30_000_000,
	})
	return backend
}

func newTestServer(t *testing.T, backend *memory.Client) *httptest.Server {
	t.Helper()
	router := api.NewRouter(api.NewHandler(backend, testSyncID), testCredential)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path, credential string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// =============================================================================
// AUTH
// =============================================================================

func TestServer_MissingCredential_Unauthorized(t *testing.T) {
	srv := newTestServer(t, newBackend(t))

	resp := get(t, srv, "/api/accounts", "")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_WrongCredential_Unauthorized(t *testing.T) {
	srv := newTestServer(t, newBackend(t))

	resp := get(t, srv, "/api/accounts", "not-the-secret")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// =============================================================================
// LISTINGS AND QUERIES
// =============================================================================

func TestServer_ListAccounts(t *testing.T) {
	srv := newTestServer(t, newBackend(t))

	resp := get(t, srv, "/api/accounts", testCredential)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accounts []api.AccountDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "Mortgage", accounts[0].Name)
	assert.True(t, accounts[0].OffBudget)
}

func TestServer_GetDataset_UnknownSyncID_NotFound(t *testing.T) {
	srv := newTestServer(t, newBackend(t))

	resp := get(t, srv, "/api/sync/some-other-budget", testCredential)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GetDataset_FullSnapshot(t *testing.T) {
	srv := newTestServer(t, newBackend(t))

	resp := get(t, srv, "/api/sync/"+testSyncID, testCredential)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ds api.DatasetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ds))
	assert.Equal(t, testSyncID, ds.SyncID)
	assert.Len(t, ds.Accounts, 1)
	assert.Len(t, ds.Categories, 1)
	assert.Len(t, ds.Transactions, 1)
}

func TestServer_GetBalance(t *testing.T) {
	srv := newTestServer(t, newBackend(t))

	resp := get(t, srv, "/api/accounts/acct-1/balance?as_of=2023-12-31", testCredential)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var balance api.BalanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&balance))
	assert.Equal(t, int64(-30_000_000), balance.BalanceCents)
}

func TestServer_ListTransactions_BadDates_BadRequest(t *testing.T) {
	srv := newTestServer(t, newBackend(t))

	resp := get(t, srv, "/api/accounts/acct-1/transactions?from=yesterday&to=2024-01-31", testCredential)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// WRITES
// =============================================================================

func TestServer_AddTransactions_DuplicateKey_Conflict(t *testing.T) {
	srv := newTestServer(t, newBackend(t))

	body, err := json.Marshal(api.AddTransactionsRequest{
		Transactions: []api.TransactionDTO{{
			IdempotencyKey: "interest-2024-01",
			Date:           "2024-01-25",
			AmountCents:    -83_704,
		}},
	})
	require.NoError(t, err)

	post := func() *http.Response {
		req, err := http.NewRequest(http.MethodPost,
			srv.URL+"/api/accounts/acct-1/transactions", bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+testCredential)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusNoContent, post().StatusCode)
	assert.Equal(t, http.StatusConflict, post().StatusCode)
}

// =============================================================================
// END TO END - remote client against the stand-in server
// =============================================================================

func e2eConfig(endpoint string) accrual.Config {
	cfg := accrual.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Credential = testCredential
	cfg.SyncID = testSyncID
	cfg.AnnualRate = 0.034
	start := accrual.NewTimePoint(2024, time.January, 1)
	cfg.StartDate = &start
	return cfg
}

func TestEndToEnd_RunBooksThenSkips(t *testing.T) {
	// GIVEN: A stand-in ledger server over a seeded backend
	// WHEN: Running the engine twice through the HTTP client, fresh cache
	//       each time
	// THEN: The first run books three months; the second books nothing

	backend := newBackend(t)
	srv := newTestServer(t, backend)
	ctx := context.Background()
	today := accrual.NewTimePoint(2024, time.March, 15)

	runOnce := func() accrual.RunReport {
		client, err := remote.Connect(srv.URL, testCredential, t.TempDir())
		require.NoError(t, err)
		defer client.Close()

		session, err := accrual.NewSession(ctx, client, e2eConfig(srv.URL),
			accrual.WithLogf(t.Logf))
		require.NoError(t, err)

		report, err := session.Run(ctx, today)
		require.NoError(t, err)
		return report
	}

	first := runOnce()
	assert.Equal(t, 3, first.Committed())
	assert.Equal(t, 0, first.Skipped())

	second := runOnce()
	assert.Equal(t, 0, second.Committed())
	assert.Equal(t, 3, second.Skipped())

	// The bookings landed on the backend, not just in a local cache. March's
	// record is dated the 25th, so the query runs through month end.
	txs, err := backend.Transactions(ctx, "acct-1",
		accrual.NewTimePoint(2024, time.January, 1),
		accrual.NewTimePoint(2024, time.March, 31))
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestEndToEnd_SimulateLeavesBackendUntouched(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend)
	ctx := context.Background()

	client, err := remote.Connect(srv.URL, testCredential, t.TempDir())
	require.NoError(t, err)
	defer client.Close()

	cfg := e2eConfig(srv.URL)
	cfg.Simulate = true
	session, err := accrual.NewSession(ctx, client, cfg, accrual.WithLogf(t.Logf))
	require.NoError(t, err)

	report, err := session.Run(ctx, accrual.NewTimePoint(2024, time.March, 15))

	require.NoError(t, err)
	assert.Equal(t, 3, report.Simulated())
	assert.Equal(t, 0, backend.AddCalls)
}
