/*
handlers.go - HTTP handlers for the stand-in ledger server

PURPOSE:
  Exposes any accrual.Client over the JSON/HTTP protocol the remote client
  consumes. Used by cmd/ledgerd as a development stand-in for the external
  budgeting service and by the integration tests.

ENDPOINTS:
  GET  /api/sync/{syncID}                   Full dataset snapshot
  GET  /api/accounts                        Account listing
  GET  /api/categories                      Category listing
  GET  /api/accounts/{id}/transactions      Records in ?from=&to= (inclusive)
  GET  /api/accounts/{id}/balance           Balance at ?as_of=
  POST /api/accounts/{id}/transactions      Append records

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid dates or request body
  - 409: Duplicate idempotency key
  - 500: Backend errors

SEE ALSO:
  - dto.go: Wire types
  - server.go: Router and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/accrual-engine/accrual"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler serves the ledger protocol over a backing client.
type Handler struct {
	Backend accrual.Client
	SyncID  string
}

// NewHandler creates a handler serving the given backend as dataset syncID.
func NewHandler(backend accrual.Client, syncID string) *Handler {
	return &Handler{Backend: backend, SyncID: syncID}
}

// =============================================================================
// DATASET
// =============================================================================

// GetDataset serves the full dataset snapshot.
// GET /api/sync/{syncID}
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "syncID") != h.SyncID {
		writeError(w, http.StatusNotFound, "unknown sync id", nil)
		return
	}

	exporter, ok := h.Backend.(accrual.DatasetExporter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "backend cannot export datasets", nil)
		return
	}
	ds, err := exporter.ExportDataset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export dataset", err)
		return
	}
	ds.SyncID = h.SyncID
	writeJSON(w, http.StatusOK, ToDatasetResponse(ds))
}

// =============================================================================
// LISTINGS
// =============================================================================

// ListAccounts returns the full account listing.
// GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Backend.Accounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err)
		return
	}
	dtos := []AccountDTO{}
	for _, a := range accounts {
		dtos = append(dtos, ToAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListCategories returns the full category listing.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Backend.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories", err)
		return
	}
	dtos := []CategoryDTO{}
	for _, c := range categories {
		dtos = append(dtos, ToCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// ListTransactions returns an account's records in an inclusive date window.
// GET /api/accounts/{id}/transactions?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	from, err := accrual.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", err)
		return
	}
	to, err := accrual.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date", err)
		return
	}

	txs, err := h.Backend.Transactions(r.Context(), accountID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err)
		return
	}
	dtos := []TransactionDTO{}
	for _, t := range txs {
		dtos = append(dtos, ToTransactionDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance returns an account's balance as of a date.
// GET /api/accounts/{id}/balance?as_of=YYYY-MM-DD
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	asOf, err := accrual.ParseDate(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return
	}

	balance, err := h.Backend.BalanceAsOf(r.Context(), accountID, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		AccountID:    accountID,
		AsOf:         asOf.String(),
		BalanceCents: balance,
	})
}

// AddTransactions appends records to an account.
// POST /api/accounts/{id}/transactions
func (h *Handler) AddTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req AddTransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	txs := make([]accrual.Transaction, 0, len(req.Transactions))
	for _, dto := range req.Transactions {
		tx, err := dto.ToDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction date", err)
			return
		}
		txs = append(txs, tx)
	}

	opts := accrual.AddOptions{
		AllowTransferMatching: req.AllowTransferMatching,
		AllowAutoCategorize:   req.AllowAutoCategorize,
	}
	if err := h.Backend.AddTransactions(r.Context(), accountID, txs, opts); err != nil {
		if errors.Is(err, accrual.ErrDuplicateIdempotencyKey) {
			writeError(w, http.StatusConflict, "duplicate idempotency key", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add transactions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
