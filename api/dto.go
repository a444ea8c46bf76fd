/*
dto.go - Wire types for the ledger protocol

PURPOSE:
  Defines the JSON structures exchanged between the stand-in ledger server
  and the remote client. These types decouple the domain model from the wire
  contract; dates travel as ISO strings, amounts as integer cents.

NAMING CONVENTION:
  - *DTO: JSON shapes of domain values
  - *Request/*Response: Endpoint payload wrappers

SEE ALSO:
  - handlers.go: Serves these types
  - ledger/remote: Consumes these types
*/
package api

import (
	"github.com/warp/accrual-engine/accrual"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// AccountDTO represents an account in listings.
type AccountDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OffBudget bool   `json:"off_budget"`
}

// CategoryDTO represents a budget category in listings.
type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TransactionDTO represents one ledger record on the wire.
type TransactionDTO struct {
	ID             string `json:"id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Date           string `json:"date"`
	AmountCents    int64  `json:"amount_cents"`
	CategoryID     string `json:"category_id,omitempty"`
	Payee          string `json:"payee,omitempty"`
	Note           string `json:"note,omitempty"`
	Cleared        bool   `json:"cleared"`
}

// DatasetTransactionDTO pairs a record with its owning account in snapshots.
type DatasetTransactionDTO struct {
	AccountID string `json:"account_id"`
	TransactionDTO
}

// DatasetResponse is the full dataset snapshot served by the sync endpoint.
type DatasetResponse struct {
	SyncID       string                  `json:"sync_id"`
	Accounts     []AccountDTO            `json:"accounts"`
	Categories   []CategoryDTO           `json:"categories"`
	Transactions []DatasetTransactionDTO `json:"transactions"`
}

// BalanceResponse carries a balance-as-of result.
type BalanceResponse struct {
	AccountID    string `json:"account_id"`
	AsOf         string `json:"as_of"`
	BalanceCents int64  `json:"balance_cents"`
}

// AddTransactionsRequest is the body of a booking submission.
type AddTransactionsRequest struct {
	Transactions          []TransactionDTO `json:"transactions"`
	AllowTransferMatching bool             `json:"allow_transfer_matching"`
	AllowAutoCategorize   bool             `json:"allow_auto_categorize"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func ToAccountDTO(a accrual.Account) AccountDTO {
	return AccountDTO{ID: a.ID, Name: a.Name, OffBudget: a.OffBudget}
}

func (d AccountDTO) ToDomain() accrual.Account {
	return accrual.Account{ID: d.ID, Name: d.Name, OffBudget: d.OffBudget}
}

func ToCategoryDTO(c accrual.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name}
}

func (d CategoryDTO) ToDomain() accrual.Category {
	return accrual.Category{ID: d.ID, Name: d.Name}
}

func ToTransactionDTO(t accrual.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:             t.ID,
		IdempotencyKey: t.IdempotencyKey,
		Date:           t.Date.String(),
		AmountCents:    t.AmountCents,
		CategoryID:     t.CategoryID,
		Payee:          t.Payee,
		Note:           t.Note,
		Cleared:        t.Cleared,
	}
}

func (d TransactionDTO) ToDomain() (accrual.Transaction, error) {
	date, err := accrual.ParseDate(d.Date)
	if err != nil {
		return accrual.Transaction{}, err
	}
	return accrual.Transaction{
		ID:             d.ID,
		IdempotencyKey: d.IdempotencyKey,
		Date:           date,
		AmountCents:    d.AmountCents,
		CategoryID:     d.CategoryID,
		Payee:          d.Payee,
		Note:           d.Note,
		Cleared:        d.Cleared,
	}, nil
}

func ToDatasetResponse(ds accrual.Dataset) DatasetResponse {
	resp := DatasetResponse{
		SyncID:       ds.SyncID,
		Accounts:     []AccountDTO{},
		Categories:   []CategoryDTO{},
		Transactions: []DatasetTransactionDTO{},
	}
	for _, a := range ds.Accounts {
		resp.Accounts = append(resp.Accounts, ToAccountDTO(a))
	}
	for _, c := range ds.Categories {
		resp.Categories = append(resp.Categories, ToCategoryDTO(c))
	}
	for _, t := range ds.Transactions {
		resp.Transactions = append(resp.Transactions, DatasetTransactionDTO{
			AccountID:      t.AccountID,
			TransactionDTO: ToTransactionDTO(t.Transaction),
		})
	}
	return resp
}

func (d DatasetResponse) ToDomain() (accrual.Dataset, error) {
	ds := accrual.Dataset{SyncID: d.SyncID}
	for _, a := range d.Accounts {
		ds.Accounts = append(ds.Accounts, a.ToDomain())
	}
	for _, c := range d.Categories {
		ds.Categories = append(ds.Categories, c.ToDomain())
	}
	for _, t := range d.Transactions {
		tx, err := t.TransactionDTO.ToDomain()
		if err != nil {
			return accrual.Dataset{}, err
		}
		ds.Transactions = append(ds.Transactions, accrual.DatasetTransaction{
			AccountID:   t.AccountID,
			Transaction: tx,
		})
	}
	return ds, nil
}
