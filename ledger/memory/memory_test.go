package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/accrual-engine/accrual"
	"github.com/warp/accrual-engine/ledger/memory"
)

func newLoadedClient(t *testing.T) *memory.Client {
	t.Helper()
	client := memory.New()
	require.NoError(t, client.LoadDataset(context.Background(), "ds"))
	return client
}

func tx(id string, date accrual.TimePoint, cents int64) accrual.Transaction {
	return accrual.Transaction{ID: id, Date: date, AmountCents: cents}
}

func TestClient_QueriesBeforeLoadDataset_Rejected(t *testing.T) {
	// GIVEN: A client whose dataset was never loaded
	// WHEN: Querying
	// THEN: Every query fails - LoadDataset must precede all queries

	client := memory.New()

	_, err := client.Accounts(context.Background())
	assert.Error(t, err)

	_, err = client.BalanceAsOf(context.Background(), "a", accrual.NewTimePoint(2024, time.May, 1))
	assert.Error(t, err)
}

func TestClient_TransactionWindow_InclusiveBothEnds(t *testing.T) {
	client := newLoadedClient(t)
	client.SeedTransaction("a", tx("t1", accrual.NewTimePoint(2024, time.April, 30), -10))
	client.SeedTransaction("a", tx("t2", accrual.NewTimePoint(2024, time.May, 1), -20))
	client.SeedTransaction("a", tx("t3", accrual.NewTimePoint(2024, time.May, 31), -30))
	client.SeedTransaction("a", tx("t4", accrual.NewTimePoint(2024, time.June, 1), -40))

	txs, err := client.Transactions(context.Background(), "a",
		accrual.NewTimePoint(2024, time.May, 1), accrual.NewTimePoint(2024, time.May, 31))

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "t2", txs[0].ID)
	assert.Equal(t, "t3", txs[1].ID)
}

func TestClient_BalanceAsOf_ReplaysUpToDate(t *testing.T) {
	client := newLoadedClient(t)
	client.SeedTransaction("a", tx("t1", accrual.NewTimePoint(2024, time.January, 10), -100))
	client.SeedTransaction("a", tx("t2", accrual.NewTimePoint(2024, time.February, 10), -50))
	client.SeedTransaction("a", tx("t3", accrual.NewTimePoint(2024, time.March, 10), -25))

	balance, err := client.BalanceAsOf(context.Background(), "a", accrual.NewTimePoint(2024, time.February, 28))

	require.NoError(t, err)
	assert.Equal(t, int64(-150), balance)
}

func TestClient_AddTransactions_RejectsDuplicateKey(t *testing.T) {
	client := newLoadedClient(t)
	record := accrual.Transaction{
		IdempotencyKey: "interest-2024-05",
		Date:           accrual.NewTimePoint(2024, time.May, 25),
		AmountCents:    -27901,
	}

	err := client.AddTransactions(context.Background(), "a", []accrual.Transaction{record}, accrual.AddOptions{})
	require.NoError(t, err)

	err = client.AddTransactions(context.Background(), "a", []accrual.Transaction{record}, accrual.AddOptions{})
	assert.ErrorIs(t, err, accrual.ErrDuplicateIdempotencyKey)
}

func TestClient_Close_RejectsFurtherUse(t *testing.T) {
	client := newLoadedClient(t)
	require.NoError(t, client.Close())

	_, err := client.Accounts(context.Background())
	assert.Error(t, err)
}
