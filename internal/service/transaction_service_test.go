package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"catatuang/api/internal/models"
	"catatuang/api/internal/repository"
)

func newTransactionEnv(accounts ...models.Account) (*TransactionService, *fakeTransactions, *fakeAccounts) {
	txs := newFakeTransactions()
	store := newFakeAccounts(accounts...)
	return NewTransactionService(txs, store, zerolog.Nop()), txs, store
}

func incomeInput() AddTransactionInput {
	return AddTransactionInput{
		Type:     models.TransactionTypeIncome,
		Date:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Category: "Gaji",
		Amount:   5_000_000,
	}
}

func TestAddTransaction(t *testing.T) {
	svc, txs, _ := newTransactionEnv()

	tx, err := svc.Add(context.Background(), userSession(), incomeInput())
	require.NoError(t, err)
	require.NotEmpty(t, tx.ID)
	require.Equal(t, "acct-user", tx.AccountID)

	listed, err := svc.List(context.Background(), userSession(), "", 50, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Len(t, txs.byID, 1)
}

func TestAddTransactionValidation(t *testing.T) {
	svc, txs, _ := newTransactionEnv()
	ctx := context.Background()

	tests := []struct {
		name  string
		tweak func(*AddTransactionInput)
		field string
	}{
		{"bad type", func(in *AddTransactionInput) { in.Type = "transfer" }, "type"},
		{"zero amount", func(in *AddTransactionInput) { in.Amount = 0 }, "amount"},
		{"negative amount", func(in *AddTransactionInput) { in.Amount = -100 }, "amount"},
		{"unknown category", func(in *AddTransactionInput) { in.Category = "Pajak" }, "category"},
		{"expense category on income", func(in *AddTransactionInput) { in.Category = "Makanan" }, "category"},
		{"missing date", func(in *AddTransactionInput) { in.Date = time.Time{} }, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := incomeInput()
			tt.tweak(&input)

			_, err := svc.Add(ctx, userSession(), input)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tt.field, validationErr.Field)
		})
	}

	require.Empty(t, txs.byID)
}

func TestListFiltersByType(t *testing.T) {
	svc, _, _ := newTransactionEnv()
	ctx := context.Background()

	_, err := svc.Add(ctx, userSession(), incomeInput())
	require.NoError(t, err)
	_, err = svc.Add(ctx, userSession(), AddTransactionInput{
		Type:     models.TransactionTypeExpense,
		Date:     time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Category: "Makanan",
		Amount:   35_000,
	})
	require.NoError(t, err)

	expenses, err := svc.List(ctx, userSession(), models.TransactionTypeExpense, 50, 0)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	require.Equal(t, models.TransactionTypeExpense, expenses[0].Type)

	_, err = svc.List(ctx, userSession(), "transfer", 50, 0)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestRemoveEnforcesOwnership(t *testing.T) {
	svc, _, _ := newTransactionEnv()
	ctx := context.Background()

	tx, err := svc.Add(ctx, userSession(), incomeInput())
	require.NoError(t, err)

	// Another account's delete reads as not found.
	other := models.Session{ID: "sess-2", AccountID: "acct-2", Role: models.RoleUser}
	err = svc.Remove(ctx, other, tx.ID)
	require.ErrorIs(t, err, repository.ErrTransactionNotFound)

	require.NoError(t, svc.Remove(ctx, userSession(), tx.ID))
	err = svc.Remove(ctx, userSession(), tx.ID)
	require.ErrorIs(t, err, repository.ErrTransactionNotFound)
}

func TestSummarizeBalances(t *testing.T) {
	svc, _, _ := newTransactionEnv()
	ctx := context.Background()

	_, err := svc.Add(ctx, userSession(), incomeInput())
	require.NoError(t, err)
	_, err = svc.Add(ctx, userSession(), AddTransactionInput{
		Type:     models.TransactionTypeExpense,
		Date:     time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Category: "Tagihan",
		Amount:   1_250_000,
	})
	require.NoError(t, err)

	summary, err := svc.Summarize(ctx, userSession())
	require.NoError(t, err)
	require.Equal(t, int64(5_000_000), summary.TotalIncome)
	require.Equal(t, int64(1_250_000), summary.TotalExpense)
	require.Equal(t, int64(3_750_000), summary.Balance)
}

func TestStatsRequiresViewReports(t *testing.T) {
	pending := models.Account{ID: "acct-1", Status: models.AccountStatusPending}
	active := models.Account{ID: "acct-2", Status: models.AccountStatusActive}
	svc, _, _ := newTransactionEnv(pending, active)
	ctx := context.Background()

	_, err := svc.Stats(ctx, userSession())
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Add(ctx, userSession(), incomeInput())
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, adminSession())
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalUsers)
	require.Equal(t, 1, stats.PendingUsers)
	require.Equal(t, 1, stats.TotalTransactions)
	require.Equal(t, int64(5_000_000), stats.TotalIncome)
	require.Zero(t, stats.TotalExpense)
}

func TestExportWritesSnapshot(t *testing.T) {
	txSvc, txs, _ := newTransactionEnv()
	ctx := context.Background()

	_, err := txSvc.Add(ctx, userSession(), incomeInput())
	require.NoError(t, err)

	archive := newFakeArchive()
	exporter := NewExportService(txs, archive, zerolog.Nop())

	_, err = exporter.Export(ctx, userSession())
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.Empty(t, archive.objects)

	key, err := exporter.Export(ctx, adminSession())
	require.NoError(t, err)

	data, ok := archive.objects[key]
	require.True(t, ok)

	var envelope struct {
		Count        int               `json:"count"`
		Transactions []json.RawMessage `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Equal(t, 1, envelope.Count)
	require.Len(t, envelope.Transactions, 1)
}
